// Package config loads the detection sender configuration from a YAML file,
// with DETECTION_ENDPOINT taking precedence over the file's endpoint.
package config
