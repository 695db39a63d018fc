// Package sender POSTs detection events to an HTTP endpoint. It drives the
// detection-sender binary: single sends, paced simulations and the
// interactive prompts used to configure them.
package sender
