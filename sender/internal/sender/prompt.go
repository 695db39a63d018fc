package sender

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInput is returned when a prompt answer cannot be parsed.
var ErrInvalidInput = errors.New("invalid input")

// Prompter asks questions on out and reads one line per answer from in.
// An empty answer (or end of input) selects the default.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter returns a Prompter reading from in and writing to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Int asks for an integer.
func (p *Prompter) Int(label string, def int) (int, error) {
	s, err := p.ask(fmt.Sprintf("%s (default %d): ", label, def))
	if err != nil || s == "" {
		return def, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidInput, s)
	}
	return n, nil
}

// Duration asks for a number of seconds, fractions allowed.
func (p *Prompter) Duration(label string, def time.Duration) (time.Duration, error) {
	s, err := p.ask(fmt.Sprintf("%s (default %s): ", label, strconv.FormatFloat(def.Seconds(), 'f', -1, 64)))
	if err != nil || s == "" {
		return def, err
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
		return 0, fmt.Errorf("%w: %q is not a number of seconds", ErrInvalidInput, s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// String asks for free text.
func (p *Prompter) String(label, def string) (string, error) {
	s, err := p.ask(fmt.Sprintf("%s (default %s): ", label, def))
	if err != nil || s == "" {
		return def, err
	}
	return s, nil
}

// Confirm asks a yes/no question that defaults to no.
func (p *Prompter) Confirm(label string) (bool, error) {
	s, err := p.ask(label + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(s) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
