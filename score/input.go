package score

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidInput is returned when a submitted name/score pair fails validation.
var ErrInvalidInput = errors.New("invalid input")

var scorePattern = regexp.MustCompile(`^\d{1,4}(\.\d)?$`)

// Limits bounds accepted scores (inclusive).
type Limits struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DefaultLimits matches the widget form: 0..2000.
var DefaultLimits = Limits{Min: 0, Max: 2000}

// Contains reports whether v lies within the limits.
func (l Limits) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// Key returns the merge key of a name: trimmed and NFC-normalised.
func Key(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ParseInput validates a form submission. The score text must have at most
// four integer digits and one decimal digit, and lie within DefaultLimits.
func ParseInput(name, scoreText string) (string, float64, error) {
	name = Key(name)
	scoreText = strings.TrimSpace(scoreText)
	if name == "" {
		return "", 0, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !scorePattern.MatchString(scoreText) {
		return "", 0, fmt.Errorf("%w: score %q", ErrInvalidInput, scoreText)
	}
	value, err := strconv.ParseFloat(scoreText, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !DefaultLimits.Contains(value) {
		return "", 0, fmt.Errorf("%w: score %v out of range", ErrInvalidInput, value)
	}
	return name, value, nil
}

// InRange drops entries outside limits, preserving order.
func InRange(limits Limits, entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if limits.Contains(e.Score) {
			out = append(out, e)
		}
	}
	return out
}
