package sample

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Sample is one accepted measurement.
type Sample struct {
	Time  float64 // Seconds since acquisition start
	Value float64 // Voltage (V), including any mixed-in waveform value
}

// ParseError reports a line that does not hold a single real number.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid data received %q: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("invalid data received %q", e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseValue decodes a raw line as UTF-8, trims surrounding whitespace and
// parses the remainder as a float64.
func ParseValue(line []byte) (float64, error) {
	if !utf8.Valid(line) {
		return 0, &ParseError{Line: strconv.Quote(string(line)), Err: fmt.Errorf("not valid UTF-8")}
	}

	text := strings.TrimSpace(string(line))
	if text == "" {
		return 0, &ParseError{Line: text, Err: fmt.Errorf("empty line")}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &ParseError{Line: text, Err: err}
	}
	// NaN and Inf parse fine but have no place in a voltage log
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Line: text, Err: fmt.Errorf("not a finite number")}
	}

	return v, nil
}
