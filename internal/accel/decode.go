// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package accel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// frameFields is the number of fields in a frame: x, y, z.
const frameFields = 3

// ErrMalformedFrame is returned when a line does not split into exactly
// three fields, or when its envelope (checksummed framing) is invalid.
var ErrMalformedFrame = errors.New("accel: malformed frame")

// InvalidFieldError reports a field that is not a finite decimal numeral.
// Index is 0 for x, 1 for y and 2 for z.
type InvalidFieldError struct {
	Index int
	Field string
	Err   error
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("accel: invalid field %d (%q): %v", e.Index, e.Field, e.Err)
}

func (e *InvalidFieldError) Unwrap() error { return e.Err }

var errNotDecimal = errors.New("not a decimal numeral")

// Decoder parses plain delimiter-separated frames such as "0.12,-0.40,0.98".
// Whitespace around each field is ignored, which also drops the trailing
// carriage return some serial firmwares emit.
type Decoder struct {
	delim string
}

// NewDecoder returns a Decoder splitting on delim. An empty delim selects
// DefaultDelimiter.
func NewDecoder(delim string) *Decoder {
	if delim == "" {
		delim = DefaultDelimiter
	}
	return &Decoder{delim: delim}
}

// Decode parses one frame. It has no side effects.
func (d *Decoder) Decode(line string) (Reading, error) {
	fields := strings.Split(line, d.delim)
	if len(fields) != frameFields {
		return Reading{}, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedFrame, len(fields), frameFields)
	}
	return parseFields(fields)
}

// parseFields converts exactly three textual fields into a Reading.
func parseFields(fields []string) (Reading, error) {
	var v [frameFields]float64
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if !isDecimal(f) {
			return Reading{}, &InvalidFieldError{Index: i, Field: f, Err: errNotDecimal}
		}
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Reading{}, &InvalidFieldError{Index: i, Field: f, Err: err}
		}
		v[i] = x
	}
	return Reading{X: v[0], Y: v[1], Z: v[2]}, nil
}

// isDecimal reports whether s is an optionally signed decimal numeral with
// an optional exponent: [+-]digits[.digits][(e|E)[+-]digits]. Hex floats,
// digit separators and the NaN/Inf spellings are not numerals here.
func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for ; i < len(s) && isDigit(s[i]); i++ {
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for ; i < len(s) && isDigit(s[i]); i++ {
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for ; i < len(s) && isDigit(s[i]); i++ {
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
