package accel

import (
	"strconv"
	"strings"
)

// DefaultDelimiter separates the x, y and z fields of a frame.
const DefaultDelimiter = ","

// Reading represents a single 3-axis accelerometer sample.
// Values are fractions of standard gravity; the range is not enforced.
type Reading struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FrameDecoder turns one line received from the sensor link into a Reading.
type FrameDecoder interface {
	Decode(line string) (Reading, error)
}

// Format renders r as a frame using delim between the fields.
// The shortest round-trip representation is used so that decoding the
// result yields the same values.
func (r Reading) Format(delim string) string {
	if delim == "" {
		delim = DefaultDelimiter
	}
	fields := []string{
		strconv.FormatFloat(r.X, 'g', -1, 64),
		strconv.FormatFloat(r.Y, 'g', -1, 64),
		strconv.FormatFloat(r.Z, 'g', -1, 64),
	}
	return strings.Join(fields, delim)
}

func (r Reading) String() string {
	return r.Format(DefaultDelimiter)
}
