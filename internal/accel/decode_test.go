package accel

import (
	"errors"
	"math"
	"testing"
)

func TestDecode_WellFormed(t *testing.T) {
	cases := []struct {
		line string
		want Reading
	}{
		{"0.1,-0.2,0.98", Reading{X: 0.1, Y: -0.2, Z: 0.98}},
		{"0,0,0", Reading{}},
		{"+1,-1,1.5", Reading{X: 1, Y: -1, Z: 1.5}},
		{"1e-3,2.5E1,-0", Reading{X: 0.001, Y: 25, Z: 0}},
		{"-1.75,3,0.25", Reading{X: -1.75, Y: 3, Z: 0.25}},
	}
	d := NewDecoder(",")
	for _, tc := range cases {
		got, err := d.Decode(tc.line)
		if err != nil {
			t.Fatalf("Decode(%q) error: %v", tc.line, err)
		}
		if got != tc.want {
			t.Fatalf("Decode(%q)=%+v want %+v", tc.line, got, tc.want)
		}
	}
}

func TestDecode_FieldWhitespaceTolerated(t *testing.T) {
	d := NewDecoder("")
	got, err := d.Decode(" 0.1 ,\t-0.2, 0.3\r")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got != (Reading{X: 0.1, Y: -0.2, Z: 0.3}) {
		t.Fatalf("got %+v", got)
	}
}

func TestDecode_MalformedFrame(t *testing.T) {
	lines := []string{
		"",
		"   ",
		"0.1",
		"0.1,0.2",
		"0.1,0.2,0.3,0.4",
		"0.1;0.2;0.3",
		",,,",
	}
	d := NewDecoder(",")
	for _, line := range lines {
		_, err := d.Decode(line)
		if !errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("Decode(%q) err=%v want ErrMalformedFrame", line, err)
		}
	}
}

func TestDecode_InvalidFieldIndex(t *testing.T) {
	cases := []struct {
		line  string
		index int
	}{
		{"bad,0.1,0.2", 0},
		{"0.1,bad,0.2", 1},
		{"0.1,0.2,bad", 2},
		{"0.1,,0.2", 1},
		{"0.1,0.2,NaN", 2},
		{"Inf,0.2,0.3", 0},
		{"0.1,0.2.3,0.3", 1},
		{"0x1p-1,0,0", 0},
		{"1_0,0,0", 0},
		{"0,0,1e", 2},
		{"0,+,0", 1},
		{"0,.,0", 1},
		{"0,0,1e999", 2},
	}
	d := NewDecoder(",")
	for _, tc := range cases {
		_, err := d.Decode(tc.line)
		var fe *InvalidFieldError
		if !errors.As(err, &fe) {
			t.Fatalf("Decode(%q) err=%v want InvalidFieldError", tc.line, err)
		}
		if fe.Index != tc.index {
			t.Fatalf("Decode(%q) index=%d want %d", tc.line, fe.Index, tc.index)
		}
		if errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("Decode(%q) should not be a malformed frame", tc.line)
		}
	}
}

func TestDecode_CustomDelimiter(t *testing.T) {
	d := NewDecoder(";")
	got, err := d.Decode("0.5;-0.5;1")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got != (Reading{X: 0.5, Y: -0.5, Z: 1}) {
		t.Fatalf("got %+v", got)
	}
	if _, err := d.Decode("0.5,-0.5,1"); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame for wrong delimiter, got %v", err)
	}
}

func TestDecode_OutOfRangeIsData(t *testing.T) {
	got, err := NewDecoder(",").Decode("3.2,-2.7,16")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got.X != 3.2 || got.Y != -2.7 || got.Z != 16 {
		t.Fatalf("got %+v", got)
	}
}

func TestFormat_DecodeRoundTrip(t *testing.T) {
	readings := []Reading{
		{X: 0.1, Y: 0.2, Z: 0.3},
		{X: -0.37, Y: 0.999999, Z: 1.0000001},
		{X: 1.0 / 3.0, Y: -2.0 / 7.0, Z: math.Pi},
		{X: 1e-9, Y: -123.456, Z: 0},
	}
	for _, delim := range []string{",", ";", "\t"} {
		d := NewDecoder(delim)
		for _, r := range readings {
			got, err := d.Decode(r.Format(delim))
			if err != nil {
				t.Fatalf("Decode(Format(%+v)) error: %v", r, err)
			}
			if math.Abs(got.X-r.X) > 1e-12 || math.Abs(got.Y-r.Y) > 1e-12 || math.Abs(got.Z-r.Z) > 1e-12 {
				t.Fatalf("round trip %+v -> %+v", r, got)
			}
		}
	}
}

func TestReading_String(t *testing.T) {
	r := Reading{X: 0.5, Y: -0.25, Z: 1}
	if got := r.String(); got != "0.5,-0.25,1" {
		t.Fatalf("String()=%q", got)
	}
}
