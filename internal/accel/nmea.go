package accel

import (
	"errors"
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// SentenceType is the proprietary NMEA sentence carrying an accelerometer
// frame: $PADXL,<x>,<y>,<z>*hh
const SentenceType = "ADXL"

// Frame is a decoded $PADXL sentence.
type Frame struct {
	nmea.BaseSentence
	Reading Reading
}

// NMEADecoder parses checksummed $PADXL sentences. Envelope and checksum
// errors are reported as ErrMalformedFrame; the fields follow the same rules
// as the plain Decoder.
type NMEADecoder struct {
	parser nmea.SentenceParser
}

func NewNMEADecoder() *NMEADecoder {
	return &NMEADecoder{
		parser: nmea.SentenceParser{
			CustomParsers: map[string]nmea.ParserFunc{
				SentenceType: parseADXL,
			},
		},
	}
}

func parseADXL(s nmea.BaseSentence) (nmea.Sentence, error) {
	if len(s.Fields) != frameFields {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedFrame, len(s.Fields), frameFields)
	}
	r, err := parseFields(s.Fields)
	if err != nil {
		return nil, err
	}
	return Frame{BaseSentence: s, Reading: r}, nil
}

func (d *NMEADecoder) Decode(line string) (Reading, error) {
	sentence, err := d.parser.Parse(strings.TrimSpace(line))
	if err != nil {
		var fieldErr *InvalidFieldError
		if errors.Is(err, ErrMalformedFrame) || errors.As(err, &fieldErr) {
			return Reading{}, err
		}
		return Reading{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	frame, ok := sentence.(Frame)
	if !ok {
		return Reading{}, fmt.Errorf("%w: unexpected sentence %s", ErrMalformedFrame, sentence.DataType())
	}
	return frame.Reading, nil
}

// FormatNMEA renders r as a checksummed $PADXL sentence without line ending.
func FormatNMEA(r Reading) string {
	body := "P" + SentenceType + "," + r.Format(DefaultDelimiter)
	return "$" + body + "*" + nmea.Checksum(body)
}
