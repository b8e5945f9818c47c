// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package link

import (
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/plane_tilt/internal/accel"
)

// Framing selects how frames are rendered on the wire.
type Framing string

const (
	FramingPlain Framing = "plain"
	FramingNMEA  Framing = "nmea"
)

type mockLink struct {
	mu      sync.Mutex
	start   time.Time
	now     func() time.Time
	framing Framing
	closed  bool
}

// NewMock creates a link that generates smoothly changing tilt frames,
// gently pitching and rolling like a hand-held controller.
// now may be nil, in which case time.Now is used.
func NewMock(now func() time.Time, framing Framing) Link {
	if now == nil {
		now = time.Now
	}
	return &mockLink{start: now(), now: now, framing: framing}
}

// MockReading returns the synthetic reading at elapsed seconds.
func MockReading(elapsed float64) accel.Reading {
	x := 0.3 * math.Sin(elapsed*0.7)
	y := 0.25 * math.Sin(elapsed*0.4)
	z := math.Sqrt(math.Max(0, 1-x*x-y*y))
	return accel.Reading{X: x, Y: y, Z: z}
}

func (m *mockLink) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

func (m *mockLink) ReadLine() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrUnavailable
	}
	r := MockReading(m.now().Sub(m.start).Seconds())
	if m.framing == FramingNMEA {
		return accel.FormatNMEA(r), nil
	}
	return r.Format(accel.DefaultDelimiter), nil
}

func (m *mockLink) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
