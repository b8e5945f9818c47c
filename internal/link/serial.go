// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package link

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"
)

// DefaultBaudRate matches the accelerometer controller firmware.
const DefaultBaudRate = 38400

// SerialOptions describe the serial port the controller is attached to.
type SerialOptions struct {
	PortName string // /dev/ttyUSB0, /dev/ttyACM0, COM6, ...
	BaudRate uint
}

// openFunc is swapped in tests.
var openFunc = func(opts serial.OpenOptions) (io.ReadWriteCloser, error) {
	return serial.Open(opts)
}

// Serial is a Link over a serial port. A read error closes the port and
// leaves the link unavailable until Reopen succeeds. Close is final and
// unblocks a pending ReadLine.
type Serial struct {
	opts SerialOptions

	mu     sync.Mutex
	port   io.ReadWriteCloser
	reader *bufio.Reader
	closed bool
}

// OpenSerial opens the port described by opts.
func OpenSerial(opts SerialOptions) (*Serial, error) {
	if opts.BaudRate == 0 {
		opts.BaudRate = DefaultBaudRate
	}
	s := &Serial{opts: opts}
	if err := s.Reopen(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reopen opens the port if it is not open already.
func (s *Serial) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("serial port %s: %w", s.opts.PortName, ErrUnavailable)
	}
	if s.port != nil {
		return nil
	}

	serialOpts := serial.OpenOptions{
		PortName:              s.opts.PortName,
		BaudRate:              s.opts.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := openFunc(serialOpts)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.opts.PortName, err)
	}
	s.port = port
	s.reader = bufio.NewReader(port)
	log.Printf("link: serial port opened on %s at %d baud", s.opts.PortName, s.opts.BaudRate)
	return nil
}

func (s *Serial) IsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil
}

// ReadLine blocks until a full line arrives. The lock is not held while
// reading so that Close can interrupt it.
func (s *Serial) ReadLine() (string, error) {
	s.mu.Lock()
	port, reader := s.port, s.reader
	s.mu.Unlock()
	if port == nil {
		return "", ErrUnavailable
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		s.mu.Lock()
		s.closePortLocked(port)
		s.mu.Unlock()
		return "", fmt.Errorf("read serial port %s: %w", s.opts.PortName, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closePortLocked(s.port)
}

// closePortLocked closes port if it is still the current one.
func (s *Serial) closePortLocked(port io.ReadWriteCloser) error {
	if port == nil || s.port != port {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.reader = nil
	return err
}
