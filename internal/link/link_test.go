package link

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/plane_tilt/internal/accel"
)

func TestReaderLink_ReplaysLines(t *testing.T) {
	l := NewReader(strings.NewReader("0.1,0.2,0.3\r\n0.4,0.5,0.6\n0.7,0.8,0.9"))
	want := []string{"0.1,0.2,0.3", "0.4,0.5,0.6", "0.7,0.8,0.9"}
	for i, w := range want {
		if !l.IsAvailable() {
			t.Fatalf("line %d: link unavailable", i)
		}
		got, err := l.ReadLine()
		if err != nil {
			t.Fatalf("line %d: ReadLine() error: %v", i, err)
		}
		if got != w {
			t.Fatalf("line %d: got %q want %q", i, got, w)
		}
	}
	if l.IsAvailable() {
		t.Fatalf("expected unavailable after EOF")
	}
	if _, err := l.ReadLine(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
}

func TestReaderLink_TrailingNewlineReportsEOFOnce(t *testing.T) {
	l := NewReader(strings.NewReader("0.1,0.2,0.3\n"))
	if _, err := l.ReadLine(); err != nil {
		t.Fatalf("ReadLine() error: %v", err)
	}
	if _, err := l.ReadLine(); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v want io.EOF", err)
	}
	if l.IsAvailable() {
		t.Fatalf("expected unavailable")
	}
}

type closeCounter struct {
	io.Reader
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return nil
}

func TestReaderLink_CloseIdempotent(t *testing.T) {
	src := &closeCounter{Reader: strings.NewReader("1,2,3\n")}
	l := NewReader(src)
	for i := 0; i < 3; i++ {
		if err := l.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}
	}
	if src.closes != 1 {
		t.Fatalf("closes=%d want 1", src.closes)
	}
	if l.IsAvailable() {
		t.Fatalf("expected unavailable after Close")
	}
}

func TestMockLink_FramesDecode(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	plain := NewMock(clock, FramingPlain)
	nmeaLink := NewMock(clock, FramingNMEA)
	for i := 0; i < 20; i++ {
		now = now.Add(250 * time.Millisecond)
		line, err := plain.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine() error: %v", err)
		}
		r, err := accel.NewDecoder(",").Decode(line)
		if err != nil {
			t.Fatalf("Decode(%q) error: %v", line, err)
		}
		if r.X < -0.3 || r.X > 0.3 || r.Y < -0.25 || r.Y > 0.25 {
			t.Fatalf("reading out of mock envelope: %+v", r)
		}

		line, err = nmeaLink.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine() error: %v", err)
		}
		if _, err := accel.NewNMEADecoder().Decode(line); err != nil {
			t.Fatalf("Decode(%q) error: %v", line, err)
		}
	}
}

func TestMockLink_Close(t *testing.T) {
	l := NewMock(nil, FramingPlain)
	if !l.IsAvailable() {
		t.Fatalf("expected available")
	}
	_ = l.Close()
	_ = l.Close()
	if l.IsAvailable() {
		t.Fatalf("expected unavailable after Close")
	}
	if _, err := l.ReadLine(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
}

// fakePort is an in-memory serial port.
type fakePort struct {
	mu     sync.Mutex
	buf    *bytes.Buffer
	closed bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return p.buf.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) { return len(b), nil }

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func withFakePorts(t *testing.T, ports ...*fakePort) *[]serial.OpenOptions {
	t.Helper()
	var opened []serial.OpenOptions
	prev := openFunc
	openFunc = func(opts serial.OpenOptions) (io.ReadWriteCloser, error) {
		if len(ports) == 0 {
			return nil, errors.New("no such device")
		}
		p := ports[0]
		ports = ports[1:]
		opened = append(opened, opts)
		return p, nil
	}
	t.Cleanup(func() { openFunc = prev })
	return &opened
}

func TestSerial_ReadErrorMakesUnavailableThenReopen(t *testing.T) {
	first := &fakePort{buf: bytes.NewBufferString("0.1,0.2,0.3\r\n")}
	second := &fakePort{buf: bytes.NewBufferString("0.4,0.5,0.6\n")}
	opened := withFakePorts(t, first, second)

	s, err := OpenSerial(SerialOptions{PortName: "/dev/ttyUSB0"})
	if err != nil {
		t.Fatalf("OpenSerial() error: %v", err)
	}
	if (*opened)[0].BaudRate != DefaultBaudRate || (*opened)[0].DataBits != 8 || (*opened)[0].StopBits != 1 {
		t.Fatalf("unexpected open options: %+v", (*opened)[0])
	}

	line, err := s.ReadLine()
	if err != nil || line != "0.1,0.2,0.3" {
		t.Fatalf("ReadLine()=%q,%v", line, err)
	}
	// buffer drained: EOF closes the port
	if _, err := s.ReadLine(); err == nil {
		t.Fatalf("expected read error")
	}
	if s.IsAvailable() {
		t.Fatalf("expected unavailable after read error")
	}
	if !first.closed {
		t.Fatalf("expected first port closed")
	}
	if _, err := s.ReadLine(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}

	if err := s.Reopen(); err != nil {
		t.Fatalf("Reopen() error: %v", err)
	}
	line, err = s.ReadLine()
	if err != nil || line != "0.4,0.5,0.6" {
		t.Fatalf("ReadLine()=%q,%v", line, err)
	}
}

func TestSerial_OpenFailure(t *testing.T) {
	withFakePorts(t)
	if _, err := OpenSerial(SerialOptions{PortName: "/dev/missing", BaudRate: 9600}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSerial_CloseIdempotent(t *testing.T) {
	p := &fakePort{buf: bytes.NewBufferString("")}
	withFakePorts(t, p)
	s, err := OpenSerial(SerialOptions{PortName: "/dev/ttyUSB0"})
	if err != nil {
		t.Fatalf("OpenSerial() error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}
	}
	if s.IsAvailable() {
		t.Fatalf("expected unavailable")
	}
}

// silentPort never delivers data; Read blocks until Close.
type silentPort struct {
	reading chan struct{}
	closed  chan struct{}
	once    sync.Once
}

func newSilentPort() *silentPort {
	return &silentPort{reading: make(chan struct{}, 1), closed: make(chan struct{})}
}

func (p *silentPort) Read(b []byte) (int, error) {
	select {
	case p.reading <- struct{}{}:
	default:
	}
	<-p.closed
	return 0, io.ErrClosedPipe
}

func (p *silentPort) Write(b []byte) (int, error) { return len(b), nil }

func (p *silentPort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func TestSerial_CloseUnblocksReadLine(t *testing.T) {
	p := newSilentPort()
	withFakePorts(t)
	openFunc = func(serial.OpenOptions) (io.ReadWriteCloser, error) { return p, nil }

	s, err := OpenSerial(SerialOptions{PortName: "/dev/ttyUSB0"})
	if err != nil {
		t.Fatalf("OpenSerial() error: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := s.ReadLine()
		errc <- err
	}()
	<-p.reading

	// the pending read must not hold the link lock
	if !s.IsAvailable() {
		t.Fatalf("expected available while a read is pending")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	select {
	case err := <-errc:
		if err == nil {
			t.Fatalf("expected read error after Close")
		}
	case <-time.After(time.Second):
		t.Fatalf("ReadLine still blocked after Close")
	}
	if err := s.Reopen(); err == nil {
		t.Fatalf("expected Reopen to fail after Close")
	}
}

func TestReaderLink_CloseUnblocksReadLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	l := NewReader(pr)

	errc := make(chan error, 1)
	go func() {
		_, err := l.ReadLine()
		errc <- err
	}()
	// give the reader time to block on the pipe
	time.Sleep(20 * time.Millisecond)
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	select {
	case err := <-errc:
		if err == nil {
			t.Fatalf("expected read error after Close")
		}
	case <-time.After(time.Second):
		t.Fatalf("ReadLine still blocked after Close")
	}
	if l.IsAvailable() {
		t.Fatalf("expected unavailable after Close")
	}
}
