package link

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
)

// readerLink replays frames from an io.Reader, e.g. a recorded session.
// Reads happen outside the lock so that Close can interrupt a read blocked
// on a pipe or FIFO.
type readerLink struct {
	mu     sync.Mutex
	src    io.Reader
	reader *bufio.Reader
	done   bool
}

// NewReader returns a link reading lines from r. It becomes unavailable
// once r is exhausted. If r is an io.Closer it is closed by Close.
func NewReader(r io.Reader) Link {
	return &readerLink{src: r, reader: bufio.NewReader(r)}
}

func (l *readerLink) IsAvailable() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.done
}

func (l *readerLink) ReadLine() (string, error) {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done {
		return "", ErrUnavailable
	}

	line, err := l.reader.ReadString('\n')
	if err != nil {
		l.mu.Lock()
		l.done = true
		l.mu.Unlock()
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		// last line without a newline is still a frame
		if line == "" {
			return "", io.EOF
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (l *readerLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done && l.src == nil {
		return nil
	}
	l.done = true
	src := l.src
	l.src = nil
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
