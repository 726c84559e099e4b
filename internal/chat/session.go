package chat

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one accepted connection and its outbound write path. Only the
// writer goroutine touches the socket's write side; everything else goes
// through send.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time

	conn      net.Conn
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn net.Conn, buffer int) *Session {
	if buffer <= 0 {
		buffer = 64
	}
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		conn:      conn,
		out:       make(chan []byte, buffer),
		done:      make(chan struct{}),
	}
}

// startWriter owns the write side of the connection. It exits when out is
// closed and drained, or on the first write error.
func (s *Session) startWriter() {
	go func() {
		defer close(s.done)
		w := bufio.NewWriter(s.conn)
		for line := range s.out {
			if _, err := w.Write(line); err != nil {
				return
			}
			if err := w.WriteByte('\n'); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}()
}

// send queues one encoded line, best effort. A full buffer means the peer is
// slow or gone: the line is dropped so the caller never blocks. A send racing
// with teardown counts as a failed write and is swallowed the same way.
func (s *Session) send(line []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case s.out <- line:
		return true
	default:
		DroppedWrites.Inc()
		return false
	}
}

// Close is idempotent and safe from any code path. It lets the writer drain
// queued lines briefly before tearing the socket down.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.out)
		select {
		case <-s.done:
		case <-time.After(2 * time.Second):
		}
		_ = s.conn.Close()
	})
}
