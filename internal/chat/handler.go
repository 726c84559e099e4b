package chat

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/donigna/ChatApp/internal/protocol"
)

var validate = validator.New()

// Handler drives one connection through its lifetime: registration gate,
// read loop, teardown. One goroutine per connection; the registry is the
// only state shared with the others.
type Handler struct {
	reg    *Registry
	router *Router
	cfg    Config
	logger *slog.Logger
}

func NewHandler(reg *Registry, router *Router, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{reg: reg, router: router, cfg: cfg.withDefaults(), logger: logger}
}

// Handle runs until the connection closes.
func (h *Handler) Handle(conn net.Conn) {
	s := newSession(conn, h.cfg.OutboundBuffer)
	s.startWriter()
	defer s.Close()

	reader := bufio.NewReader(conn)

	name, err := h.awaitRegistration(s, reader)
	if err != nil {
		h.logger.Info("registration refused",
			"addr", conn.RemoteAddr().String(), "reason", err)
		return
	}

	h.logger.Info("user joined",
		"username", name, "session", s.ID, "addr", conn.RemoteAddr().String())
	h.router.AnnounceJoin(name)

	h.readLoop(s, reader)

	// Unregister is the single gate: only the call that actually removed
	// the entry announces the departure, so leave fires exactly once.
	if h.reg.Unregister(name) {
		h.logger.Info("user left", "username", name, "session", s.ID)
		h.router.AnnounceLeave(name)
	}
}

// awaitRegistration reads exactly one line and either registers the session
// or refuses it with a system notice. A refused connection never becomes
// visible to other sessions.
func (h *Handler) awaitRegistration(s *Session, reader *bufio.Reader) (string, error) {
	line, err := readLine(reader)
	if err != nil {
		return "", fmt.Errorf("read join: %w", err)
	}

	msg, err := protocol.Decode(line)
	if err != nil {
		h.router.system(s, "expected a join message")
		return "", err
	}
	if msg.Kind != protocol.KindJoin {
		h.router.system(s, "expected a join message")
		return "", ErrNotJoinMessage
	}

	name := strings.TrimSpace(msg.From)
	rules := fmt.Sprintf("required,max=%d,excludesall=0x20", h.cfg.MaxUsernameLen)
	if err := validate.Var(name, rules); err != nil {
		h.router.system(s, "invalid username")
		return "", ErrNameInvalid
	}
	if !h.reg.Register(name, s) {
		h.router.system(s, fmt.Sprintf("username %q is already taken", name))
		return "", ErrNameTaken
	}
	s.Username = name
	return name, nil
}

// readLoop decodes each inbound line and dispatches it. It returns on
// end-of-stream or any read fault; both mean disconnect.
func (h *Handler) readLoop(s *Session, reader *bufio.Reader) {
	for {
		line, err := readLine(reader)
		if err != nil {
			return
		}
		if len(line) == 0 {
			continue
		}

		msg, err := protocol.Decode(line)
		if err != nil {
			h.router.system(s, "malformed message")
			continue
		}

		kind := string(msg.Kind)
		if !msg.Known() {
			kind = "unknown"
		}
		InboundMessages.WithLabelValues(kind).Inc()

		// A client may never speak as another user.
		if msg.From != "" && msg.From != s.Username {
			continue
		}
		msg.From = s.Username
		if len(msg.Text) > h.cfg.MaxTextLen {
			msg.Text = msg.Text[:h.cfg.MaxTextLen]
		}

		switch msg.Kind {
		case protocol.KindBroadcast:
			h.router.Broadcast(msg)
		case protocol.KindPrivate:
			h.router.Private(s, msg)
		default:
			// Everything else is server-authored or unknown; ignore.
		}
	}
}

func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadString('\n')
	if err == nil {
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}
	if err == io.EOF && line != "" {
		// last line without newline
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}
	if err == io.EOF {
		return nil, io.EOF
	}
	return nil, fmt.Errorf("read: %w", err)
}
