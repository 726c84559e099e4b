package chat

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/donigna/ChatApp/internal/protocol"
)

// Router delivers messages to the sessions it finds in the registry.
// Delivery is at-most-once and best effort: a dead or slow recipient never
// aborts the rest of a fan-out and never surfaces to the sender.
type Router struct {
	reg    *Registry
	logger *slog.Logger
}

func NewRouter(reg *Registry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{reg: reg, logger: logger}
}

// Broadcast sends msg to every registered session, the sender included, so
// every connected view shows the same transcript.
func (rt *Router) Broadcast(msg protocol.Message) {
	start := time.Now()
	rt.fanOut(msg)
	DeliveryDuration.WithLabelValues(string(protocol.KindBroadcast)).Observe(time.Since(start).Seconds())
}

// Private delivers msg to its recipient only and tells the sender how it
// went: a system confirmation when the recipient is online, a system error
// naming the recipient when not. Nobody else sees anything.
func (rt *Router) Private(sender *Session, msg protocol.Message) {
	start := time.Now()
	defer func() {
		DeliveryDuration.WithLabelValues(string(protocol.KindPrivate)).Observe(time.Since(start).Seconds())
	}()

	target, ok := rt.reg.Lookup(msg.To)
	if !ok {
		rt.logger.Debug("private delivery failed",
			"from", msg.From, "to", msg.To, "error", ErrRecipientOffline)
		rt.system(sender, fmt.Sprintf("user %q not found or offline", msg.To))
		return
	}
	rt.deliver(target, rt.stamp(msg))
	rt.system(sender, fmt.Sprintf("your message to %q was delivered", msg.To))
}

// AnnounceJoin tells everyone a user arrived and refreshes the user list.
func (rt *Router) AnnounceJoin(name string) {
	rt.fanOut(protocol.Message{Kind: protocol.KindSystem, Text: name + " joined"})
	rt.broadcastUserList()
}

// AnnounceLeave tells everyone a user left and refreshes the user list.
func (rt *Router) AnnounceLeave(name string) {
	rt.fanOut(protocol.Message{Kind: protocol.KindSystem, Text: name + " left"})
	rt.broadcastUserList()
}

func (rt *Router) broadcastUserList() {
	rt.fanOut(protocol.Message{Kind: protocol.KindUserList, Users: rt.reg.Usernames()})
}

// system sends a server-authored notice to one session only. The session
// does not need to be registered, which covers registration refusals.
func (rt *Router) system(s *Session, text string) {
	rt.deliver(s, rt.stamp(protocol.Message{Kind: protocol.KindSystem, Text: text}))
}

func (rt *Router) fanOut(msg protocol.Message) {
	line, err := protocol.Encode(rt.stamp(msg))
	if err != nil {
		rt.logger.Error("encode failed", "kind", msg.Kind, "error", err)
		return
	}
	for _, s := range rt.reg.Sessions() {
		s.send(line)
	}
}

func (rt *Router) deliver(s *Session, msg protocol.Message) {
	line, err := protocol.Encode(msg)
	if err != nil {
		rt.logger.Error("encode failed", "kind", msg.Kind, "error", err)
		return
	}
	s.send(line)
}

// stamp fills ts on messages the server authors or a client left unstamped.
func (rt *Router) stamp(msg protocol.Message) protocol.Message {
	if msg.Ts == 0 {
		msg.Ts = time.Now().Unix()
	}
	return msg
}
