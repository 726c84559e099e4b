package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/donigna/ChatApp/internal/protocol"
)

// testSession builds a registered session whose outbound lines are read
// straight off the channel; no writer goroutine involved.
func testSession(t *testing.T, r *Registry, name string) *Session {
	t.Helper()
	s := newSession(nil, 64)
	s.Username = name
	require.True(t, r.Register(name, s), "register %q", name)
	return s
}

func waitForKind(t *testing.T, s *Session, kind protocol.Kind) protocol.Message {
	t.Helper()
	deadline := time.NewTimer(time.Second)
	defer deadline.Stop()
	for {
		select {
		case line := <-s.out:
			m, err := protocol.Decode(line)
			require.NoError(t, err)
			if m.Kind == kind {
				return m
			}
			// skip other kinds (system notices, user lists, ...)
		case <-deadline.C:
			t.Fatalf("timeout waiting for kind %q on %s", kind, s.Username)
		}
	}
}

func requireSilent(t *testing.T, s *Session) {
	t.Helper()
	select {
	case line := <-s.out:
		t.Fatalf("%s unexpectedly received %s", s.Username, line)
	default:
	}
}

func TestRouter_BroadcastEchoesToAllIncludingSender(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	rt := NewRouter(reg, nil)

	ana := testSession(t, reg, "ana")
	bob := testSession(t, reg, "bob")
	cyn := testSession(t, reg, "cyn")

	rt.Broadcast(protocol.Message{Kind: protocol.KindBroadcast, From: "ana", Text: "hi"})

	for _, s := range []*Session{ana, bob, cyn} {
		m := waitForKind(t, s, protocol.KindBroadcast)
		req.Equal("ana", m.From)
		req.Equal("hi", m.Text)
		req.NotZero(m.Ts)
	}
}

func TestRouter_PrivateReachesOnlyRecipientPlusConfirmation(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	rt := NewRouter(reg, nil)

	ana := testSession(t, reg, "ana")
	bob := testSession(t, reg, "bob")
	cyn := testSession(t, reg, "cyn")

	rt.Private(ana, protocol.Message{Kind: protocol.KindPrivate, From: "ana", To: "bob", Text: "psst"})

	m := waitForKind(t, bob, protocol.KindPrivate)
	req.Equal("ana", m.From)
	req.Equal("bob", m.To)
	req.Equal("psst", m.Text)

	confirm := waitForKind(t, ana, protocol.KindSystem)
	req.Contains(confirm.Text, `"bob"`)

	requireSilent(t, cyn)
}

func TestRouter_PrivateToOfflineRecipient(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	rt := NewRouter(reg, nil)

	ana := testSession(t, reg, "ana")
	bob := testSession(t, reg, "bob")

	rt.Private(ana, protocol.Message{Kind: protocol.KindPrivate, From: "ana", To: "ghost", Text: "hello?"})

	errMsg := waitForKind(t, ana, protocol.KindSystem)
	req.Contains(errMsg.Text, `"ghost"`)

	requireSilent(t, bob)
}

func TestRouter_AnnouncementsRefreshUserList(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	rt := NewRouter(reg, nil)

	names := []string{"ana", "bob", "cyn", "dee", "eli"}
	sessions := make([]*Session, 0, len(names))
	for _, n := range names {
		sessions = append(sessions, testSession(t, reg, n))
	}

	reg.Unregister("dee")
	rt.AnnounceLeave("dee")
	reg.Unregister("eli")
	rt.AnnounceLeave("eli")

	for _, s := range sessions[:3] {
		// skip the first list, the second reflects both departures
		waitForKind(t, s, protocol.KindUserList)
		m := waitForKind(t, s, protocol.KindUserList)
		req.Equal([]string{"ana", "bob", "cyn"}, m.Users)
	}
}

func TestRouter_JoinAnnouncement(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	rt := NewRouter(reg, nil)

	ana := testSession(t, reg, "ana")
	rt.AnnounceJoin("ana")

	notice := waitForKind(t, ana, protocol.KindSystem)
	req.Contains(notice.Text, "ana joined")
	req.Empty(notice.From)

	list := waitForKind(t, ana, protocol.KindUserList)
	req.Equal([]string{"ana"}, list.Users)
}

func TestRouter_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	reg := NewRegistry()
	rt := NewRouter(reg, nil)

	slow := newSession(nil, 1)
	slow.Username = "slow"
	require.True(t, reg.Register("slow", slow))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			rt.Broadcast(protocol.Message{Kind: protocol.KindBroadcast, From: "slow", Text: "spam"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a full session buffer")
	}
}
