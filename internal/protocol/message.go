package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Kind identifies the semantic payload of a Message.
type Kind string

const (
	KindJoin      Kind = "join"
	KindLeave     Kind = "leave"
	KindBroadcast Kind = "broadcast"
	KindPrivate   Kind = "private"
	KindUserList  Kind = "userlist"
	KindSystem    Kind = "system"
)

// ErrMalformed marks lines that are not valid messages: broken JSON or a
// known kind missing one of its required fields.
var ErrMalformed = errors.New("malformed message")

var validate = validator.New()

// Message is the wire envelope. One envelope per line, JSON encoded, UTF-8,
// newline delimited. Ts is unix seconds.
type Message struct {
	Kind  Kind     `json:"kind"`
	From  string   `json:"from,omitempty"`
	To    string   `json:"to,omitempty"`
	Text  string   `json:"text,omitempty"`
	Ts    int64    `json:"ts,omitempty"`
	Users []string `json:"users,omitempty"`
}

// Known reports whether the kind is one this server understands. Unknown
// kinds still decode so newer clients don't break the connection.
func (m Message) Known() bool {
	switch m.Kind {
	case KindJoin, KindLeave, KindBroadcast, KindPrivate, KindUserList, KindSystem:
		return true
	}
	return false
}

// Encode renders m as a single JSON line without the trailing newline.
// JSON string escaping guarantees the output carries no raw line terminators.
func Encode(m Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return b, nil
}

// Decode parses one line into a Message. Decoding is pure; the handler
// decides what to do with the result.
func Decode(line []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(line, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch m.Kind {
	case KindJoin:
		if err := validate.Var(m.From, "required"); err != nil {
			return Message{}, fmt.Errorf("%w: join without from", ErrMalformed)
		}
	case KindPrivate:
		if err := validate.Var(m.To, "required"); err != nil {
			return Message{}, fmt.Errorf("%w: private without to", ErrMalformed)
		}
	}
	return m, nil
}
