package chat

type errorString string

func (e errorString) Error() string { return string(e) }

var (
	ErrNameInvalid      = errorString("username_invalid")
	ErrNameTaken        = errorString("username_taken")
	ErrNotJoinMessage   = errorString("not_a_join_message")
	ErrRecipientOffline = errorString("recipient_offline")
)
