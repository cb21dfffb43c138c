package engine

import "fmt"

type scopeKind uint8

const (
	scopeGroup scopeKind = iota + 1
	scopePrivate
)

// SessionKey identifies a quiz-run scope: a whole group chat, or a single
// user inside a private chat. It is a comparable value so it can key maps
// directly; construct it via GroupKey or PrivateKey only.
type SessionKey struct {
	kind   scopeKind
	chatID int64
	userID int64
}

// GroupKey scopes a session to a group chat as a whole.
func GroupKey(chatID int64) SessionKey {
	return SessionKey{kind: scopeGroup, chatID: chatID}
}

// PrivateKey scopes a session to one user in a private chat.
func PrivateKey(chatID, userID int64) SessionKey {
	return SessionKey{kind: scopePrivate, chatID: chatID, userID: userID}
}

// ChatID returns the chat the session's messages are sent to.
func (k SessionKey) ChatID() int64 { return k.chatID }

// IsPrivate reports whether the key scopes a private chat.
func (k SessionKey) IsPrivate() bool { return k.kind == scopePrivate }

func (k SessionKey) String() string {
	switch k.kind {
	case scopeGroup:
		return fmt.Sprintf("group:%d", k.chatID)
	case scopePrivate:
		return fmt.Sprintf("private:%d:%d", k.chatID, k.userID)
	default:
		return "invalid"
	}
}
