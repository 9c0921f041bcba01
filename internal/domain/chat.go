package domain

import "time"

type ChatKind string

const (
	ChatGlobal    ChatKind = "global"
	ChatProximity ChatKind = "proximity"
)

// ChatMessage is append-only once persisted; only the translation fields
// are ever rewritten.
type ChatMessage struct {
	MessageID      string    `bson:"messageId" json:"id"`
	Username       string    `bson:"username" json:"username"`
	UserID         UserID    `bson:"userId,omitempty" json:"userId,omitempty"`
	Text           string    `bson:"message" json:"message"`
	Translation    string    `bson:"translation,omitempty" json:"translation,omitempty"`
	Room           RoomName  `bson:"room" json:"room"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
	Kind           ChatKind  `bson:"type" json:"type"`
	NewTranslation bool      `bson:"isNewTranslation" json:"isNewTranslation"`
}
