// Package domain defines the persistence and in-memory models for chat turns,
// together with the error taxonomy shared by the collaborators (completion,
// translation, speech) and the storage layer.
package domain

// ChatTurn is one user message paired with one AI-generated response. Rows are
// append-only: they are created by a successful /chat request and never
// updated or deleted by this service.
//
// The column layout matches the historical chats table exactly so databases
// created by earlier deployments keep working:
//
//	chats(id INTEGER PRIMARY KEY, user_message TEXT, ai_response TEXT)
type ChatTurn struct {
	ID          uint   `json:"id"          gorm:"primaryKey;autoIncrement"`
	UserMessage string `json:"user_message" gorm:"column:user_message;type:text"`
	AIResponse  string `json:"ai_response"  gorm:"column:ai_response;type:text"`
}

// TableName returns the database table name for ChatTurn.
func (ChatTurn) TableName() string { return "chats" }

// Pair returns the turn as the two-element [user_message, ai_response] tuple
// used by the history endpoint.
func (t ChatTurn) Pair() [2]string {
	return [2]string{t.UserMessage, t.AIResponse}
}

// LogEntry is a session log record. It lives only for the lifetime of the
// process.
type LogEntry struct {
	User string `json:"user"`
	AI   string `json:"ai"`
}
