package models

// InputState marks a conversation that is waiting for free-text input.
type InputState string

const (
	StateNone       InputState = ""
	StateEditNote   InputState = "edit_note"
	StateExtendNote InputState = "extend_note"
	StateSetTime    InputState = "set_time"
)

// PendingInput is the persisted FSM record for a conversation: which input
// is expected and the packed callback that opened it.
type PendingInput struct {
	ChatID  int64      `db:"chat_id"`
	UserID  int64      `db:"user_id"`
	State   InputState `db:"state"`
	Payload string     `db:"payload"`
}
