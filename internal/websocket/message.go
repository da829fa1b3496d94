package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// Actions understood from clients and sent back to them.
const (
	ActionPing  = "ping"
	ActionPong  = "pong"
	ActionError = "error"
)

// NewMessage encodes a message ready to be queued on a client.
func NewMessage(action string, payload interface{}) []byte {
	data, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		return NewErrorMessage("failed to encode message")
	}
	return data
}

// NewErrorMessage creates an error message for a single client.
func NewErrorMessage(text string) []byte {
	data, _ := json.Marshal(Message{Action: ActionError, Payload: map[string]string{"message": text}})
	return data
}
