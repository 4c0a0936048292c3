// Package hub fans dashboard updates out to websocket clients.
package hub

import "encoding/json"

// MessageType selects the websocket frame type used for a message
type MessageType int

const (
	// JSONMessage is sent as a text frame (tracking state, logs)
	JSONMessage MessageType = iota
	// BinaryMessage is sent as a binary frame (JPEG previews)
	BinaryMessage
)

// Message is one payload delivered to every client of a hub
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps already encoded JSON
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// EncodeJSON marshals v once so every client shares the same bytes
func EncodeJSON(v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}

// NewBinaryMessage wraps raw bytes
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

// NewFrameMessage wraps a JPEG preview frame.
// An empty frame yields ok=false and nothing should be sent.
func NewFrameMessage(jpeg []byte) (msg Message, ok bool) {
	if len(jpeg) == 0 {
		return Message{}, false
	}
	return NewBinaryMessage(jpeg), true
}
