// Package greeter contains the core domain types for the timely greeter bot.
package greeter

// NoMessage is the text assigned to inbound messages that carry no text.
const NoMessage = "[no message]"

// StopCommand unsubscribes the sender.
const StopCommand = "/stop"

// Update is a single inbound event from the messaging API.
type Update struct {
	Message *Message // Nil for events that are not messages (edits, callbacks, ...)
	ID      int64    // Monotonic update id assigned by the API
}

// Message is an inbound chat message.
type Message struct {
	Payload  Payload
	Username string // Sender username, informational only
	ChatID   int64  // Conversation the message came from; doubles as subscriber id
}

// Payload is the content of a message: either Text or Other.
type Payload interface {
	isPayload()
}

// Text is a plain text payload.
type Text string

func (Text) isPayload() {}

// Other is any non-text payload (stickers, photos, ...).
type Other struct {
	Kind string // e.g. "sticker"; empty when the kind is unknown
}

func (Other) isPayload() {}

// Text returns the message text, or NoMessage when the payload is not text.
func (m *Message) Text() string {
	if t, ok := m.Payload.(Text); ok {
		return string(t)
	}
	return NoMessage
}
