package log

import "time"

// Event represents one entry of the communication log.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates which peer the event concerns.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Secure indicates the event occurred on the TLS-protected channel.
	Secure bool `cbor:"5,keyasint,omitempty"`

	// RemoteAddr is the server endpoint ("host:port").
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Command     *CommandEvent     `cbor:"7,keyasint,omitempty"`  // client command line
	Response    *ResponseEvent    `cbor:"8,keyasint,omitempty"`  // server reply
	StateChange *StateChangeEvent `cbor:"9,keyasint,omitempty"`  // connection lifecycle
	Error       *ErrorEventData   `cbor:"10,keyasint,omitempty"` // errors at any stage

	// Note carries free-form annotations, used for the handshake step
	// markers ("<Start TLS negotiation>" and friends).
	Note string `cbor:"11,keyasint,omitempty"`
}

// Direction indicates which peer a log entry concerns. The values match
// the direction tags of the textual communication log: client-sent,
// server-received, or both (handshake steps).
type Direction uint8

const (
	// DirectionClient marks a client-originated entry.
	DirectionClient Direction = 0
	// DirectionServer marks a server-originated entry.
	DirectionServer Direction = 1
	// DirectionBoth marks an entry involving both peers.
	DirectionBoth Direction = 2
)

// String returns the direction tag.
func (d Direction) String() string {
	switch d {
	case DirectionClient:
		return "c"
	case DirectionServer:
		return "s"
	case DirectionBoth:
		return "c & s"
	default:
		return "unknown"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryCommand indicates a command sent by the client.
	CategoryCommand Category = 0
	// CategoryResponse indicates a reply received from the server.
	CategoryResponse Category = 1
	// CategoryHandshake indicates a TLS negotiation step.
	CategoryHandshake Category = 2
	// CategoryState indicates a connection state change.
	CategoryState Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "COMMAND"
	case CategoryResponse:
		return "RESPONSE"
	case CategoryHandshake:
		return "HANDSHAKE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// CommandEvent captures a command line sent to the server.
type CommandEvent struct {
	// Text is the command line, without its CRLF terminator.
	Text string `cbor:"1,keyasint"`
}

// ResponseEvent captures a server reply.
type ResponseEvent struct {
	// Code is the parsed leading status code (0 when unparseable).
	Code int `cbor:"1,keyasint"`

	// Text is the reply text with the trailing terminator stripped.
	Text string `cbor:"2,keyasint"`
}

// StateChangeEvent captures connection lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors at any stage of the conversation.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Code is the channel error code (if applicable).
	Code *int `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
