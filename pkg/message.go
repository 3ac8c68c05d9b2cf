package pkg

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrMissingField     = errors.New("missing required field")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Message is one decoded inbound frame. Pointer and raw fields mark
// presence, so an empty string is still a supplied value.
type Message interface {
	EventType() EventType
	TargetRoom() string
}

type JoinMessage struct {
	RoomID *string `json:"roomId" validate:"required"`
	User   *string `json:"user" validate:"required"`
}

type SignalMessage struct {
	RoomID *string         `json:"roomId" validate:"required"`
	Signal json.RawMessage `json:"signal" validate:"required"`
}

type IceCandidateMessage struct {
	RoomID    *string         `json:"roomId" validate:"required"`
	Candidate json.RawMessage `json:"candidate" validate:"required"`
}

type CodeChangeMessage struct {
	RoomID *string `json:"roomId" validate:"required"`
	Code   *string `json:"code" validate:"required"`
}

func (*JoinMessage) EventType() EventType         { return EventTypeJoin }
func (*SignalMessage) EventType() EventType       { return EventTypeSignal }
func (*IceCandidateMessage) EventType() EventType { return EventTypeIceCandidate }
func (*CodeChangeMessage) EventType() EventType   { return EventTypeCodeChange }

func (m *JoinMessage) TargetRoom() string         { return *m.RoomID }
func (m *SignalMessage) TargetRoom() string       { return *m.RoomID }
func (m *IceCandidateMessage) TargetRoom() string { return *m.RoomID }
func (m *CodeChangeMessage) TargetRoom() string   { return *m.RoomID }

// Event is an outbound frame. Only the field matching Type is set.
type Event struct {
	Type      EventType       `json:"type"`
	User      *string         `json:"user,omitempty"`
	Signal    json.RawMessage `json:"signal,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Code      *string         `json:"code,omitempty"`
}

type envelope struct {
	Type EventType `json:"type"`
}

// decodeMessage parses a frame into its variant. A frame whose type is
// missing or unknown yields a nil Message and a nil error.
func decodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	var message Message
	switch env.Type {
	case EventTypeJoin:
		message = &JoinMessage{}
	case EventTypeSignal:
		message = &SignalMessage{}
	case EventTypeIceCandidate:
		message = &IceCandidateMessage{}
	case EventTypeCodeChange:
		message = &CodeChangeMessage{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, env.Type, err)
	}

	if err := validate.Struct(message); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingField, env.Type, err)
	}

	return message, nil
}

// outboundEvent builds the frame relayed to the other members of a room.
func outboundEvent(message Message) *Event {
	switch m := message.(type) {
	case *SignalMessage:
		return &Event{Type: EventTypeSignal, Signal: m.Signal}
	case *IceCandidateMessage:
		return &Event{Type: EventTypeIceCandidate, Candidate: m.Candidate}
	case *CodeChangeMessage:
		return &Event{Type: EventTypeCodeChange, Code: m.Code}
	}

	return nil
}

func encodeEvent(event *Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	return data, nil
}
