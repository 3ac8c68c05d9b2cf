package pkg

type EventType string

const (
	EventTypeJoin         EventType = "join"
	EventTypeSignal       EventType = "signal"
	EventTypeIceCandidate EventType = "ice-candidate"
	EventTypeCodeChange   EventType = "code-change"
	EventTypeUserJoined   EventType = "user-joined"
	EventTypeUserLeft     EventType = "user-left"
)
