package dto

import "notes-stream-be/internal/entity"

const (
	EventTypeUnknown = "unknown"
	EventTypeCreated = "created"
	EventTypeUpdated = "updated"
	EventTypeDeleted = "deleted"
)

// NoteEventResponse is the wire shape of one change event on a watch stream.
type NoteEventResponse struct {
	EventType string        `json:"eventType"`
	Note      *NoteResponse `json:"note"`
	Timestamp int64         `json:"timestamp"`
}

func NewNoteEventResponse(event entity.ChangeEvent) NoteEventResponse {
	eventType := EventTypeUnknown
	switch event.Kind {
	case entity.ChangeCreated:
		eventType = EventTypeCreated
	case entity.ChangeUpdated:
		eventType = EventTypeUpdated
	case entity.ChangeDeleted:
		eventType = EventTypeDeleted
	}

	return NoteEventResponse{
		EventType: eventType,
		Note:      NewNoteResponse(&event.Note),
		Timestamp: event.OccurredAt.UnixMilli(),
	}
}
