package entity

import "time"

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeEvent describes one committed mutation. Note is the snapshot after
// the mutation, or the last snapshot before removal for deletes.
type ChangeEvent struct {
	Kind       ChangeKind `json:"kind"`
	Note       Note       `json:"note"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func NewChangeEvent(kind ChangeKind, note Note) ChangeEvent {
	return ChangeEvent{
		Kind:       kind,
		Note:       note,
		OccurredAt: time.Now(),
	}
}
