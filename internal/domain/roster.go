package domain

import "time"

// SnapshotRef points at one character's persisted snapshot file.
type SnapshotRef struct {
	Character CharacterName
	Path      string
	UpdatedAt time.Time
	SizeBytes int64
}
