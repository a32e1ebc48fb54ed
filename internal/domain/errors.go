package domain

import "errors"

var (
	ErrSnapshotNotFound = errors.New("capability snapshot not found")
	ErrSnapshotCorrupt  = errors.New("capability snapshot corrupt")
	ErrNoCharacter      = errors.New("no character configured")
	ErrUnknownCategory  = errors.New("unknown capability category")
)
