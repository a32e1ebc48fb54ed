package application

import (
	"context"
	"time"

	"github.com/veyrune/capprobe/internal/domain"
	"github.com/veyrune/capprobe/internal/ports"
)

// CharacterStatus is the read model the status renderer consumes.
type CharacterStatus struct {
	Character    domain.CharacterName
	Capabilities domain.Capabilities
}

// Status snapshots the live aggregate for display.
func (s *ProbeService) Status() CharacterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return CharacterStatus{
		Character:    s.character,
		Capabilities: s.caps.Clone(),
	}
}

// LoadCharacterStatus reads a character's snapshot straight from disk without
// touching the live aggregate. A corrupt snapshot comes back empty together
// with the error, so callers can warn and still render.
func LoadCharacterStatus(ctx context.Context, repo ports.SnapshotRepository, character domain.CharacterName) (CharacterStatus, error) {
	caps, err := repo.Load(ctx, character)

	return CharacterStatus{Character: character, Capabilities: caps}, err
}

// CharacterOverview is one roster row.
type CharacterOverview struct {
	Character      domain.CharacterName
	Path           string
	UpdatedAt      time.Time
	SizeBytes      int64
	VerifiedMounts int
	DetectedMounts int
	Stale          bool
}
