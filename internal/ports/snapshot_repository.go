package ports

import (
	"context"

	"github.com/veyrune/capprobe/internal/domain"
)

// SnapshotRepository persists one capability snapshot per character.
// Load returns an empty aggregate (not an error) when no snapshot exists;
// corrupt snapshots surface as domain.ErrSnapshotCorrupt alongside the
// empty aggregate so callers can decide how loudly to degrade.
type SnapshotRepository interface {
	Load(ctx context.Context, character domain.CharacterName) (domain.Capabilities, error)
	Save(ctx context.Context, character domain.CharacterName, caps domain.Capabilities) error
	List(ctx context.Context) ([]domain.SnapshotRef, error)
}
