package ports

import (
	"context"

	"github.com/veyrune/capprobe/internal/domain"
)

// MountDetector scans the game client for mount names. A failed scan is an
// error; the probe layer decides whether to degrade.
type MountDetector interface {
	DetectMounts(ctx context.Context) ([]string, error)
}

// MountManager performs real in-game mount actions. BestMount returning an
// empty name with a nil error means "confirmed: no best mount"; an error
// means the question went unanswered.
type MountManager interface {
	BestMount(ctx context.Context) (string, error)
	Mount(ctx context.Context, name string) error
	Dismount(ctx context.Context) error
}

type UIInspector interface {
	InspectUI(ctx context.Context) (domain.UIFacts, error)
}

type SkillSource interface {
	LearnedSkills(ctx context.Context) ([]string, error)
}

type InventorySource interface {
	Essentials(ctx context.Context) (map[string]int, error)
}
