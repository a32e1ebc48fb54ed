package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veyrune/capprobe/internal/domain"
	"github.com/veyrune/capprobe/internal/ports"
)

// RosterService builds overviews of every character with a snapshot on disk.
type RosterService struct {
	repo  ports.SnapshotRepository
	clock ports.Clock
	ttl   time.Duration
}

func NewRosterService(repo ports.SnapshotRepository, clock ports.Clock, ttl time.Duration) *RosterService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RosterService{repo: repo, clock: clock, ttl: ttl}
}

// List loads every snapshot concurrently and assembles the roster. A corrupt
// snapshot still yields a row; its counts are simply empty.
func (s *RosterService) List(ctx context.Context) ([]CharacterOverview, error) {
	refs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	overviews := make([]CharacterOverview, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			caps, err := s.repo.Load(gctx, ref.Character)
			if err != nil && !errors.Is(err, domain.ErrSnapshotCorrupt) {
				return err
			}
			overviews[i] = s.overview(ref, caps)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return overviews, nil
}

// Get returns one character's overview, or domain.ErrSnapshotNotFound when no
// snapshot file exists for it.
func (s *RosterService) Get(ctx context.Context, character domain.CharacterName) (CharacterOverview, error) {
	overviews, err := s.List(ctx)
	if err != nil {
		return CharacterOverview{}, err
	}

	for _, overview := range overviews {
		if overview.Character == character {
			return overview, nil
		}
	}

	return CharacterOverview{}, fmt.Errorf("character %q: %w", string(character), domain.ErrSnapshotNotFound)
}

func (s *RosterService) overview(ref domain.SnapshotRef, caps domain.Capabilities) CharacterOverview {
	now := s.clock.Now()
	stale := caps.Mounts.Stale(now, s.ttl) &&
		caps.UI.Stale(now, s.ttl) &&
		caps.Skills.Stale(now, s.ttl) &&
		caps.Inventory.Stale(now, s.ttl)

	return CharacterOverview{
		Character:      ref.Character,
		Path:           ref.Path,
		UpdatedAt:      ref.UpdatedAt,
		SizeBytes:      ref.SizeBytes,
		VerifiedMounts: len(caps.Mounts.LearnedVerified),
		DetectedMounts: len(caps.Mounts.DetectedUnverified),
		Stale:          stale,
	}
}
