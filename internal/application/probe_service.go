package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veyrune/capprobe/internal/domain"
	"github.com/veyrune/capprobe/internal/ports"
)

const (
	DefaultTTL          = 5 * time.Minute
	DefaultErrorBackoff = 30 * time.Second
)

// ProbeService owns the in-memory capability aggregate for one character at a
// time and keeps its snapshot file written through. Collaborator failures
// degrade the result and are logged; they never escape a probe (callers that
// need failure signals for pacing use the internal error-returning variants).
type ProbeService struct {
	repo   ports.SnapshotRepository
	chars  ports.CharacterSource
	clock  ports.Clock
	logger *zap.Logger

	detector  ports.MountDetector
	manager   ports.MountManager
	ui        ports.UIInspector
	skills    ports.SkillSource
	inventory ports.InventorySource

	ttl          time.Duration
	errorBackoff time.Duration
	verify       bool

	mu        sync.Mutex
	character domain.CharacterName
	caps      domain.Capabilities

	loopMu  sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// ProbeOptions carries the optional collaborators and tuning knobs. Any nil
// collaborator turns the matching probe into a timestamp-only stub.
type ProbeOptions struct {
	Detector  ports.MountDetector
	Manager   ports.MountManager
	UI        ports.UIInspector
	Skills    ports.SkillSource
	Inventory ports.InventorySource

	TTL          time.Duration
	ErrorBackoff time.Duration
	// Verify makes scheduled mount probes physically try each unverified
	// mount (mount + dismount) before trusting it.
	Verify bool
}

var (
	errNilRepository      = errors.New("snapshot repository is nil")
	errNilCharacterSource = errors.New("character source is nil")
)

func NewProbeService(repo ports.SnapshotRepository, chars ports.CharacterSource, clock ports.Clock, logger *zap.Logger, opts ProbeOptions) (*ProbeService, error) {
	if repo == nil {
		return nil, errNilRepository
	}
	if chars == nil {
		return nil, errNilCharacterSource
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = DefaultErrorBackoff
	}

	s := &ProbeService{
		repo:         repo,
		chars:        chars,
		clock:        clock,
		logger:       logger,
		detector:     opts.Detector,
		manager:      opts.Manager,
		ui:           opts.UI,
		skills:       opts.Skills,
		inventory:    opts.Inventory,
		ttl:          opts.TTL,
		errorBackoff: opts.ErrorBackoff,
		verify:       opts.Verify,
	}

	ctx := context.Background()
	character, err := chars.CurrentCharacter(ctx)
	if err != nil {
		character = domain.DefaultCharacter
	}

	caps, err := repo.Load(ctx, character)
	if err != nil {
		logger.Warn("snapshot load failed, starting empty",
			zap.String("character", string(character)), zap.Error(err))
	}

	s.character = character
	s.caps = caps

	return s, nil
}

// CurrentCharacter reports the character the aggregate currently belongs to.
func (s *ProbeService) CurrentCharacter() domain.CharacterName {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.character
}

// Snapshot returns a deep copy of the live aggregate.
func (s *ProbeService) Snapshot() domain.Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.caps.Clone()
}

func (s *ProbeService) TTL() time.Duration {
	return s.ttl
}

// SetCurrentCharacter switches the active character and hard-resets the
// aggregate from that character's snapshot file. A blank name re-resolves
// through the character source. It fails only on context errors.
func (s *ProbeService) SetCurrentCharacter(ctx context.Context, name domain.CharacterName) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	character := domain.CharacterName(strings.TrimSpace(string(name)))
	if character == "" {
		resolved, err := s.chars.CurrentCharacter(ctx)
		if err != nil {
			if isContextError(err) {
				return err
			}
			resolved = domain.DefaultCharacter
		}
		character = resolved
	}

	s.mu.Lock()
	same := s.character == character
	s.mu.Unlock()
	if same {
		return nil
	}

	caps, err := s.repo.Load(ctx, character)
	if err != nil {
		if isContextError(err) {
			return err
		}
		s.logger.Warn("snapshot load failed, starting empty",
			zap.String("character", string(character)), zap.Error(err))
	}

	s.mu.Lock()
	s.character = character
	s.caps = caps
	s.mu.Unlock()

	s.logger.Info("active character switched", zap.String("character", string(character)))

	return nil
}

// ProbeMounts refreshes mount facts. With verify set it additionally tries
// each unverified mount for real before promoting it.
func (s *ProbeService) ProbeMounts(ctx context.Context, verify bool) {
	_ = s.probeMounts(ctx, verify, uuid.NewString())
}

func (s *ProbeService) ProbeUI(ctx context.Context) {
	_ = s.probeUI(ctx, uuid.NewString())
}

func (s *ProbeService) ProbeSkills(ctx context.Context) {
	_ = s.probeSkills(ctx, uuid.NewString())
}

func (s *ProbeService) ProbeInventory(ctx context.Context) {
	_ = s.probeInventory(ctx, uuid.NewString())
}

// ProbeCategory dispatches one probe by category. Unknown categories are
// logged and ignored.
func (s *ProbeService) ProbeCategory(ctx context.Context, category domain.Category, verify bool) {
	if !category.Valid() {
		s.logger.Warn("unknown capability category", zap.String("category", string(category)))
		return
	}

	_ = s.probeCategory(ctx, category, verify, uuid.NewString())
}

// RefreshAll runs every probe once, in fixed order, synchronously.
func (s *ProbeService) RefreshAll(ctx context.Context) {
	_ = s.refreshAll(ctx, s.verify)
}

// RefreshAllBackground fires a full refresh on a detached goroutine. The
// cycle outlives the caller's context on purpose.
func (s *ProbeService) RefreshAllBackground(ctx context.Context) {
	detached := context.WithoutCancel(ctx)
	go func() {
		_ = s.refreshAll(detached, s.verify)
	}()
}

// StartLoop begins the TTL-paced refresh loop. At most one loop runs; extra
// calls are no-ops.
func (s *ProbeService) StartLoop() {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.runLoop(s.stopCh, s.doneCh)
}

// StopLoop interrupts the loop sleep, waits for the current cycle to finish,
// and returns. Safe to call without a running loop.
func (s *ProbeService) StopLoop() {
	s.loopMu.Lock()
	if !s.running {
		s.loopMu.Unlock()
		return
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.loopMu.Unlock()

	close(stopCh)
	<-doneCh
}

func (s *ProbeService) LoopRunning() bool {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	return s.running
}

func (s *ProbeService) runLoop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ctx := context.Background()
	for {
		wait := s.ttl
		if err := s.refreshAll(ctx, s.verify); err != nil {
			wait = s.errorBackoff
			s.logger.Warn("refresh cycle degraded, backing off",
				zap.Duration("backoff", wait), zap.Error(err))
		}

		timer := time.NewTimer(wait)
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *ProbeService) refreshAll(ctx context.Context, verify bool) error {
	cycleID := uuid.NewString()
	s.logger.Debug("refresh cycle starting",
		zap.String("cycle", cycleID), zap.String("character", string(s.CurrentCharacter())))

	err := errors.Join(
		s.probeMounts(ctx, verify, cycleID),
		s.probeUI(ctx, cycleID),
		s.probeSkills(ctx, cycleID),
		s.probeInventory(ctx, cycleID),
	)

	s.logger.Debug("refresh cycle finished", zap.String("cycle", cycleID))

	return err
}

func (s *ProbeService) probeCategory(ctx context.Context, category domain.Category, verify bool, cycleID string) error {
	switch category {
	case domain.CategoryMounts:
		return s.probeMounts(ctx, verify, cycleID)
	case domain.CategoryUI:
		return s.probeUI(ctx, cycleID)
	case domain.CategorySkills:
		return s.probeSkills(ctx, cycleID)
	case domain.CategoryInventory:
		return s.probeInventory(ctx, cycleID)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, string(category))
	}
}

func (s *ProbeService) probeMounts(ctx context.Context, verify bool, cycleID string) error {
	character := s.CurrentCharacter()
	now := s.clock.Now()

	var detected []string
	var detectErr error
	if s.detector != nil {
		detected, detectErr = s.detector.DetectMounts(ctx)
		if detectErr != nil {
			s.logger.Warn("mount detection failed",
				zap.String("cycle", cycleID),
				zap.String("character", string(character)),
				zap.Error(detectErr))
		}
	}

	var best string
	var bestErr error
	bestAnswered := false
	if s.manager != nil {
		best, bestErr = s.manager.BestMount(ctx)
		if bestErr != nil {
			s.logger.Warn("best mount query failed",
				zap.String("cycle", cycleID),
				zap.String("character", string(character)),
				zap.Error(bestErr))
		} else {
			bestAnswered = true
		}
	}

	s.mu.Lock()
	if s.character != character {
		s.mu.Unlock()
		s.logger.Debug("character switched mid-probe, dropping mounts result",
			zap.String("cycle", cycleID))
		return nil
	}
	if detectErr == nil {
		s.caps.Mounts.MergeDetected(detected)
	}
	// An unanswered query keeps the previous suggestion; an answered empty
	// one clears it.
	if bestAnswered {
		s.caps.Mounts.BestSuggestion = strings.TrimSpace(best)
	}
	s.caps.Mounts.LastProbe = now
	snapshot := s.caps.Clone()
	s.mu.Unlock()

	persistErr := s.persist(ctx, character, snapshot)

	// Verification runs even when detection errored: mounts already known
	// from earlier cycles can still be promoted.
	var verifyErr error
	if verify && s.manager != nil {
		verifyErr = s.verifyMounts(ctx, character, cycleID)
	}

	return errors.Join(detectErr, bestErr, persistErr, verifyErr)
}

// verifyMounts tries each unverified mount for real. Names whose mount or
// dismount fails stay unverified; the rest are promoted in one pass and the
// snapshot is written a second time.
func (s *ProbeService) verifyMounts(ctx context.Context, character domain.CharacterName, cycleID string) error {
	s.mu.Lock()
	if s.character != character {
		s.mu.Unlock()
		return nil
	}
	candidates := append([]string(nil), s.caps.Mounts.DetectedUnverified...)
	s.mu.Unlock()

	if len(candidates) == 0 {
		return nil
	}

	var failures []error
	verified := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}
		if err := s.manager.Mount(ctx, name); err != nil {
			s.logger.Warn("mount verification failed",
				zap.String("cycle", cycleID), zap.String("mount", name), zap.Error(err))
			failures = append(failures, err)
			continue
		}
		if err := s.manager.Dismount(ctx); err != nil {
			s.logger.Warn("dismount after verification failed",
				zap.String("cycle", cycleID), zap.String("mount", name), zap.Error(err))
			failures = append(failures, err)
			continue
		}
		verified = append(verified, name)
	}

	now := s.clock.Now()
	s.mu.Lock()
	if s.character != character {
		s.mu.Unlock()
		return errors.Join(failures...)
	}
	for _, name := range verified {
		s.caps.Mounts.Promote(name)
	}
	s.caps.Mounts.LastProbe = now
	snapshot := s.caps.Clone()
	s.mu.Unlock()

	if err := s.persist(ctx, character, snapshot); err != nil {
		failures = append(failures, err)
	}

	return errors.Join(failures...)
}

func (s *ProbeService) probeUI(ctx context.Context, cycleID string) error {
	character := s.CurrentCharacter()
	now := s.clock.Now()

	var facts domain.UIFacts
	var inspectErr error
	if s.ui != nil {
		facts, inspectErr = s.ui.InspectUI(ctx)
		if inspectErr != nil {
			s.logger.Warn("ui inspection failed",
				zap.String("cycle", cycleID),
				zap.String("character", string(character)),
				zap.Error(inspectErr))
		}
	}

	s.mu.Lock()
	if s.character != character {
		s.mu.Unlock()
		return nil
	}
	if inspectErr == nil {
		s.caps.UI.Apply(facts)
	}
	s.caps.UI.LastProbe = now
	snapshot := s.caps.Clone()
	s.mu.Unlock()

	return errors.Join(inspectErr, s.persist(ctx, character, snapshot))
}

func (s *ProbeService) probeSkills(ctx context.Context, cycleID string) error {
	character := s.CurrentCharacter()
	now := s.clock.Now()

	var learned []string
	var sourceErr error
	if s.skills != nil {
		learned, sourceErr = s.skills.LearnedSkills(ctx)
		if sourceErr != nil {
			s.logger.Warn("skill probe failed",
				zap.String("cycle", cycleID),
				zap.String("character", string(character)),
				zap.Error(sourceErr))
		}
	}

	s.mu.Lock()
	if s.character != character {
		s.mu.Unlock()
		return nil
	}
	if sourceErr == nil {
		s.caps.Skills.MergeLearned(learned)
	}
	s.caps.Skills.LastProbe = now
	snapshot := s.caps.Clone()
	s.mu.Unlock()

	return errors.Join(sourceErr, s.persist(ctx, character, snapshot))
}

func (s *ProbeService) probeInventory(ctx context.Context, cycleID string) error {
	character := s.CurrentCharacter()
	now := s.clock.Now()

	var items map[string]int
	var sourceErr error
	if s.inventory != nil {
		items, sourceErr = s.inventory.Essentials(ctx)
		if sourceErr != nil {
			s.logger.Warn("inventory probe failed",
				zap.String("cycle", cycleID),
				zap.String("character", string(character)),
				zap.Error(sourceErr))
		}
	}

	s.mu.Lock()
	if s.character != character {
		s.mu.Unlock()
		return nil
	}
	if sourceErr == nil {
		s.caps.Inventory.MergeEssentials(items)
	}
	s.caps.Inventory.LastProbe = now
	snapshot := s.caps.Clone()
	s.mu.Unlock()

	return errors.Join(sourceErr, s.persist(ctx, character, snapshot))
}

func (s *ProbeService) persist(ctx context.Context, character domain.CharacterName, snapshot domain.Capabilities) error {
	if err := s.repo.Save(ctx, character, snapshot); err != nil {
		s.logger.Warn("snapshot save failed",
			zap.String("character", string(character)), zap.Error(err))
		return fmt.Errorf("save snapshot: %w", err)
	}

	return nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
