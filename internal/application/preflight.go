package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veyrune/capprobe/internal/domain"
)

// PreflightReport is the honest answer to "are these capabilities usable
// right now": each check reflects the state after any probe it triggered,
// not the intent to probe.
type PreflightReport struct {
	GeneratedAt time.Time
	CycleID     string
	Checks      []PreflightCheck
}

type PreflightCheck struct {
	Category  domain.Category
	Probed    bool
	Satisfied bool
	Message   string
}

// Satisfied reports whether every requested capability checked out.
func (r PreflightReport) Satisfied() bool {
	for _, check := range r.Checks {
		if !check.Satisfied {
			return false
		}
	}

	return true
}

// EnsurePreflight probes each required capability whose facts are missing or
// stale, then reports the real per-capability outcome. An empty required list
// means mounts, the one capability everything else depends on.
func (s *ProbeService) EnsurePreflight(ctx context.Context, required []domain.Category, verify bool) PreflightReport {
	if len(required) == 0 {
		required = []domain.Category{domain.CategoryMounts}
	}

	report := PreflightReport{
		GeneratedAt: s.clock.Now(),
		CycleID:     uuid.NewString(),
		Checks:      make([]PreflightCheck, 0, len(required)),
	}

	for _, category := range required {
		report.Checks = append(report.Checks, s.preflightCheck(ctx, category, verify, report.CycleID))
	}

	return report
}

func (s *ProbeService) preflightCheck(ctx context.Context, category domain.Category, verify bool, cycleID string) PreflightCheck {
	check := PreflightCheck{Category: category}

	if !category.Valid() {
		check.Message = fmt.Sprintf("unknown capability category %q", string(category))
		return check
	}

	if s.categorySatisfied(category) {
		check.Satisfied = true
		check.Message = s.categorySummary(category)
		return check
	}

	check.Probed = true
	probeErr := s.probeCategory(ctx, category, verify, cycleID)

	check.Satisfied = s.categorySatisfied(category)
	if probeErr != nil && !check.Satisfied {
		check.Message = probeErr.Error()
		return check
	}
	check.Message = s.categorySummary(category)

	return check
}

// categorySatisfied means fresh facts exist: probed within TTL and non-empty.
func (s *ProbeService) categorySatisfied(category domain.Category) bool {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch category {
	case domain.CategoryMounts:
		return !s.caps.Mounts.Empty() && !s.caps.Mounts.Stale(now, s.ttl)
	case domain.CategoryUI:
		return !s.caps.UI.Empty() && !s.caps.UI.Stale(now, s.ttl)
	case domain.CategorySkills:
		return !s.caps.Skills.Empty() && !s.caps.Skills.Stale(now, s.ttl)
	case domain.CategoryInventory:
		return !s.caps.Inventory.Empty() && !s.caps.Inventory.Stale(now, s.ttl)
	default:
		return false
	}
}

func (s *ProbeService) categorySummary(category domain.Category) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch category {
	case domain.CategoryMounts:
		if s.caps.Mounts.Empty() {
			return "no mounts known"
		}
		return fmt.Sprintf("%d verified, %d unverified", len(s.caps.Mounts.LearnedVerified), len(s.caps.Mounts.DetectedUnverified))
	case domain.CategoryUI:
		if s.caps.UI.Empty() {
			return "no ui facts"
		}
		return fmt.Sprintf("resolution %s, scale %.2f, language %s", orNA(s.caps.UI.Resolution), s.caps.UI.UIScale, orNA(s.caps.UI.Language))
	case domain.CategorySkills:
		if s.caps.Skills.Empty() {
			return "no skills recorded"
		}
		return fmt.Sprintf("%d skills learned", len(s.caps.Skills.LearnedSkills))
	case domain.CategoryInventory:
		if s.caps.Inventory.Empty() {
			return "no essentials recorded"
		}
		return fmt.Sprintf("%d essentials tracked", len(s.caps.Inventory.Essentials))
	default:
		return ""
	}
}

func orNA(value string) string {
	if value == "" {
		return "n/a"
	}

	return value
}
