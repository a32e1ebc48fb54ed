package domain

import (
	"sort"
	"strings"
	"time"
)

type CharacterName string

const (
	DefaultCharacter CharacterName = "default"

	SchemaVersion = "1.0"
)

// Capabilities is the per-character aggregate of last-known runtime facts
// about the game client. It is owned by a single probe service instance and
// mutated only through the info helpers below.
type Capabilities struct {
	Mounts    MountsInfo
	UI        UIInfo
	Skills    SkillsInfo
	Inventory InventoryInfo
	Version   string
}

func NewCapabilities() Capabilities {
	return Capabilities{Version: SchemaVersion}
}

// Clone returns a deep copy so callers can hold a snapshot without aliasing
// the live aggregate.
func (c Capabilities) Clone() Capabilities {
	clone := c
	clone.Mounts.DetectedUnverified = cloneNames(c.Mounts.DetectedUnverified)
	clone.Mounts.LearnedVerified = cloneNames(c.Mounts.LearnedVerified)
	clone.Skills.LearnedSkills = cloneNames(c.Skills.LearnedSkills)
	clone.Inventory.Essentials = cloneCounts(c.Inventory.Essentials)
	return clone
}

type MountsInfo struct {
	DetectedUnverified []string
	LearnedVerified    []string
	BestSuggestion     string
	LastProbe          time.Time
}

// MergeDetected adds newly observed mount names to the unverified set.
// Blank names and duplicates are dropped, and names already verified stay
// verified so re-detection never regresses a mount.
func (m *MountsInfo) MergeDetected(names []string) {
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if containsName(m.LearnedVerified, trimmed) || containsName(m.DetectedUnverified, trimmed) {
			continue
		}
		m.DetectedUnverified = insertName(m.DetectedUnverified, trimmed)
	}
}

// Promote moves a name from the unverified set to the verified set. It
// reports false when the name is not currently unverified.
func (m *MountsInfo) Promote(name string) bool {
	trimmed := strings.TrimSpace(name)
	if !containsName(m.DetectedUnverified, trimmed) {
		return false
	}

	m.DetectedUnverified = removeName(m.DetectedUnverified, trimmed)
	if !containsName(m.LearnedVerified, trimmed) {
		m.LearnedVerified = insertName(m.LearnedVerified, trimmed)
	}
	return true
}

func (m MountsInfo) Empty() bool {
	return len(m.DetectedUnverified) == 0 && len(m.LearnedVerified) == 0
}

func (m MountsInfo) Stale(now time.Time, ttl time.Duration) bool {
	return staleSince(m.LastProbe, now, ttl)
}

// UIFacts is what a UI inspection reports; zero-valued fields mean the
// inspector had nothing to say about them.
type UIFacts struct {
	Resolution string
	UIScale    float64
	Language   string
}

type UIInfo struct {
	Resolution string
	UIScale    float64
	Language   string
	LastProbe  time.Time
}

// Apply overwrites fields only with non-empty observations, so a partial
// inspection never blanks previously known values.
func (u *UIInfo) Apply(facts UIFacts) {
	if facts.Resolution != "" {
		u.Resolution = facts.Resolution
	}
	if facts.UIScale > 0 {
		u.UIScale = facts.UIScale
	}
	if facts.Language != "" {
		u.Language = facts.Language
	}
}

func (u UIInfo) Empty() bool {
	return u.Resolution == "" && u.UIScale == 0 && u.Language == ""
}

func (u UIInfo) Stale(now time.Time, ttl time.Duration) bool {
	return staleSince(u.LastProbe, now, ttl)
}

type SkillsInfo struct {
	LearnedSkills []string
	LastProbe     time.Time
}

// MergeLearned unions newly reported skills into the learned set. Skills are
// never un-learned by a probe.
func (s *SkillsInfo) MergeLearned(names []string) {
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || containsName(s.LearnedSkills, trimmed) {
			continue
		}
		s.LearnedSkills = insertName(s.LearnedSkills, trimmed)
	}
}

func (s SkillsInfo) Empty() bool {
	return len(s.LearnedSkills) == 0
}

func (s SkillsInfo) Stale(now time.Time, ttl time.Duration) bool {
	return staleSince(s.LastProbe, now, ttl)
}

type InventoryInfo struct {
	Essentials map[string]int
	LastProbe  time.Time
}

// MergeEssentials updates essential item counts by key, keeping entries the
// report does not mention.
func (i *InventoryInfo) MergeEssentials(items map[string]int) {
	if len(items) == 0 {
		return
	}
	if i.Essentials == nil {
		i.Essentials = make(map[string]int, len(items))
	}
	for name, count := range items {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		i.Essentials[trimmed] = count
	}
}

func (i InventoryInfo) Empty() bool {
	return len(i.Essentials) == 0
}

func (i InventoryInfo) Stale(now time.Time, ttl time.Duration) bool {
	return staleSince(i.LastProbe, now, ttl)
}

func staleSince(lastProbe, now time.Time, ttl time.Duration) bool {
	if lastProbe.IsZero() {
		return true
	}

	if ttl <= 0 {
		return false
	}

	return now.Sub(lastProbe) > ttl
}

func containsName(names []string, name string) bool {
	for _, existing := range names {
		if existing == name {
			return true
		}
	}
	return false
}

func insertName(names []string, name string) []string {
	names = append(names, name)
	sort.Strings(names)
	return names
}

func removeName(names []string, name string) []string {
	kept := names[:0]
	for _, existing := range names {
		if existing != name {
			kept = append(kept, existing)
		}
	}
	return kept
}

func cloneNames(names []string) []string {
	if names == nil {
		return nil
	}
	return append([]string(nil), names...)
}

func cloneCounts(counts map[string]int) map[string]int {
	if counts == nil {
		return nil
	}

	clone := make(map[string]int, len(counts))
	for name, count := range counts {
		clone[name] = count
	}
	return clone
}
