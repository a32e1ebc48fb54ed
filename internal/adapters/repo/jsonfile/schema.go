package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/veyrune/capprobe/internal/domain"
)

// snapshotSchema mirrors the on-disk document layout. Keys are stable; the
// domain layer never sees them.
type snapshotSchema struct {
	Mounts    mountsSchema    `json:"mounts"`
	UI        uiSchema        `json:"ui"`
	Skills    skillsSchema    `json:"skills"`
	Inventory inventorySchema `json:"inventory"`
	Version   string          `json:"version"`
}

type mountsSchema struct {
	DetectedUnverified []string `json:"detected_unverified"`
	LearnedVerified    []string `json:"learned_verified"`
	BestSuggestion     *string  `json:"best_suggestion"`
	LastProbeTS        float64  `json:"last_probe_ts"`
}

type uiSchema struct {
	Resolution  *string  `json:"resolution"`
	UIScale     *float64 `json:"ui_scale"`
	Language    *string  `json:"language"`
	LastProbeTS float64  `json:"last_probe_ts"`
}

type skillsSchema struct {
	LearnedSkills []string `json:"learned_skills"`
	LastProbeTS   float64  `json:"last_probe_ts"`
}

type inventorySchema struct {
	Essentials  map[string]int `json:"essentials"`
	LastProbeTS float64        `json:"last_probe_ts"`
}

// EncodeSnapshot renders the snapshot document exactly as Save writes it.
func EncodeSnapshot(caps domain.Capabilities) ([]byte, error) {
	data, err := json.MarshalIndent(toSchema(caps), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	return append(data, '\n'), nil
}

// DecodeSnapshot reconstructs a snapshot defensively: wrong-typed fields fall
// back to their empty defaults while everything that parsed cleanly is kept.
// Only syntactically broken documents are an error.
func DecodeSnapshot(data []byte) (domain.Capabilities, error) {
	var file snapshotSchema
	if err := json.Unmarshal(data, &file); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return domain.Capabilities{}, fmt.Errorf("decode snapshot: %w", err)
		}
	}

	return fromSchema(file), nil
}

func toSchema(caps domain.Capabilities) snapshotSchema {
	version := caps.Version
	if version == "" {
		version = domain.SchemaVersion
	}

	return snapshotSchema{
		Mounts: mountsSchema{
			DetectedUnverified: sortedNames(caps.Mounts.DetectedUnverified),
			LearnedVerified:    sortedNames(caps.Mounts.LearnedVerified),
			BestSuggestion:     optionalString(caps.Mounts.BestSuggestion),
			LastProbeTS:        toUnixSeconds(caps.Mounts.LastProbe),
		},
		UI: uiSchema{
			Resolution:  optionalString(caps.UI.Resolution),
			UIScale:     optionalFloat(caps.UI.UIScale),
			Language:    optionalString(caps.UI.Language),
			LastProbeTS: toUnixSeconds(caps.UI.LastProbe),
		},
		Skills: skillsSchema{
			LearnedSkills: sortedNames(caps.Skills.LearnedSkills),
			LastProbeTS:   toUnixSeconds(caps.Skills.LastProbe),
		},
		Inventory: inventorySchema{
			Essentials:  essentialsOrEmpty(caps.Inventory.Essentials),
			LastProbeTS: toUnixSeconds(caps.Inventory.LastProbe),
		},
		Version: version,
	}
}

func fromSchema(file snapshotSchema) domain.Capabilities {
	caps := domain.NewCapabilities()
	if strings.TrimSpace(file.Version) != "" {
		caps.Version = file.Version
	}

	caps.Mounts = domain.MountsInfo{
		LearnedVerified: normalizeNames(file.Mounts.LearnedVerified),
		BestSuggestion:  stringValue(file.Mounts.BestSuggestion),
		LastProbe:       fromUnixSeconds(file.Mounts.LastProbeTS),
	}
	caps.Mounts.MergeDetected(file.Mounts.DetectedUnverified)

	caps.UI = domain.UIInfo{
		Resolution: stringValue(file.UI.Resolution),
		UIScale:    floatValue(file.UI.UIScale),
		Language:   stringValue(file.UI.Language),
		LastProbe:  fromUnixSeconds(file.UI.LastProbeTS),
	}

	caps.Skills = domain.SkillsInfo{LastProbe: fromUnixSeconds(file.Skills.LastProbeTS)}
	caps.Skills.MergeLearned(file.Skills.LearnedSkills)

	caps.Inventory = domain.InventoryInfo{LastProbe: fromUnixSeconds(file.Inventory.LastProbeTS)}
	caps.Inventory.MergeEssentials(file.Inventory.Essentials)

	return caps
}

// Timestamps persist as unix seconds with microsecond precision so the float
// survives a round trip bit-for-bit.
func toUnixSeconds(value time.Time) float64 {
	if value.IsZero() {
		return 0
	}

	return float64(value.UnixMicro()) / 1e6
}

func fromUnixSeconds(raw float64) time.Time {
	if raw <= 0 {
		return time.Time{}
	}

	return time.UnixMicro(int64(math.Round(raw * 1e6))).UTC()
}

func sortedNames(names []string) []string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	return sorted
}

func normalizeNames(names []string) []string {
	cleaned := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}

	if len(cleaned) == 0 {
		return nil
	}
	sort.Strings(cleaned)
	return cleaned
}

func essentialsOrEmpty(essentials map[string]int) map[string]int {
	if essentials == nil {
		return map[string]int{}
	}
	return essentials
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func optionalFloat(value float64) *float64 {
	if value == 0 {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func floatValue(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}
