package status

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyrune/capprobe/internal/application"
	"github.com/veyrune/capprobe/internal/domain"
)

func TestRenderFullSnapshot(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render(application.CharacterStatus{
		Character: "alden",
		Capabilities: domain.Capabilities{
			Mounts: domain.MountsInfo{
				DetectedUnverified: []string{"speeder"},
				LearnedVerified:    []string{"horse", "pony"},
				BestSuggestion:     "horse",
				LastProbe:          now.Add(-130 * time.Second),
			},
			UI: domain.UIInfo{
				Resolution: "1920x1080",
				UIScale:    1.25,
				Language:   "en",
				LastProbe:  now.Add(-time.Minute),
			},
			Skills: domain.SkillsInfo{
				LearnedSkills: []string{"fishing", "riding", "swimming"},
				LastProbe:     now.Add(-time.Minute),
			},
			Inventory: domain.InventoryInfo{
				Essentials: map[string]int{"health potion": 4, "rope": 1},
				LastProbe:  now.Add(-time.Minute),
			},
			Version: domain.SchemaVersion,
		},
	}, RenderOptions{Now: now, TTL: 5 * time.Minute})

	require.NoError(t, err)
	assert.Contains(t, output, "Character: alden")
	assert.Contains(t, output, "capabilities schema 1.0")
	assert.Contains(t, output, "2 verified, 1 unverified")
	assert.Contains(t, output, "horse, pony")
	assert.Contains(t, output, "speeder")
	assert.Contains(t, output, "resolution 1920x1080, scale 1.25, language en")
	assert.Contains(t, output, "3 learned")
	assert.Contains(t, output, "2 essentials tracked")
	assert.Contains(t, output, "probed ")
	assert.Contains(t, output, " ago")
	assert.NotContains(t, output, "[stale]")
	assert.NotContains(t, output, "never probed")
}

func TestRenderEmptySnapshotShowsNeverProbed(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render(application.CharacterStatus{
		Character:    "fresh",
		Capabilities: domain.NewCapabilities(),
	}, RenderOptions{Now: now, TTL: 5 * time.Minute})

	require.NoError(t, err)
	assert.Contains(t, output, "Character: fresh")
	assert.Contains(t, output, "no mounts known")
	assert.Contains(t, output, "best mount")
	assert.Contains(t, output, "none")
	assert.Contains(t, output, "resolution n/a, scale n/a, language n/a")
	assert.Contains(t, output, "0 learned")
	assert.Contains(t, output, "0 essentials tracked")
	assert.Equal(t, 4, strings.Count(output, "never probed"))
	assert.Equal(t, 4, strings.Count(output, "[stale]"))
}

func TestRenderMarksOnlyStaleCategories(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render(application.CharacterStatus{
		Character: "alden",
		Capabilities: domain.Capabilities{
			Mounts: domain.MountsInfo{
				LearnedVerified: []string{"horse"},
				LastProbe:       now.Add(-time.Hour),
			},
			UI: domain.UIInfo{
				Resolution: "800x600",
				UIScale:    1,
				Language:   "en",
				LastProbe:  now,
			},
			Skills:    domain.SkillsInfo{LastProbe: now},
			Inventory: domain.InventoryInfo{LastProbe: now},
			Version:   domain.SchemaVersion,
		},
	}, RenderOptions{Now: now, TTL: 5 * time.Minute})

	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(output, "[stale]"))
}

func TestRenderDoesNotMarkStaleWhenNowNotProvided(t *testing.T) {
	output, err := Render(application.CharacterStatus{
		Character: "alden",
		Capabilities: domain.Capabilities{
			Mounts: domain.MountsInfo{
				LearnedVerified: []string{"horse"},
				LastProbe:       time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC),
			},
			Version: domain.SchemaVersion,
		},
	}, RenderOptions{TTL: 5 * time.Minute})

	require.NoError(t, err)
	assert.NotContains(t, output, "[stale]")
	assert.Contains(t, output, "probed at 2026-02-10T11:00:00Z")
}

func TestRenderRosterListsCharacters(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := RenderRoster([]application.CharacterOverview{
		{
			Character:      "alden",
			Path:           "profiles/runtime/alden_capabilities.json",
			UpdatedAt:      now.Add(-2 * time.Minute),
			SizeBytes:      1536,
			VerifiedMounts: 2,
			DetectedMounts: 1,
		},
		{
			Character: "brynn",
			Path:      "profiles/runtime/brynn_capabilities.json",
			UpdatedAt: now.Add(-3 * time.Hour),
			SizeBytes: 128,
			Stale:     true,
		},
	}, RenderOptions{Now: now, TTL: 5 * time.Minute})

	require.NoError(t, err)
	assert.Contains(t, output, "characters: 2")
	assert.Contains(t, output, "alden:")
	assert.Contains(t, output, "brynn:")
	assert.Contains(t, output, "2 verified, 1 unverified")
	assert.Contains(t, output, "1.5 kB")
	assert.Contains(t, output, "128 B")
	assert.Contains(t, output, "profiles/runtime/alden_capabilities.json")
	assert.Equal(t, 1, strings.Count(output, "[stale]"))
}

func TestRenderRosterEmpty(t *testing.T) {
	output, err := RenderRoster(nil, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "characters: 0")
	assert.Contains(t, output, "No character snapshots on disk.")
}
