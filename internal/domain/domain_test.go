package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountsInfoStaleDetection(t *testing.T) {
	probed := time.Date(2026, 8, 14, 12, 0, 0, 0, time.UTC)
	m := MountsInfo{LastProbe: probed}

	assert.False(t, m.Stale(probed.Add(4*time.Minute), 5*time.Minute))
	assert.True(t, m.Stale(probed.Add(6*time.Minute), 5*time.Minute))
}

func TestMountsInfoStaleDetectionZeroLastProbe(t *testing.T) {
	now := time.Date(2026, 8, 14, 12, 0, 0, 0, time.UTC)

	assert.True(t, MountsInfo{}.Stale(now, 5*time.Minute))
}

func TestMountsInfoStaleDetectionNonPositiveTTL(t *testing.T) {
	probed := time.Date(2026, 8, 14, 12, 0, 0, 0, time.UTC)
	m := MountsInfo{LastProbe: probed}

	assert.False(t, m.Stale(probed.Add(24*time.Hour), 0))
	assert.False(t, m.Stale(probed.Add(24*time.Hour), -time.Minute))
}

func TestMergeDetectedDropsBlanksAndDuplicates(t *testing.T) {
	t.Parallel()

	m := MountsInfo{}
	m.MergeDetected([]string{"swoop", "", "  ", "speeder", "swoop"})

	assert.Equal(t, []string{"speeder", "swoop"}, m.DetectedUnverified)
}

func TestMergeDetectedNeverRegressesVerifiedMounts(t *testing.T) {
	t.Parallel()

	m := MountsInfo{LearnedVerified: []string{"av-21"}}
	m.MergeDetected([]string{"av-21", "swoop"})

	assert.Equal(t, []string{"swoop"}, m.DetectedUnverified)
	assert.Equal(t, []string{"av-21"}, m.LearnedVerified)
}

func TestPromoteMovesNameBetweenSets(t *testing.T) {
	t.Parallel()

	m := MountsInfo{DetectedUnverified: []string{"speeder", "swoop"}}

	require.True(t, m.Promote("swoop"))
	assert.Equal(t, []string{"speeder"}, m.DetectedUnverified)
	assert.Equal(t, []string{"swoop"}, m.LearnedVerified)

	assert.False(t, m.Promote("swoop"), "already promoted")
	assert.False(t, m.Promote("bantha"), "never detected")
}

func TestPromoteKeepsSetsDisjoint(t *testing.T) {
	t.Parallel()

	m := MountsInfo{}
	m.MergeDetected([]string{"swoop", "speeder", "av-21"})
	require.True(t, m.Promote("av-21"))
	m.MergeDetected([]string{"av-21", "swoop"})

	for _, verified := range m.LearnedVerified {
		assert.NotContains(t, m.DetectedUnverified, verified)
	}
}

func TestCloneIsIndependentOfOriginal(t *testing.T) {
	t.Parallel()

	caps := NewCapabilities()
	caps.Mounts.MergeDetected([]string{"swoop"})
	caps.Skills.MergeLearned([]string{"novice_scout"})
	caps.Inventory.MergeEssentials(map[string]int{"stimpack": 3})

	clone := caps.Clone()
	clone.Mounts.MergeDetected([]string{"speeder"})
	require.True(t, clone.Mounts.Promote("swoop"))
	clone.Skills.MergeLearned([]string{"novice_medic"})
	clone.Inventory.Essentials["stimpack"] = 99

	assert.Equal(t, []string{"swoop"}, caps.Mounts.DetectedUnverified)
	assert.Empty(t, caps.Mounts.LearnedVerified)
	assert.Equal(t, []string{"novice_scout"}, caps.Skills.LearnedSkills)
	assert.Equal(t, 3, caps.Inventory.Essentials["stimpack"])
}

func TestUIInfoApplyKeepsKnownValuesOnPartialFacts(t *testing.T) {
	t.Parallel()

	ui := UIInfo{Resolution: "1024x768", UIScale: 1.0, Language: "en"}
	ui.Apply(UIFacts{Resolution: "1920x1080"})

	assert.Equal(t, "1920x1080", ui.Resolution)
	assert.Equal(t, 1.0, ui.UIScale)
	assert.Equal(t, "en", ui.Language)
}

func TestSkillsMergeLearnedIsAUnion(t *testing.T) {
	t.Parallel()

	s := SkillsInfo{LearnedSkills: []string{"novice_scout"}}
	s.MergeLearned([]string{"novice_medic", "novice_scout", ""})

	assert.Equal(t, []string{"novice_medic", "novice_scout"}, s.LearnedSkills)
}

func TestInventoryMergeEssentialsUpdatesByKey(t *testing.T) {
	t.Parallel()

	inv := InventoryInfo{Essentials: map[string]int{"stimpack": 3, "ration": 5}}
	inv.MergeEssentials(map[string]int{"stimpack": 7, "": 1})

	assert.Equal(t, map[string]int{"stimpack": 7, "ration": 5}, inv.Essentials)
}

func TestEmptyChecks(t *testing.T) {
	t.Parallel()

	assert.True(t, MountsInfo{BestSuggestion: "av-21"}.Empty(), "suggestion alone does not count")
	assert.False(t, MountsInfo{LearnedVerified: []string{"av-21"}}.Empty())
	assert.True(t, UIInfo{}.Empty())
	assert.False(t, UIInfo{UIScale: 1.25}.Empty())
	assert.True(t, SkillsInfo{}.Empty())
	assert.True(t, InventoryInfo{Essentials: map[string]int{}}.Empty())
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    Category
		wantErr bool
	}{
		{name: "mounts", raw: "mounts", want: CategoryMounts},
		{name: "mixed case with spaces", raw: "  UI ", want: CategoryUI},
		{name: "skills", raw: "skills", want: CategorySkills},
		{name: "inventory", raw: "inventory", want: CategoryInventory},
		{name: "unknown", raw: "pets", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCategory(tc.raw)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCategoriesCoverEveryValidCategory(t *testing.T) {
	t.Parallel()

	all := Categories()
	assert.Len(t, all, 4)
	for _, category := range all {
		assert.True(t, category.Valid())
	}
}
