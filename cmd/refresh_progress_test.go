package cmd

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeProgressModelWalksStageLifecycle(t *testing.T) {
	t.Parallel()

	events := make(chan tea.Msg, 4)
	m := newProbeProgressModel(events)

	updated, _ := m.Update(stageStartMsg{label: "mounts"})
	m = updated.(probeProgressModel)
	assert.Contains(t, m.View(), "Probing mounts...")

	updated, _ = m.Update(stageDoneMsg{label: "mounts", err: nil})
	m = updated.(probeProgressModel)
	assert.Contains(t, m.View(), "mounts ok")

	updated, _ = m.Update(stageStartMsg{label: "ui"})
	m = updated.(probeProgressModel)
	updated, _ = m.Update(stageDoneMsg{label: "ui", err: errors.New("window not focused")})
	m = updated.(probeProgressModel)
	assert.Contains(t, m.View(), "ui failed")
	require.Len(t, m.errs, 1)

	updated, cmd := m.Update(stagesFinishedMsg{})
	m = updated.(probeProgressModel)
	assert.True(t, m.done)
	assert.Empty(t, m.View())
	assert.NotNil(t, cmd)
}

func TestBuildProbeStagesRejectsUnknownCategory(t *testing.T) {
	t.Parallel()

	_, err := buildProbeStages(&app{}, "pets", false)
	require.Error(t, err)
}

func TestBuildProbeStagesVerifyFansOutPerCategory(t *testing.T) {
	t.Parallel()

	stages, err := buildProbeStages(&app{}, "", true)
	require.NoError(t, err)
	require.Len(t, stages, 4)
	assert.Equal(t, "mounts", stages[0].label)

	stages, err = buildProbeStages(&app{}, "", false)
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, "all categories", stages[0].label)
}
