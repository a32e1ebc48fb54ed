package env

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyrune/capprobe/internal/domain"
)

func TestCurrentCharacterReadsAndTrimsEnvVar(t *testing.T) {
	t.Setenv(CharacterEnvVar, "  Alden  ")

	name, err := NewSource().CurrentCharacter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.CharacterName("Alden"), name)
}

func TestCurrentCharacterBlankEnvVarReturnsErrNoCharacter(t *testing.T) {
	t.Setenv(CharacterEnvVar, "   ")

	_, err := NewSource().CurrentCharacter(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoCharacter)
}

func TestCurrentCharacterCanceledContextReturnsContextError(t *testing.T) {
	t.Setenv(CharacterEnvVar, "Alden")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource().CurrentCharacter(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
