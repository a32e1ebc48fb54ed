package env

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/veyrune/capprobe/internal/domain"
	"github.com/veyrune/capprobe/internal/ports"
)

// CharacterEnvVar overrides every other character source when set.
const CharacterEnvVar = "CAPPROBE_CHARACTER"

type Source struct{}

var _ ports.CharacterSource = (*Source)(nil)

func NewSource() *Source {
	return &Source{}
}

func (s *Source) CurrentCharacter(ctx context.Context) (domain.CharacterName, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := strings.TrimSpace(os.Getenv(CharacterEnvVar))
	if name == "" {
		return "", fmt.Errorf("environment variable %s not set: %w", CharacterEnvVar, domain.ErrNoCharacter)
	}

	return domain.CharacterName(name), nil
}
