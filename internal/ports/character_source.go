package ports

import (
	"context"

	"github.com/veyrune/capprobe/internal/domain"
)

// CharacterSource answers which character the probe should namespace its
// facts under. Sources that cannot answer return domain.ErrNoCharacter.
type CharacterSource interface {
	CurrentCharacter(ctx context.Context) (domain.CharacterName, error)
}
