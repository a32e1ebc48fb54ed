package chain

import (
	"context"
	"errors"

	envsource "github.com/veyrune/capprobe/internal/adapters/charsource/env"
	filesource "github.com/veyrune/capprobe/internal/adapters/charsource/file"
	"github.com/veyrune/capprobe/internal/domain"
	"github.com/veyrune/capprobe/internal/ports"
)

// Source tries each character source in order and settles on the shared
// default profile when none of them can answer. Only context errors abort
// the chain.
type Source struct {
	sources []ports.CharacterSource
}

var _ ports.CharacterSource = (*Source)(nil)

var errNilSource = errors.New("character source is nil")

func NewSource(sources ...ports.CharacterSource) *Source {
	source, err := NewSourceChecked(sources...)
	if err != nil {
		panic(err)
	}

	return source
}

func NewSourceChecked(sources ...ports.CharacterSource) (*Source, error) {
	for _, source := range sources {
		if source == nil {
			return nil, errNilSource
		}
	}

	return &Source{sources: sources}, nil
}

// NewEnvFirstWithFileFallback is the wiring every command uses: the override
// variable beats the bootstrap file, and everything else means "default".
func NewEnvFirstWithFileFallback(bootstrapPath string) *Source {
	return NewSource(envsource.NewSource(), filesource.NewSource(bootstrapPath))
}

func (s *Source) CurrentCharacter(ctx context.Context) (domain.CharacterName, error) {
	for _, source := range s.sources {
		name, err := source.CurrentCharacter(ctx)
		if err == nil {
			return name, nil
		}
		if shouldStopChain(err) {
			return "", err
		}
	}

	return domain.DefaultCharacter, nil
}

func shouldStopChain(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
