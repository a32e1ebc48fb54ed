package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/veyrune/capprobe/internal/domain"
	"github.com/veyrune/capprobe/internal/ports"
)

// Source reads the active character from the bootstrap file the game tooling
// drops next to the capability snapshots. Either key names the character;
// character_name wins when both are present.
type Source struct {
	path string
}

var _ ports.CharacterSource = (*Source)(nil)

type bootstrapFile struct {
	CharacterName string `json:"character_name"`
	Name          string `json:"name"`
}

func NewSource(path string) *Source {
	return &Source{path: filepath.Clean(path)}
}

func (s *Source) CurrentCharacter(ctx context.Context) (domain.CharacterName, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("bootstrap file %s not found: %w", s.path, domain.ErrNoCharacter)
		}
		return "", fmt.Errorf("read bootstrap file: %w", err)
	}

	var file bootstrapFile
	if err := json.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("decode bootstrap file %s: %v: %w", s.path, err, domain.ErrNoCharacter)
	}

	name := strings.TrimSpace(file.CharacterName)
	if name == "" {
		name = strings.TrimSpace(file.Name)
	}
	if name == "" {
		return "", fmt.Errorf("bootstrap file %s names no character: %w", s.path, domain.ErrNoCharacter)
	}

	return domain.CharacterName(name), nil
}
