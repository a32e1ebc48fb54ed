package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/veyrune/capprobe/internal/domain"
	"github.com/veyrune/capprobe/internal/ports"
)

const (
	configName   = "capprobe"
	configType   = "toml"
	configDir    = ".capprobe"
	envPrefix    = "CAPPROBE"
	envConfigDir = "CAPPROBE_CONFIG_DIR"

	profilesDirKey     = "profiles.dir"
	defaultProfilesDir = "profiles/runtime"

	snapshotSuffix   = "_capabilities.json"
	tempFilePattern  = ".capabilities-*.json.tmp"
	snapshotFileMode = 0o600
	snapshotDirMode  = 0o700
)

var (
	pathLocksMu sync.Mutex
	pathLocks   = map[string]*sync.RWMutex{}
)

// lockForPath hands out one lock per snapshot path so concurrent probes of
// the same character serialize while distinct characters proceed in parallel.
func lockForPath(path string) *sync.RWMutex {
	pathLocksMu.Lock()
	defer pathLocksMu.Unlock()

	mu, ok := pathLocks[path]
	if !ok {
		mu = &sync.RWMutex{}
		pathLocks[path] = mu
	}

	return mu
}

// Repository persists one capability snapshot per character as a JSON file
// under the configured profiles directory.
type Repository struct {
	dir string
}

var _ ports.SnapshotRepository = (*Repository)(nil)

// NewRepository resolves the profiles directory from the supplied viper
// configuration. A nil cfg loads the capprobe config file and CAPPROBE_*
// environment overrides on its own, tolerating a missing config file.
func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		loaded, err := loadStandaloneConfig()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.SetDefault(profilesDirKey, defaultProfilesDir)

	dir, err := normalizeProfilesDir(cfg.GetString(profilesDirKey))
	if err != nil {
		return nil, err
	}

	return &Repository{dir: dir}, nil
}

func loadStandaloneConfig() (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(".")
	if dir := os.Getenv(envConfigDir); dir != "" {
		cfg.AddConfigPath(dir)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	}

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return cfg, nil
}

func normalizeProfilesDir(dir string) (string, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return "", errors.New("profiles directory is empty")
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve profiles directory: %w", err)
	}

	return filepath.Clean(abs), nil
}

// Dir reports the resolved profiles directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Path reports where a character's snapshot lives on disk.
func (r *Repository) Path(character domain.CharacterName) string {
	return filepath.Join(r.dir, safeCharacterToken(character)+snapshotSuffix)
}

// Load reads a character's snapshot. A missing file is a cold start and
// yields an empty aggregate with no error; an unreadable document yields an
// empty aggregate wrapped in domain.ErrSnapshotCorrupt so callers can decide
// whether to surface it.
func (r *Repository) Load(ctx context.Context, character domain.CharacterName) (domain.Capabilities, error) {
	if err := ctx.Err(); err != nil {
		return domain.Capabilities{}, err
	}

	path := r.Path(character)
	mu := lockForPath(path)
	mu.RLock()
	defer mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewCapabilities(), nil
		}
		return domain.NewCapabilities(), fmt.Errorf("read snapshot file: %w", err)
	}

	caps, err := DecodeSnapshot(data)
	if err != nil {
		return domain.NewCapabilities(), fmt.Errorf("%w: %v", domain.ErrSnapshotCorrupt, err)
	}

	return caps, nil
}

// Save writes a character's snapshot atomically via a temp file rename.
func (r *Repository) Save(ctx context.Context, character domain.CharacterName, caps domain.Capabilities) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := EncodeSnapshot(caps)
	if err != nil {
		return err
	}

	path := r.Path(character)
	mu := lockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	return writeFileAtomic(path, data)
}

// List enumerates every snapshot in the profiles directory, sorted by
// character token. A missing directory is an empty roster, not an error.
func (r *Repository) List(ctx context.Context) ([]domain.SnapshotRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profiles directory: %w", err)
	}

	refs := make([]domain.SnapshotRef, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		refs = append(refs, domain.SnapshotRef{
			Character: domain.CharacterName(strings.TrimSuffix(entry.Name(), snapshotSuffix)),
			Path:      filepath.Join(r.dir, entry.Name()),
			UpdatedAt: info.ModTime(),
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Character < refs[j].Character })

	return refs, nil
}

// safeCharacterToken flattens path separators so a character name can never
// escape the profiles directory.
func safeCharacterToken(character domain.CharacterName) string {
	token := strings.TrimSpace(string(character))
	if token == "" {
		token = string(domain.DefaultCharacter)
	}
	token = strings.ReplaceAll(token, "/", "_")
	token = strings.ReplaceAll(token, "\\", "_")
	token = strings.ReplaceAll(token, string(filepath.Separator), "_")

	return token
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), snapshotDirMode); err != nil {
		return fmt.Errorf("create profiles directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp snapshot file: %w", err)
	}

	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot file: %w", err)
	}

	if err := tmp.Chmod(snapshotFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp snapshot file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp snapshot file: %w", err)
	}

	cleanup = false

	return nil
}
