package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	chainsource "github.com/veyrune/capprobe/internal/adapters/charsource/chain"
	shellclient "github.com/veyrune/capprobe/internal/adapters/client/shell"
	simclient "github.com/veyrune/capprobe/internal/adapters/client/sim"
	statusadapter "github.com/veyrune/capprobe/internal/adapters/render/status"
	"github.com/veyrune/capprobe/internal/adapters/repo/jsonfile"
	"github.com/veyrune/capprobe/internal/application"
	"github.com/veyrune/capprobe/internal/ports"
)

const (
	clientModeNone  = "none"
	clientModeSim   = "sim"
	clientModeShell = "shell"
)

type app struct {
	cfg      *viper.Viper
	logger   *zap.Logger
	logLevel zap.AtomicLevel

	repo          *jsonfile.Repository
	probeService  *application.ProbeService
	rosterService *application.RosterService

	statusRenderer func(application.CharacterStatus, statusadapter.RenderOptions) (string, error)
	rosterRenderer func([]application.CharacterOverview, statusadapter.RenderOptions) (string, error)

	bootstrapPath string
	now           func() time.Time
}

func wireApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logLevel, err := zap.ParseAtomicLevel(cfg.GetString("logging.level"))
	if err != nil {
		logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := buildLogger(logLevel)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	repo, err := jsonfile.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire snapshot repository: %w", err)
	}

	bootstrapPath := cfg.GetString("bootstrap.path")
	chars := chainsource.NewEnvFirstWithFileFallback(bootstrapPath)

	opts := application.ProbeOptions{
		TTL:          cfg.GetDuration("probe.ttl"),
		ErrorBackoff: cfg.GetDuration("probe.error_backoff"),
		Verify:       cfg.GetBool("probe.verify"),
	}
	if err := wireClient(cfg, &opts); err != nil {
		return nil, err
	}

	probeService, err := application.NewProbeService(repo, chars, ports.SystemClock{}, logger, opts)
	if err != nil {
		return nil, fmt.Errorf("wire probe service: %w", err)
	}

	return &app{
		cfg:            cfg,
		logger:         logger,
		logLevel:       logLevel,
		repo:           repo,
		probeService:   probeService,
		rosterService:  application.NewRosterService(repo, ports.SystemClock{}, probeService.TTL()),
		statusRenderer: statusadapter.Render,
		rosterRenderer: statusadapter.RenderRoster,
		bootstrapPath:  bootstrapPath,
		now:            time.Now,
	}, nil
}

// wireClient picks the collaborator set for the configured client mode. Mode
// none leaves every collaborator nil, which turns the probes into
// timestamp-only stubs.
func wireClient(cfg *viper.Viper, opts *application.ProbeOptions) error {
	mode := strings.ToLower(strings.TrimSpace(cfg.GetString("client.mode")))
	switch mode {
	case clientModeNone, "":
		return nil

	case clientModeSim:
		client := simclient.NewClient(simclient.Config{
			Mounts:    cfg.GetStringSlice("sim.mounts"),
			BestMount: cfg.GetString("sim.best_mount"),
			Mountable: cfg.GetStringSlice("sim.mountable"),
		})
		opts.Detector = client
		opts.Manager = client
		opts.UI = client
		opts.Skills = client
		opts.Inventory = client
		return nil

	case clientModeShell:
		client := shellclient.NewClient(shellclient.Config{
			DetectCmd:   cfg.GetStringSlice("client.detect_cmd"),
			BestCmd:     cfg.GetStringSlice("client.best_cmd"),
			MountCmd:    cfg.GetStringSlice("client.mount_cmd"),
			DismountCmd: cfg.GetStringSlice("client.dismount_cmd"),
			Timeout:     cfg.GetDuration("client.timeout"),
			ActionPace:  cfg.GetDuration("client.action_pace"),
		})
		opts.Detector = client
		opts.Manager = client
		return nil

	default:
		return fmt.Errorf("unknown client.mode %q (expected none, sim, or shell)", mode)
	}
}

func loadConfig() (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetConfigName("capprobe")
	cfg.SetConfigType("toml")
	cfg.AddConfigPath(".")
	if dir := os.Getenv("CAPPROBE_CONFIG_DIR"); dir != "" {
		cfg.AddConfigPath(dir)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		cfg.AddConfigPath(filepath.Join(homeDir, ".capprobe"))
	}

	cfg.SetEnvPrefix("CAPPROBE")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault("profiles.dir", "profiles/runtime")
	cfg.SetDefault("bootstrap.path", "profiles/runtime/your_character.json")
	cfg.SetDefault("probe.ttl", "300s")
	cfg.SetDefault("probe.error_backoff", "30s")
	cfg.SetDefault("probe.verify", false)
	cfg.SetDefault("client.mode", clientModeNone)
	cfg.SetDefault("client.detect_cmd", []string{})
	cfg.SetDefault("client.best_cmd", []string{})
	cfg.SetDefault("client.mount_cmd", []string{})
	cfg.SetDefault("client.dismount_cmd", []string{})
	cfg.SetDefault("client.timeout", "10s")
	cfg.SetDefault("client.action_pace", "1500ms")
	cfg.SetDefault("sim.mounts", []string{})
	cfg.SetDefault("sim.best_mount", "")
	cfg.SetDefault("sim.mountable", []string{})
	cfg.SetDefault("logging.level", "info")

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return cfg, nil
}

func buildLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	return zcfg.Build()
}
