package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/veyrune/capprobe/internal/ports"
)

// Client shells out to the game-client tooling configured per command. Mount
// actions are paced so the client is never hammered faster than it can
// animate.
type Client struct {
	cfg     Config
	run     runFunc
	limiter *rate.Limiter
}

type Config struct {
	DetectCmd   []string
	BestCmd     []string
	MountCmd    []string
	DismountCmd []string
	Timeout     time.Duration
	ActionPace  time.Duration
}

type runFunc func(ctx context.Context, argv []string) (stdout string, stderr string, err error)

const (
	defaultTimeout    = 10 * time.Second
	defaultActionPace = 1500 * time.Millisecond
)

var ErrNotConfigured = errors.New("client command not configured")

var (
	_ ports.MountDetector = (*Client)(nil)
	_ ports.MountManager  = (*Client)(nil)
)

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ActionPace <= 0 {
		cfg.ActionPace = defaultActionPace
	}

	return &Client{
		cfg:     cfg,
		run:     runCommand,
		limiter: rate.NewLimiter(rate.Every(cfg.ActionPace), 1),
	}
}

func (c *Client) DetectMounts(ctx context.Context) ([]string, error) {
	stdout, stderr, err := c.exec(ctx, c.cfg.DetectCmd)
	if err != nil {
		return nil, formatError("detect mounts", err, stderr)
	}

	names, err := parseMountList([]byte(stdout))
	if err != nil {
		return nil, fmt.Errorf("parse detect output: %w", err)
	}

	return names, nil
}

// BestMount reports the client's preferred mount. Empty output is a real
// answer ("no usable mount"), distinct from a failed command.
func (c *Client) BestMount(ctx context.Context) (string, error) {
	stdout, stderr, err := c.exec(ctx, c.cfg.BestCmd)
	if err != nil {
		return "", formatError("query best mount", err, stderr)
	}

	return parseBestMount(stdout), nil
}

func (c *Client) Mount(ctx context.Context, name string) error {
	if len(c.cfg.MountCmd) == 0 {
		return fmt.Errorf("mount %q: %w", name, ErrNotConfigured)
	}

	argv := append(append([]string(nil), c.cfg.MountCmd...), name)
	return c.action(ctx, fmt.Sprintf("mount %q", name), argv)
}

func (c *Client) Dismount(ctx context.Context) error {
	return c.action(ctx, "dismount", c.cfg.DismountCmd)
}

func (c *Client) action(ctx context.Context, op string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, stderr, err := c.exec(ctx, argv)
	if err != nil {
		return formatError(op, err, stderr)
	}

	return nil
}

func (c *Client) exec(ctx context.Context, argv []string) (string, string, error) {
	if len(argv) == 0 {
		return "", "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	return c.run(ctx, argv)
}

// parseMountList accepts both shapes detection tooling emits: a flat JSON
// list of names, or an object carrying them under "mounts_found".
func parseMountList(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return nil, err
		}
		return names, nil
	}

	var report struct {
		MountsFound []string `json:"mounts_found"`
	}
	if err := json.Unmarshal(trimmed, &report); err != nil {
		return nil, err
	}

	return report.MountsFound, nil
}

// parseBestMount tolerates a bare name, a JSON string, or an object with a
// "name" field.
func parseBestMount(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	switch trimmed[0] {
	case '{':
		var report struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal([]byte(trimmed), &report); err == nil {
			return strings.TrimSpace(report.Name)
		}
	case '"':
		var name string
		if err := json.Unmarshal([]byte(trimmed), &name); err == nil {
			return strings.TrimSpace(name)
		}
	}

	return trimmed
}

func runCommand(ctx context.Context, argv []string) (string, string, error) {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return "", "", fmt.Errorf("locate client command %q: %w", argv[0], err)
	}

	cmd := exec.CommandContext(ctx, path, argv[1:]...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%s: %w: %s", op, err, stderr)
}
