package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/veyrune/capprobe/internal/domain"
	"github.com/veyrune/capprobe/internal/ports"
)

// Client is a deterministic stand-in for the real game client, driven
// entirely by configuration. It backs demos, smoke tests, and any setup where
// no client tooling is installed.
type Client struct {
	cfg Config

	mu      sync.Mutex
	mounted string
}

type Config struct {
	Mounts    []string
	BestMount string
	// Mountable limits which names accept mount actions. Empty means every
	// name works.
	Mountable  []string
	UI         domain.UIFacts
	Skills     []string
	Essentials map[string]int
}

var (
	_ ports.MountDetector   = (*Client)(nil)
	_ ports.MountManager    = (*Client)(nil)
	_ ports.UIInspector     = (*Client)(nil)
	_ ports.SkillSource     = (*Client)(nil)
	_ ports.InventorySource = (*Client)(nil)
)

func NewClient(cfg Config) *Client {
	if cfg.UI == (domain.UIFacts{}) {
		cfg.UI = domain.UIFacts{Resolution: "1920x1080", UIScale: 1.0, Language: "en"}
	}

	return &Client{cfg: cfg}
}

func (c *Client) DetectMounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return append([]string(nil), c.cfg.Mounts...), nil
}

func (c *Client) BestMount(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return c.cfg.BestMount, nil
}

func (c *Client) Mount(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.mountable(name) {
		return fmt.Errorf("mount %q rejected", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mounted = name

	return nil
}

func (c *Client) Dismount(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mounted = ""

	return nil
}

// Mounted reports the currently mounted name, for assertions.
func (c *Client) Mounted() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mounted
}

func (c *Client) InspectUI(ctx context.Context) (domain.UIFacts, error) {
	if err := ctx.Err(); err != nil {
		return domain.UIFacts{}, err
	}

	return c.cfg.UI, nil
}

func (c *Client) LearnedSkills(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return append([]string(nil), c.cfg.Skills...), nil
}

func (c *Client) Essentials(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make(map[string]int, len(c.cfg.Essentials))
	for name, count := range c.cfg.Essentials {
		items[name] = count
	}

	return items, nil
}

func (c *Client) mountable(name string) bool {
	if len(c.cfg.Mountable) == 0 {
		return true
	}
	for _, candidate := range c.cfg.Mountable {
		if candidate == name {
			return true
		}
	}

	return false
}
