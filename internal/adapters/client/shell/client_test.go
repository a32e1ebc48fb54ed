package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeClient(run runFunc) *Client {
	client := NewClient(Config{
		DetectCmd:   []string{"probe-client", "detect-mounts"},
		BestCmd:     []string{"probe-client", "best-mount"},
		MountCmd:    []string{"probe-client", "mount"},
		DismountCmd: []string{"probe-client", "dismount"},
		ActionPace:  time.Millisecond,
	})
	client.run = run

	return client
}

func TestDetectMountsParsesFlatList(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(context.Context, []string) (string, string, error) {
		return `["war-bear", "rented-horse"]`, "", nil
	})

	names, err := client.DetectMounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"war-bear", "rented-horse"}, names)
}

func TestDetectMountsParsesMountsFoundObject(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(context.Context, []string) (string, string, error) {
		return `{"mounts_found": ["av-21"], "scanned_at": 1755168000}`, "", nil
	})

	names, err := client.DetectMounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"av-21"}, names)
}

func TestDetectMountsEmptyOutputMeansNoMounts(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(context.Context, []string) (string, string, error) {
		return "\n", "", nil
	})

	names, err := client.DetectMounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDetectMountsCommandFailureIncludesStderr(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(context.Context, []string) (string, string, error) {
		return "", "window not focused", errors.New("exit status 2")
	})

	_, err := client.DetectMounts(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "detect mounts")
	assert.ErrorContains(t, err, "window not focused")
}

func TestDetectMountsMalformedOutputReturnsError(t *testing.T) {
	t.Parallel()

	client := newFakeClient(func(context.Context, []string) (string, string, error) {
		return "mounts: many", "", nil
	})

	_, err := client.DetectMounts(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "parse detect output")
}

func TestBestMountAcceptsAllOutputShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stdout string
		want   string
	}{
		{name: "bare name", stdout: "av-21\n", want: "av-21"},
		{name: "json string", stdout: `"war-bear"`, want: "war-bear"},
		{name: "json object", stdout: `{"name": "rented-horse", "speed": 80}`, want: "rented-horse"},
		{name: "empty means none", stdout: "", want: ""},
		{name: "null object name means none", stdout: `{"name": ""}`, want: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newFakeClient(func(context.Context, []string) (string, string, error) {
				return tc.stdout, "", nil
			})

			got, err := client.BestMount(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMountAppendsNameToConfiguredCommand(t *testing.T) {
	t.Parallel()

	var gotArgv []string
	client := newFakeClient(func(_ context.Context, argv []string) (string, string, error) {
		gotArgv = argv
		return "", "", nil
	})

	require.NoError(t, client.Mount(context.Background(), "war-bear"))
	assert.Equal(t, []string{"probe-client", "mount", "war-bear"}, gotArgv)

	require.NoError(t, client.Dismount(context.Background()))
	assert.Equal(t, []string{"probe-client", "dismount"}, gotArgv)
}

func TestMountUnconfiguredCommandReturnsErrNotConfigured(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{ActionPace: time.Millisecond})
	client.run = func(context.Context, []string) (string, string, error) {
		t.Fatal("run should not be called")
		return "", "", nil
	}

	err := client.Mount(context.Background(), "war-bear")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestMountCanceledContextStopsPacing(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{
		MountCmd:   []string{"probe-client", "mount"},
		ActionPace: time.Hour,
	})
	client.run = func(context.Context, []string) (string, string, error) {
		return "", "", nil
	}

	require.NoError(t, client.Mount(context.Background(), "war-bear"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Mount(ctx, "war-bear")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
