package docker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/onlook-dev/templates/internal/model"
)

// pingTimeout bounds the reachability check made before the first build,
// so a paused Docker Desktop fails the publish quickly.
const pingTimeout = 5 * time.Second

// windowsPipe is Docker Desktop's engine endpoint on Windows.
const windowsPipe = "npipe:////./pipe/docker_engine"

// runtimeHint is appended to every connection error.
const runtimeHint = "Start Docker, point DOCKER_HOST at a running daemon, or publish with --runtime exec"

// Client is the Docker Engine connection used by the docker runtime to run
// build containers.
type Client struct {
	inner *client.Client
	host  string
}

// NewClient connects to the daemon that should run build containers.
//
// DOCKER_HOST wins when set. Otherwise the first existing socket from
// socketCandidates is used (named pipe on Windows). The connection itself
// is only checked by Ping.
func NewClient() (*Client, error) {
	host, err := resolveHost(os.Getenv, runtime.GOOS)
	if err != nil {
		return nil, unavailable("no Docker daemon found for build containers", err)
	}

	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("cannot use Docker host %q for build containers", host), err)
	}
	return &Client{inner: c, host: host}, nil
}

// resolveHost picks the daemon address for goos.
func resolveHost(getenv func(string) string, goos string) (string, error) {
	if host := getenv("DOCKER_HOST"); host != "" {
		return host, nil
	}
	if goos == "windows" {
		return windowsPipe, nil
	}

	home, _ := os.UserHomeDir()
	candidates := socketCandidates(goos, home, getenv("XDG_RUNTIME_DIR"))
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("no socket at %v", candidates)
}

// socketCandidates lists Unix socket paths in order of preference: the
// system socket, then the per-user one (rootless Docker on Linux, newer
// Docker Desktop on macOS). Empty home or runtime dirs are left out.
func socketCandidates(goos, home, xdgRuntimeDir string) []string {
	paths := []string{"/var/run/docker.sock"}
	switch goos {
	case "linux":
		if xdgRuntimeDir != "" {
			paths = append(paths, filepath.Join(xdgRuntimeDir, "docker.sock"))
		}
	case "darwin":
		if home != "" {
			paths = append(paths, filepath.Join(home, ".docker", "run", "docker.sock"))
		}
	}
	return paths
}

// Ping checks that the daemon answers before any build container is created.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(ctx); err != nil {
		return unavailable(fmt.Sprintf("Docker daemon at %s is not responding", c.host), err)
	}
	return nil
}

// Close releases the connection. A zero Client is fine.
func (c *Client) Close() error {
	if c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

// unavailable builds the error shown when the docker runtime cannot reach
// a daemon.
func unavailable(what string, err error) *model.CLIError {
	return model.WrapCLIError(model.KindRuntime, what+"\n"+runtimeHint, err)
}
