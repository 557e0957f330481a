package runner

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/onlook-dev/templates/internal/docker"
)

// DefaultImage provides bunx for the default package runner.
const DefaultImage = "oven/bun:1"

// DockerRunner runs the build command inside a container, with
// Command.Dir bind-mounted as the working directory.
//
// Only Command.Env reaches the container; the host environment is not
// forwarded since host paths are meaningless inside the image. Stdin is not
// connected. Unlike ExecRunner, a cancelled context removes the container.
type DockerRunner struct {
	Image string

	once    sync.Once
	client  *docker.Client
	initErr error

	// OnStaleRemoved is called once with the number of leftover build
	// containers removed before the first build. Optional.
	OnStaleRemoved func(n int)
}

// NewDockerRunner creates a DockerRunner for image (DefaultImage if empty).
func NewDockerRunner(image string) *DockerRunner {
	if image == "" {
		image = DefaultImage
	}
	return &DockerRunner{Image: image}
}

// init connects to the daemon, cleans up leftovers and makes sure the image
// is present. It runs once per DockerRunner.
func (r *DockerRunner) init(ctx context.Context) error {
	r.once.Do(func() {
		c, err := docker.NewClient()
		if err != nil {
			r.initErr = err
			return
		}
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			r.initErr = err
			return
		}

		removed, err := c.RemoveStaleBuilds(ctx)
		if err == nil && removed > 0 && r.OnStaleRemoved != nil {
			r.OnStaleRemoved(removed)
		}

		if err := c.EnsureImage(ctx, r.Image); err != nil {
			_ = c.Close()
			r.initErr = err
			return
		}
		r.client = c
	})
	return r.initErr
}

// Start launches cmd in a new container.
func (r *DockerRunner) Start(ctx context.Context, cmd Command) (Handle, error) {
	if len(cmd.Args) == 0 {
		return nil, errors.New("runner: empty command")
	}
	if err := r.init(ctx); err != nil {
		return nil, err
	}

	hostDir := cmd.Dir
	if hostDir == "" {
		hostDir = "."
	}
	hostDir, err := filepath.Abs(hostDir)
	if err != nil {
		return nil, err
	}

	build, err := r.client.StartBuild(ctx, docker.BuildSpec{
		Image:    r.Image,
		Cmd:      cmd.Args,
		Env:      MergeEnv(nil, cmd.Env),
		HostDir:  hostDir,
		Template: cmd.Label,
		Stdout:   cmd.Streams.Stdout,
		Stderr:   cmd.Streams.Stderr,
	})
	if err != nil {
		return nil, err
	}
	return &dockerHandle{ctx: ctx, build: build}, nil
}

// Close releases the Docker client, if one was created.
func (r *DockerRunner) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

type dockerHandle struct {
	ctx   context.Context
	build *docker.Build
}

func (h *dockerHandle) Wait() (int, error) {
	return h.build.Wait(h.ctx)
}
