package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/onlook-dev/templates/internal/model"
)

// DefaultWorkDir is where the template root is mounted inside the container.
const DefaultWorkDir = "/work"

// removeTimeout bounds container removal, which runs on a fresh context so
// that it still happens after the caller's context was cancelled.
const removeTimeout = 10 * time.Second

// logDrainTimeout bounds how long an interrupted Wait keeps copying output.
// The log stream shares the cancelled context, so it normally ends at once.
const logDrainTimeout = 2 * time.Second

// BuildSpec describes one containerised run of the build command.
type BuildSpec struct {
	// Image is the image that provides the package runner (e.g. oven/bun:1).
	Image string

	// Cmd is the argument vector executed in the container.
	Cmd []string

	// Env holds KEY=VALUE pairs set in the container. Only these variables
	// are passed; the host environment is not forwarded.
	Env []string

	// HostDir is the absolute host path bind-mounted at WorkDir.
	HostDir string

	// WorkDir defaults to DefaultWorkDir.
	WorkDir string

	// Template names the template being built; it ends up in labels and
	// the container name.
	Template string

	// Stdout and Stderr receive the demultiplexed container output.
	// Nil discards the stream.
	Stdout io.Writer
	Stderr io.Writer
}

// Build is a started build container.
type Build struct {
	client   *Client
	id       string
	logsDone chan error
}

// ID returns the container ID.
func (b *Build) ID() string {
	return b.id
}

// EnsureImage pulls ref unless an image with that reference is already
// present locally. Pull progress is discarded.
func (c *Client) EnsureImage(ctx context.Context, ref string) error {
	existing, err := c.inner.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return model.WrapCLIError(model.KindRuntime, "failed to list Docker images", err)
	}
	if len(existing) > 0 {
		return nil
	}

	reader, err := c.inner.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return model.WrapCLIError(model.KindRuntime, fmt.Sprintf("failed to pull image %s", ref), err)
	}
	defer func() { _ = reader.Close() }()

	// The pull only completes once the progress stream has been consumed.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return model.WrapCLIError(model.KindRuntime, fmt.Sprintf("failed to pull image %s", ref), err)
	}
	return nil
}

// StartBuild creates and starts a build container and begins streaming its
// output. The caller must call Wait, which also removes the container.
func (c *Client) StartBuild(ctx context.Context, spec BuildSpec) (*Build, error) {
	if len(spec.Cmd) == 0 {
		return nil, errors.New("docker: empty build command")
	}
	workDir := spec.WorkDir
	if workDir == "" {
		workDir = DefaultWorkDir
	}

	now := time.Now()
	resp, err := c.inner.ContainerCreate(ctx,
		&container.Config{
			Image:      spec.Image,
			Cmd:        spec.Cmd,
			Env:        spec.Env,
			WorkingDir: workDir,
			Labels:     BuildLabels(spec.Template, now),
		},
		&container.HostConfig{
			Mounts: []mount.Mount{
				{
					Type:   mount.TypeBind,
					Source: spec.HostDir,
					Target: workDir,
				},
			},
		},
		nil,
		nil,
		ContainerName(spec.Template, now),
	)
	if err != nil {
		return nil, model.WrapCLIError(model.KindRuntime, "failed to create build container", err)
	}

	b := &Build{client: c, id: resp.ID, logsDone: make(chan error, 1)}

	if err := c.inner.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		b.remove()
		return nil, model.WrapCLIError(model.KindRuntime, "failed to start build container", err)
	}

	logs, err := c.inner.ContainerLogs(ctx, resp.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		b.remove()
		return nil, model.WrapCLIError(model.KindRuntime, "failed to attach to build container logs", err)
	}

	stdout, stderr := spec.Stdout, spec.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	// Without a TTY the log stream is multiplexed; stdcopy splits it back
	// into stdout and stderr as the bytes arrive.
	go func() {
		defer func() { _ = logs.Close() }()
		_, copyErr := stdcopy.StdCopy(stdout, stderr, logs)
		b.logsDone <- copyErr
	}()

	return b, nil
}

// Wait blocks until the container stops, drains its output, removes it,
// and returns its exit code. If ctx is cancelled first, the container is
// force-removed and ctx.Err() is returned with code -1.
func (b *Build) Wait(ctx context.Context) (int, error) {
	defer b.remove()

	statusCh, errCh := b.client.inner.ContainerWait(ctx, b.id, container.WaitConditionNotRunning)

	select {
	case status := <-statusCh:
		// Output is complete once the log stream hits EOF.
		<-b.logsDone
		if status.Error != nil {
			return int(status.StatusCode), fmt.Errorf("build container: %s", status.Error.Message)
		}
		return int(status.StatusCode), nil

	case err := <-errCh:
		if ctxErr := ctx.Err(); ctxErr != nil {
			b.drainLogs(logDrainTimeout)
			return -1, ctxErr
		}
		return -1, model.WrapCLIError(model.KindRuntime, "failed waiting for build container", err)

	case <-ctx.Done():
		b.drainLogs(logDrainTimeout)
		return -1, ctx.Err()
	}
}

// drainLogs waits up to timeout for the log copier to finish, so output
// already received is written before the container is removed. It reports
// whether the copier finished; output arriving after the timeout is lost.
func (b *Build) drainLogs(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-b.logsDone:
		return true
	case <-timer.C:
		return false
	}
}

func (b *Build) remove() {
	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()
	_ = b.client.inner.ContainerRemove(ctx, b.id, container.RemoveOptions{Force: true})
}

// BuildContainer is a build container found on the daemon.
type BuildContainer struct {
	ID    string
	Name  string
	State string
	BuildInfo
}

// Running reports whether the container is still executing a build.
func (b BuildContainer) Running() bool {
	return b.State == "running"
}

// ListBuilds returns every container labelled as a csb-publish build,
// oldest first. Containers with malformed labels are ignored.
func (c *Client) ListBuilds(ctx context.Context) ([]BuildContainer, error) {
	list, err := c.inner.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", LabelManagedBy+"="+ManagedByValue)),
	})
	if err != nil {
		return nil, model.WrapCLIError(model.KindRuntime, "failed to list build containers", err)
	}

	builds := make([]BuildContainer, 0, len(list))
	for _, summary := range list {
		info, err := ParseLabels(summary.Labels)
		if err != nil {
			continue
		}
		name := summary.ID
		if len(summary.Names) > 0 {
			name = strings.TrimPrefix(summary.Names[0], "/")
		}
		builds = append(builds, BuildContainer{
			ID:        summary.ID,
			Name:      name,
			State:     summary.State,
			BuildInfo: *info,
		})
	}
	sort.Slice(builds, func(i, j int) bool {
		return builds[i].CreatedAt.Before(builds[j].CreatedAt)
	})
	return builds, nil
}

// RemoveBuild force-removes a build container.
func (c *Client) RemoveBuild(ctx context.Context, id string) error {
	if err := c.inner.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		return model.WrapCLIError(model.KindRuntime,
			fmt.Sprintf("failed to remove build container %s", id), err)
	}
	return nil
}

// RemoveStaleBuilds removes stopped build containers left behind by
// earlier runs that were interrupted before cleanup. Running build
// containers are left alone since another publish may own them.
// It returns the number of containers removed.
func (c *Client) RemoveStaleBuilds(ctx context.Context) (int, error) {
	builds, err := c.ListBuilds(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, b := range builds {
		if b.Running() {
			continue
		}
		if err := c.RemoveBuild(ctx, b.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
