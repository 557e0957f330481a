// Package docker provides Docker Engine API wrappers used to run the
// template build command inside a container instead of on the host.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Labels that mark build containers as owned by csb-publish
//   - The build container lifecycle: pull image, create, start, stream
//     logs, wait for the exit code, remove
//   - Listing and removing containers left behind by interrupted builds
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
