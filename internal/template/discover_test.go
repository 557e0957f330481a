package template

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlook-dev/templates/internal/model"
)

// makeDir creates root/name and, when withMarker is true, a package.json
// inside it with the given content.
func makeDir(t *testing.T, root, name string, withMarker bool, content string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if withMarker {
		require.NoError(t, os.WriteFile(filepath.Join(dir, model.MarkerFile), []byte(content), 0o644))
	}
}

func names(templates []model.Template) []string {
	out := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		out = append(out, tmpl.Name)
	}
	return out
}

// TestDiscover_FiltersEntries builds a root with one example of every rule
// and checks that only real templates survive.
func TestDiscover_FiltersEntries(t *testing.T) {
	root := t.TempDir()

	makeDir(t, root, "next15", true, `{"name": "next15", "version": "0.1.0"}`)
	makeDir(t, root, "vite", true, `{}`)
	makeDir(t, root, "empty", false, "")
	makeDir(t, root, ".git", true, `{}`)
	makeDir(t, root, "scripts", true, `{}`)
	makeDir(t, root, "node_modules", true, `{}`)
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# templates"), 0o644))

	var skipped []string
	templates, err := Discover(root, DiscoverOptions{
		OnSkip: func(name, reason string) { skipped = append(skipped, name+":"+reason) },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"next15", "vite"}, names(templates))
	assert.Equal(t, "./next15", templates[0].Path)
	assert.Equal(t, "next15", templates[0].PackageName)
	assert.Equal(t, "0.1.0", templates[0].Version)

	assert.ElementsMatch(t, []string{
		".git:hidden",
		"empty:package.json missing",
		"node_modules:reserved",
		"scripts:reserved",
	}, skipped)
}

func TestDiscover_EmptyRoot(t *testing.T) {
	templates, err := Discover(t.TempDir(), DiscoverOptions{})
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), DiscoverOptions{})
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.KindRuntime, cliErr.Kind)
}

// TestDiscover_CustomExclude verifies that Exclude replaces the defaults.
func TestDiscover_CustomExclude(t *testing.T) {
	root := t.TempDir()
	makeDir(t, root, "scripts", true, `{}`)
	makeDir(t, root, "legacy", true, `{}`)

	templates, err := Discover(root, DiscoverOptions{Exclude: []string{"legacy"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"scripts"}, names(templates))

	templates, err = Discover(root, DiscoverOptions{Exclude: []string{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy", "scripts"}, names(templates))
}

// TestDiscover_MarkerIsDirectory covers a package.json that is itself a
// directory: it cannot be read, so the template is excluded.
func TestDiscover_MarkerIsDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "odd", model.MarkerFile), 0o755))

	templates, err := Discover(root, DiscoverOptions{})
	require.NoError(t, err)
	assert.Empty(t, templates)
}

// TestDiscover_MalformedPackageJSON keeps the template but leaves metadata empty.
func TestDiscover_MalformedPackageJSON(t *testing.T) {
	root := t.TempDir()
	makeDir(t, root, "broken", true, `{"name": `)
	makeDir(t, root, "commented", true, "{\n  // dev name\n  \"name\": \"commented\",\n}")

	templates, err := Discover(root, DiscoverOptions{})
	require.NoError(t, err)
	require.Len(t, templates, 2)

	assert.Equal(t, "broken", templates[0].Name)
	assert.Empty(t, templates[0].PackageName)
	assert.Equal(t, "commented", templates[1].PackageName)
}

func TestProbe(t *testing.T) {
	root := t.TempDir()
	makeDir(t, root, "ok", true, `{"name":"ok"}`)
	makeDir(t, root, "none", false, "")

	present := Probe(filepath.Join(root, "ok"))
	assert.Equal(t, MarkerPresent, present.State)
	assert.JSONEq(t, `{"name":"ok"}`, string(present.Data))
	assert.NoError(t, present.Err)

	missing := Probe(filepath.Join(root, "none"))
	assert.Equal(t, MarkerMissing, missing.State)
	assert.Error(t, missing.Err)

	gone := Probe(filepath.Join(root, "does-not-exist"))
	assert.Equal(t, MarkerMissing, gone.State)
}

// TestProbe_Unreadable distinguishes a permission failure from a missing
// file. Skipped as root, which can read any file.
func TestProbe_Unreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root: file permissions are not enforced")
	}

	root := t.TempDir()
	makeDir(t, root, "locked", true, `{}`)
	marker := filepath.Join(root, "locked", model.MarkerFile)
	require.NoError(t, os.Chmod(marker, 0o000))
	t.Cleanup(func() { _ = os.Chmod(marker, 0o644) })

	result := Probe(filepath.Join(root, "locked"))
	assert.Equal(t, MarkerUnreadable, result.State)

	templates, err := Discover(root, DiscoverOptions{})
	require.NoError(t, err)
	assert.Empty(t, templates, "unreadable package.json must exclude the directory")
}

func TestMarkerState_String(t *testing.T) {
	assert.Equal(t, "present", MarkerPresent.String())
	assert.Equal(t, "missing", MarkerMissing.String())
	assert.Equal(t, "unreadable", MarkerUnreadable.String())
	assert.Equal(t, "unknown", MarkerState(42).String())
}

func TestCheck(t *testing.T) {
	root := t.TempDir()
	makeDir(t, root, "next15", true, `{"name":"next15-starter"}`)
	makeDir(t, root, "bare", false, "")

	t.Run("valid template", func(t *testing.T) {
		tmpl, err := Check(root, "next15")
		require.NoError(t, err)
		assert.Equal(t, "next15", tmpl.Name)
		assert.Equal(t, "./next15", tmpl.Path)
		assert.Equal(t, "next15-starter", tmpl.PackageName)
	})

	for _, name := range []string{"bare", "missing", "", "../next15", "next15/src"} {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := Check(root, name)
			require.Error(t, err)

			var cliErr *model.CLIError
			require.True(t, errors.As(err, &cliErr))
			assert.Equal(t, model.KindDiscovery, cliErr.Kind)
			assert.Contains(t, cliErr.Message, "not found or missing package.json")
		})
	}
}

// TestCheck_SymlinkEscape verifies that a symlink pointing outside the root
// is resolved inside the root and therefore not found.
func TestCheck_SymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	makeDir(t, outside, "secret", true, `{}`)

	root := t.TempDir()
	if err := os.Symlink(filepath.Join(outside, "secret"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, err := Check(root, "link")
	assert.Error(t, err)
}
