package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/onlook-dev/templates/internal/model"
)

// discoverOne builds a fresh root holding a single directory and reports
// whether Discover returned it.
func discoverOne(name string, withMarker bool, extraFiles int) (bool, error) {
	root, err := os.MkdirTemp("", "discover-prop-")
	if err != nil {
		return false, err
	}
	defer os.RemoveAll(root)

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	if withMarker {
		if err := os.WriteFile(filepath.Join(dir, model.MarkerFile), []byte(`{}`), 0o644); err != nil {
			return false, err
		}
	}
	// Unrelated content must never change the outcome.
	for i := 0; i < extraFiles; i++ {
		p := filepath.Join(dir, "file"+string(rune('a'+i))+".txt")
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			return false, err
		}
	}

	templates, err := Discover(root, DiscoverOptions{})
	if err != nil {
		return false, err
	}
	return len(templates) == 1 && templates[0].Name == name, nil
}

// TestDiscoverProperties checks the inclusion rule over generated names.
func TestDiscoverProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("directories without package.json are never templates", prop.ForAll(
		func(name string, extra int) bool {
			found, err := discoverOne(name, false, extra)
			return err == nil && !found
		},
		gen.Identifier(),
		gen.IntRange(0, 5),
	))

	properties.Property("hidden directories are excluded even with package.json", prop.ForAll(
		func(name string) bool {
			found, err := discoverOne("."+name, true, 0)
			return err == nil && !found
		},
		gen.Identifier(),
	))

	properties.Property("reserved directories are excluded even with package.json", prop.ForAll(
		func(name string) bool {
			found, err := discoverOne(name, true, 0)
			return err == nil && !found
		},
		gen.OneConstOf("scripts", "node_modules"),
	))

	properties.Property("visible unreserved directories with package.json are templates", prop.ForAll(
		func(name string, extra int) bool {
			if name == "scripts" || name == "node_modules" {
				return true
			}
			found, err := discoverOne(name, true, extra)
			return err == nil && found
		},
		gen.Identifier(),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}
