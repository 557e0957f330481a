package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/onlook-dev/templates/internal/model"
)

// DefaultExclude lists the directory names that are never templates even
// when they contain a package.json: the publishing scripts themselves and
// the dependency cache.
var DefaultExclude = []string{"scripts", "node_modules"}

// DiscoverOptions configures Discover.
type DiscoverOptions struct {
	// Exclude lists reserved directory names. Nil means DefaultExclude;
	// an empty non-nil slice disables the reserved-name rule.
	Exclude []string

	// OnSkip, if set, is called for every child directory that was
	// rejected, with a short reason. Used for verbose logging.
	OnSkip func(name, reason string)
}

func (o DiscoverOptions) excluded(name string) bool {
	exclude := o.Exclude
	if exclude == nil {
		exclude = DefaultExclude
	}
	for _, e := range exclude {
		if name == e {
			return true
		}
	}
	return false
}

func (o DiscoverOptions) skip(name, reason string) {
	if o.OnSkip != nil {
		o.OnSkip(name, reason)
	}
}

// Discover enumerates the immediate children of root and returns the
// templates among them, in enumeration order.
//
// A child qualifies when it is a directory, its name does not start with
// ".", it is not a reserved name, and it contains a readable package.json.
// An empty result is not an error.
func Discover(root string, opts DiscoverOptions) ([]model.Template, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, model.WrapCLIError(model.KindRuntime,
			fmt.Sprintf("failed to read directory %s", root), err)
	}

	templates := make([]model.Template, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()

		// Regular files and symlinks are not candidates. DirEntry.IsDir
		// does not follow symlinks, so a symlinked directory is skipped.
		if !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(name, ".") {
			opts.skip(name, "hidden")
			continue
		}
		if opts.excluded(name) {
			opts.skip(name, "reserved")
			continue
		}

		probe := Probe(filepath.Join(root, name))
		if probe.State != MarkerPresent {
			opts.skip(name, "package.json "+probe.State.String())
			continue
		}

		tmpl := model.NewTemplate(name)
		applyMetadata(&tmpl, probe.Data)
		templates = append(templates, tmpl)
	}

	return templates, nil
}

// Check validates a user-supplied template name against root.
//
// The name must be a plain directory name that stays inside root after
// symlink resolution, and the directory must contain a readable
// package.json. Every failure is a model.CLIError of KindDiscovery.
func Check(root, name string) (model.Template, error) {
	if err := model.ValidateTemplateName(name); err != nil {
		return model.Template{}, model.WrapCLIError(model.KindDiscovery,
			fmt.Sprintf("Template directory '%s' not found or missing package.json", name), err)
	}

	// SecureJoin resolves symlinks as if root were the filesystem root, so a
	// template directory that is a symlink pointing outside root cannot be
	// used to publish arbitrary paths.
	dir, err := securejoin.SecureJoin(root, name)
	if err != nil {
		return model.Template{}, model.WrapCLIError(model.KindDiscovery,
			fmt.Sprintf("Template directory '%s' not found or missing package.json", name), err)
	}

	probe := Probe(dir)
	if probe.State != MarkerPresent {
		return model.Template{}, model.WrapCLIError(model.KindDiscovery,
			fmt.Sprintf("Template directory '%s' not found or missing package.json", name), probe.Err)
	}

	tmpl := model.NewTemplate(name)
	applyMetadata(&tmpl, probe.Data)
	return tmpl, nil
}
