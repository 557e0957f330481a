package template

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/onlook-dev/templates/internal/model"
)

// MarkerState is the result of probing a directory for package.json.
type MarkerState int

const (
	// MarkerPresent means package.json exists and could be read.
	MarkerPresent MarkerState = iota

	// MarkerMissing means there is no package.json (or it is a directory).
	MarkerMissing

	// MarkerUnreadable means package.json exists but reading it failed,
	// typically because of permissions.
	MarkerUnreadable
)

// String returns a short label for logs.
func (s MarkerState) String() string {
	switch s {
	case MarkerPresent:
		return "present"
	case MarkerMissing:
		return "missing"
	case MarkerUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// ProbeResult carries the marker state and, when the file was read, its
// contents.
type ProbeResult struct {
	State MarkerState

	// Data is the raw package.json content. Only set for MarkerPresent.
	Data []byte

	// Err is the underlying error for MarkerMissing/MarkerUnreadable.
	Err error
}

// Probe checks dir for a readable package.json.
//
// The file is actually read, not just stat'ed, so a file that exists but
// cannot be opened reports MarkerUnreadable. Callers decide what to do with
// each state; both non-present states exclude a directory from discovery.
func Probe(dir string) ProbeResult {
	path := filepath.Join(dir, model.MarkerFile)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ProbeResult{State: MarkerMissing, Err: err}
		}
		return ProbeResult{State: MarkerUnreadable, Err: err}
	}
	if info.IsDir() {
		return ProbeResult{State: MarkerMissing, Err: errors.New(path + " is a directory")}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ProbeResult{State: MarkerUnreadable, Err: err}
	}
	return ProbeResult{State: MarkerPresent, Data: data}
}

// packageMetadata is the subset of package.json shown by the list command.
type packageMetadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// applyMetadata fills display fields of tmpl from package.json data.
//
// Parsing is best effort: comments and trailing commas are stripped with
// jsonc first, and a document that still fails to parse leaves the fields
// empty. A malformed package.json never disqualifies a template; the
// build command is the one that gets to reject it.
func applyMetadata(tmpl *model.Template, data []byte) {
	var meta packageMetadata
	if err := json.Unmarshal(jsonc.ToJSON(data), &meta); err != nil {
		return
	}
	tmpl.PackageName = meta.Name
	tmpl.Version = meta.Version
}
