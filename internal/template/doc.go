// Package template finds and validates publishable template directories.
//
// A template is an immediate child directory of the root that contains a
// readable package.json. This is the only structural convention the
// publisher depends on.
//
// Key responsibilities:
//   - Probe a directory for its package.json marker, telling "missing"
//     apart from "present but unreadable"
//   - Enumerate the root and keep only qualifying directories (Discover)
//   - Validate a single user-supplied template name (Check)
//   - Read display metadata from package.json (JSONC tolerant, best effort)
package template
