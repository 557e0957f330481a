package docker

import (
	"fmt"
	"strings"
	"time"
)

// Label keys stamped on every build container. They let a later run find
// containers left behind by an interrupted publish.
const (
	// LabelPrefix namespaces all csb-publish labels.
	LabelPrefix = "csb."

	// LabelManagedBy marks a container as created by csb-publish.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelTemplate stores the template name being built.
	LabelTemplate = LabelPrefix + "template"

	// LabelCreatedAt stores the RFC3339 creation time (UTC).
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the value of LabelManagedBy on every build container.
const ManagedByValue = "csb-publish"

// BuildLabels returns the labels for a build container of the named template.
func BuildLabels(templateName string, createdAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelTemplate:  templateName,
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// BuildInfo is what can be recovered from a build container's labels.
type BuildInfo struct {
	Template  string
	CreatedAt time.Time
}

// ParseLabels is the inverse of BuildLabels. It fails when a required label
// is missing or the container is not managed by csb-publish.
func ParseLabels(labels map[string]string) (*BuildInfo, error) {
	var missing []string
	for _, key := range []string{LabelManagedBy, LabelTemplate, LabelCreatedAt} {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
	}

	return &BuildInfo{Template: labels[LabelTemplate], CreatedAt: createdAt}, nil
}

// ContainerName returns a Docker-safe container name for a build.
// Docker names allow [a-zA-Z0-9][a-zA-Z0-9_.-]; anything else becomes "-".
func ContainerName(templateName string, createdAt time.Time) string {
	var b strings.Builder
	for _, r := range templateName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return fmt.Sprintf("csb-build-%s-%d", b.String(), createdAt.Unix())
}
