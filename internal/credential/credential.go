// Package credential validates the API key required by the CodeSandbox
// build command.
//
// The key is process-wide environment state. It is read exactly once, at
// the start of a command, and then passed explicitly to the publisher so
// that nothing downstream touches the global environment again.
package credential

import (
	"fmt"
	"os"
	"strings"

	"github.com/onlook-dev/templates/internal/model"
)

const (
	// DefaultEnvVar is the environment variable holding the API key.
	DefaultEnvVar = "CSB_API_KEY"

	// DashboardURL is where users create API keys.
	DashboardURL = "https://codesandbox.io/dashboard/settings"
)

// LookupFunc has the signature of os.LookupEnv. Tests substitute a map.
type LookupFunc func(key string) (string, bool)

// Validate reads the credential named envVar through lookup.
//
// An unset or empty variable yields a model.CLIError of KindConfig whose
// message explains what is missing, where to get a key, and how to set it.
// Any non-empty value is accepted as is; the build command judges it.
func Validate(lookup LookupFunc, envVar string) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if envVar == "" {
		envVar = DefaultEnvVar
	}

	value, ok := lookup(envVar)
	if !ok || value == "" {
		return "", model.NewCLIError(model.KindConfig, MissingMessage(envVar))
	}
	return value, nil
}

// MissingMessage returns the guidance printed when the credential is absent.
func MissingMessage(envVar string) string {
	return strings.Join([]string{
		fmt.Sprintf("%s environment variable is required", envVar),
		fmt.Sprintf("Get your API key from: %s", DashboardURL),
		fmt.Sprintf("Then set it: export %s=your_api_key", envVar),
	}, "\n")
}
