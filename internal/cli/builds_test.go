package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlook-dev/templates/internal/docker"
)

func sampleBuilds(now time.Time) []docker.BuildContainer {
	return []docker.BuildContainer{
		{ID: "aaa", Name: "csb-build-next15-1", State: "exited",
			BuildInfo: docker.BuildInfo{Template: "next15", CreatedAt: now.Add(-3 * time.Hour)}},
		{ID: "bbb", Name: "csb-build-vite-2", State: "running",
			BuildInfo: docker.BuildInfo{Template: "vite", CreatedAt: now.Add(-30 * time.Second)}},
	}
}

func TestSelectBuilds(t *testing.T) {
	builds := sampleBuilds(time.Now())

	stopped := selectBuilds(builds, false)
	require.Len(t, stopped, 1)
	assert.Equal(t, "aaa", stopped[0].ID)

	assert.Len(t, selectBuilds(builds, true), 2)
	assert.Empty(t, selectBuilds(nil, true))
}

func TestPromptConfirmation(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  y  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptConfirmation(strings.NewReader(tt.input), &out, sampleBuilds(time.Now())[:1])
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "csb-build-next15-1 (template next15, exited)")
		})
	}
}

func TestPrintBuilds(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("text", func(t *testing.T) {
		jsonOutput = false
		var out bytes.Buffer
		printBuilds(&out, sampleBuilds(now), now)
		assert.Contains(t, out.String(), "TEMPLATE")
		assert.Contains(t, out.String(), "csb-build-vite-2")
		assert.Contains(t, out.String(), "3h")
	})

	t.Run("empty", func(t *testing.T) {
		jsonOutput = false
		var out bytes.Buffer
		printBuilds(&out, nil, now)
		assert.Equal(t, "No build containers found.\n", out.String())
	})

	t.Run("json", func(t *testing.T) {
		jsonOutput = true
		defer func() { jsonOutput = false }()

		var out bytes.Buffer
		printBuilds(&out, sampleBuilds(now), now)

		var payload struct {
			Builds []buildJSON `json:"builds"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &payload))
		require.Len(t, payload.Builds, 2)
		assert.Equal(t, "next15", payload.Builds[0].Template)
	})
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "-"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m"},
		{3 * time.Hour, "3h"},
		{50 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAge(tt.d), tt.d.String())
	}
}
