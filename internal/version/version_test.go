package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveVersion_Stamped(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "v1.4.0"
	assert.Equal(t, "v1.4.0", ResolveVersion())
	assert.True(t, IsRelease())
}

func TestShort_StampedWithCommit(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version = "v1.4.0"
	GitCommit = "0123456789abcdef"
	assert.Equal(t, "v1.4.0 (0123456)", Short())

	Version = "dev"
	assert.Equal(t, "dev-0123456", Short())
	assert.False(t, IsRelease())
}

func TestDetailed_ContainsPlatform(t *testing.T) {
	out := Detailed()
	assert.Contains(t, out, "Version: ")
	assert.Contains(t, out, "Go: go")
	assert.Contains(t, out, "Platform: ")
}

func TestParseBuildTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"rfc3339", "2026-08-29T10:00:00Z", false},
		{"no timezone", "2026-08-29T10:00:00", false},
		{"space separated", "2026-08-29 10:00:00", false},
		{"unknown", "unknown", true},
		{"empty", "", true},
		{"garbage", "yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseBuildTime(tt.input)
			assert.Equal(t, tt.zero, got.IsZero())
			if !tt.zero {
				assert.Equal(t, time.August, got.Month())
			}
		})
	}
}
