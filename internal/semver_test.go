package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxSemver(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		want     string
	}{
		{
			name: "no versions",
		},
		{
			name:     "simple version",
			versions: []string{"v0.2.0", "v1.2.0", "v1.0.0", "v1.1.0"},
			want:     "v1.2.0",
		},
		{
			name:     "pre-release version",
			versions: []string{"v0.2.0", "v1.2.0", "v1.2.0-rc0", "v1.0.0", "v1.1.0"},
			want:     "v1.2.0",
		},
		{
			name:     "unparseable versions are ignored",
			versions: []string{"nightly", "v0.3.0", " ", "release-2023"},
			want:     "v0.3.0",
		},
		{
			name:     "nothing parses",
			versions: []string{"nightly", "stable"},
			want:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxSemver(tt.versions))
		})
	}
}

func TestIsSemver(t *testing.T) {
	assert.True(t, IsSemver("v1.2.3"))
	assert.True(t, IsSemver("1.2"))
	assert.False(t, IsSemver("latest"))
}
