package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenylistBlocked(t *testing.T) {
	deny := NewDenylist()

	tests := []struct {
		name    string
		url     string
		blocked bool
	}{
		{"reddit thread", "https://www.reddit.com/r/ApplyingToCollege/comments/abc", true},
		{"quora answer", "https://www.quora.com/What-are-good-internships", true},
		{"forum path", "https://example.org/forum/thread-42", true},
		{"blog path", "https://example.org/blog/top-programs", true},
		{"job board", "https://www.indeed.com/viewjob?jk=123", true},
		{"social short domain", "https://x.com/someuser/status/1", true},
		{"case insensitive", "https://WWW.LINKEDIN.COM/jobs/view/1", true},
		{"university page", "https://www.mit.edu/summer-programs/", false},
		{"nonprofit page", "https://www.societyforscience.org/isef/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blocked, deny.Blocked(tt.url))
		})
	}
}

func TestLoadDenylistExtendsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "denylist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("patterns:\n  - chegg.com\n  - \"  Coursehero.com \"\n"), 0o644))

	deny, err := LoadDenylist(path)
	require.NoError(t, err)

	assert.True(t, deny.Blocked("https://www.chegg.com/study"))
	assert.True(t, deny.Blocked("https://coursehero.com/x"))
	// Built-ins still apply.
	assert.True(t, deny.Blocked("https://reddit.com/r/x"))
	assert.False(t, deny.Blocked("https://example.edu/"))
}

func TestLoadDenylistMissingFile(t *testing.T) {
	_, err := LoadDenylist(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
