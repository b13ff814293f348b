package discovery

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// defaultDenyPatterns are substring patterns for URLs that are never worth
// crawling: social media, forums, job boards, and aggregator sites.
var defaultDenyPatterns = []string{
	"reddit.com",
	"quora.com",
	"forum",
	"discussion",
	"blog",
	"linkedin.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"tiktok.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"youtube.com",
	"pinterest.com",
}

// Denylist filters out URLs matching known-bad substring patterns.
type Denylist struct {
	patterns []string
}

// NewDenylist returns the built-in denylist.
func NewDenylist() *Denylist {
	return &Denylist{patterns: defaultDenyPatterns}
}

// denylistFile is the YAML shape for a custom denylist.
type denylistFile struct {
	Patterns []string `yaml:"patterns"`
}

// LoadDenylist reads a custom denylist from a YAML file. Patterns from the
// file extend the built-in set rather than replacing it.
func LoadDenylist(path string) (*Denylist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: read denylist %s", path)
	}

	var file denylistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "discovery: parse denylist %s", path)
	}

	patterns := make([]string, 0, len(defaultDenyPatterns)+len(file.Patterns))
	patterns = append(patterns, defaultDenyPatterns...)
	for _, p := range file.Patterns {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return &Denylist{patterns: patterns}, nil
}

// Blocked reports whether the URL matches any deny pattern. Matching is
// case-insensitive substring matching over the whole URL.
func (d *Denylist) Blocked(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, p := range d.patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
