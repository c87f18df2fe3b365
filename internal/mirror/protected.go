package mirror

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultProtected are generated site files that live only in the bucket.
var DefaultProtected = []string{
	"sitemap.xml",
	"robots.txt",
	"index.html",
}

// ProtectedSet holds names that must never be deleted from the target.
// A name matches a key when it is a substring of the key. Names containing
// glob metacharacters are matched as doublestar patterns instead.
type ProtectedSet struct {
	names    mapset.Set[string]
	patterns []string
}

func NewProtectedSet(names ...string) ProtectedSet {
	ps := ProtectedSet{names: mapset.NewThreadUnsafeSet[string]()}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if strings.ContainsAny(n, "*?[{") && doublestar.ValidatePattern(n) {
			ps.patterns = append(ps.patterns, n)
			continue
		}
		ps.names.Add(n)
	}
	return ps
}

// Matches reports whether key is protected.
func (p ProtectedSet) Matches(key string) bool {
	key = NormalizeKey(key)
	matched := false
	if p.names != nil {
		p.names.Each(func(name string) bool {
			matched = strings.Contains(key, name)
			return matched
		})
	}
	if matched {
		return true
	}
	for _, pattern := range p.patterns {
		if ok, _ := doublestar.Match(pattern, key); ok {
			return true
		}
	}
	return false
}

func (p ProtectedSet) Len() int {
	n := len(p.patterns)
	if p.names != nil {
		n += p.names.Cardinality()
	}
	return n
}
