package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtectedSet_Matches(t *testing.T) {
	ps := NewProtectedSet("sitemap.xml", "robots.txt", "index.html", "assets/**/*.css", " ")

	tests := []struct {
		key  string
		want bool
	}{
		{"sitemap.xml", true},
		{"/Sitemap.XML", true},
		{"old/sitemap.xml.bak", true},
		{"robots.txt", true},
		{"gallery/index.html", true},
		{"assets/theme/site.css", true},
		{"assets/site.js", false},
		{"catalog.pdf", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, ps.Matches(tt.key))
		})
	}
	assert.Equal(t, 4, ps.Len())
}

func TestProtectedSet_ZeroValue(t *testing.T) {
	var ps ProtectedSet
	assert.False(t, ps.Matches("sitemap.xml"))
	assert.Equal(t, 0, ps.Len())
}

func TestIgnoreList(t *testing.T) {
	l := NewIgnoreList("drafts/")

	assert.True(t, l.ShouldIgnore("photos/.DS_Store"))
	assert.True(t, l.ShouldIgnore("docs/upload.tmp"))
	assert.True(t, l.ShouldIgnore("drafts/wip.pdf"))
	assert.False(t, l.ShouldIgnore("docs/quote.docx"))

	var nilList *IgnoreList
	assert.False(t, nilList.ShouldIgnore("anything"))
}
