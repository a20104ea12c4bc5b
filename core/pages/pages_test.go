package pages_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/pages"
	appfs "github.com/akia2466/PMNTS-Lovable/fs"
)

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"pages/news.yaml": {Data: []byte(`
title: News
sections:
  - heading: Latest
    kind: list
    items:
      - title: Prize giving
        date: "2026-11-20"
`)},
		"pages/notes.txt": {Data: []byte("ignored")},
	}
	c, err := pages.Load(fsys, "pages")
	require.NoError(t, err)
	assert.Equal(t, []string{"news"}, c.Slugs())

	p, err := c.Get("NEWS")
	require.NoError(t, err)
	assert.Equal(t, "News", p.Title)
	require.Len(t, p.Sections, 1)
	assert.Equal(t, "Prize giving", p.Sections[0].Items[0].Title)

	_, err = pages.Load(fstest.MapFS{"pages/bad.yaml": {Data: []byte("title: [")}}, "pages")
	assert.Error(t, err)
	_, err = pages.Load(fstest.MapFS{}, "missing")
	assert.Error(t, err)
}

func TestCatalog_embedded(t *testing.T) {
	c, err := pages.Load(appfs.FS, appfs.PagesDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"about", "academics", "home"}, c.Slugs())

	tests := []struct {
		slug     string
		want     string
		notFound bool
	}{
		{"home", "Port Moresby National High School", false},
		{"about", "About Us", false},
		{"academics", "Academics", false},
		{"admissions", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			p, err := c.Get(tt.slug)
			if tt.notFound {
				assert.True(t, core.IsNotFound(err))
				return
			}
			require.NoError(t, err)
			if p.Title != tt.want {
				t.Errorf("Get(%q).Title = %q; want %q", tt.slug, p.Title, tt.want)
			}
			assert.NotEmpty(t, p.Sections)
		})
	}
}
