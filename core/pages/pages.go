// Package pages serves the content of the public pages of the portal.
package pages

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/akia2466/PMNTS-Lovable/core"
)

var ErrNotFound = core.NewNotFoundError("page")

type Item struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description,omitempty"`
	Value       string `yaml:"value" json:"value,omitempty"`
	Date        string `yaml:"date" json:"date,omitempty"`
	Extra       string `yaml:"extra" json:"extra,omitempty"`
}

type Section struct {
	Heading string `yaml:"heading" json:"heading"`
	Kind    string `yaml:"kind" json:"kind"`
	Body    string `yaml:"body" json:"body,omitempty"`
	Items   []Item `yaml:"items" json:"items,omitempty"`
}

type Page struct {
	Slug     string    `yaml:"slug" json:"slug"`
	Title    string    `yaml:"title" json:"title"`
	Summary  string    `yaml:"summary" json:"summary"`
	Sections []Section `yaml:"sections" json:"sections"`
}

// Catalog holds the pages parsed at startup.
type Catalog struct {
	pages map[string]Page
}

// Load parses every .yaml page of dir in fsys.
func Load(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading pages dir")
	}
	c := &Catalog{pages: make(map[string]Page, len(entries))}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "reading page %s", e.Name())
		}
		var p Page
		if err = yaml.Unmarshal(data, &p); err != nil {
			return nil, errors.Wrapf(err, "parsing page %s", e.Name())
		}
		if p.Slug == "" {
			p.Slug = strings.TrimSuffix(e.Name(), ".yaml")
		}
		c.pages[p.Slug] = p
	}
	return c, nil
}

func (c *Catalog) Get(slug string) (Page, error) {
	p, ok := c.pages[strings.ToLower(slug)]
	if !ok {
		return Page{}, ErrNotFound
	}
	return p, nil
}

func (c *Catalog) Slugs() []string {
	slugs := make([]string, 0, len(c.pages))
	for s := range c.pages {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}
