// Package appfs embeds the SQL migrations and the static assets (email templates, public pages).
package appfs

import "embed"

//go:embed migrations assets
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "assets/templates/email"
	PagesDir          = "assets/pages"
)
