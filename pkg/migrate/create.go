package migrate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"
)

const versionLayout = "20060102150405"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// CreateOptions shape a new migration file.
type CreateOptions struct {
	// OwnedTable, when set, scaffolds a per-user record table with the owner
	// foreign key and the list index every diary table carries.
	OwnedTable string
	// Now stamps the version. Defaults to time.Now.
	Now func() time.Time
}

var migrationTmpl = template.Must(template.New("migration").Parse(`-- +goose Up
-- +goose StatementBegin
{{- if .Table}}
CREATE TABLE IF NOT EXISTS {{.Table}} (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_{{.Table}}_user_id ON {{.Table}} (user_id);
{{- else}}
-- {{.Slug}}
{{- end}}
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
{{- if .Table}}
DROP TABLE IF EXISTS {{.Table}};
{{- else}}
-- revert {{.Slug}}
{{- end}}
-- +goose StatementEnd
`))

// Slug lowercases name and collapses everything but letters and digits into
// single underscores.
func Slug(name string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// CreateSQLMigration writes <dir>/<version>_<slug>.sql and returns its path.
// An existing file with the same name is never overwritten.
func CreateSQLMigration(dir, name string, opts CreateOptions) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("migration dir is required")
	}
	slug := Slug(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	table := ""
	if opts.OwnedTable != "" {
		table = Slug(opts.OwnedTable)
		if table == "" {
			return "", fmt.Errorf("table name %q has no usable characters", opts.OwnedTable)
		}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var body bytes.Buffer
	if err := migrationTmpl.Execute(&body, struct{ Slug, Table string }{slug, table}); err != nil {
		return "", fmt.Errorf("render migration: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", now().UTC().Format(versionLayout), slug))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	if _, err := f.Write(body.Bytes()); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, f.Close()
}
