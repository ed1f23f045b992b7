package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

var migrationNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	markerUp   = "-- +goose Up"
	markerDown = "-- +goose Down"
)

// ValidateDir checks the SQL migrations of dir on disk.
func ValidateDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("migration dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS checks every .sql file at the root of fsys: names carry a unique
// 14 digit version, the Up marker precedes the Down marker, and both sections
// hold a statement. All problems are reported together.
func ValidateFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var errs error
	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		match := migrationNameRe.FindStringSubmatch(name)
		if match == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q, want YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if first, dup := versions[match[1]]; dup {
			errs = multierr.Append(errs, fmt.Errorf("version %s used by %q and %q", match[1], first, name))
		}
		versions[match[1]] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read %q: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkSections(name, string(body)))
	}
	return errs
}

func checkSections(name, body string) error {
	up := strings.Index(body, markerUp)
	down := strings.Index(body, markerDown)
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing %q", name, markerUp)
	case down < 0:
		return fmt.Errorf("migration %q missing %q", name, markerDown)
	case down < up:
		return fmt.Errorf("migration %q has %q before %q", name, markerDown, markerUp)
	}
	if !hasStatement(body[up+len(markerUp) : down]) {
		return fmt.Errorf("migration %q has an empty up section", name)
	}
	if !hasStatement(body[down+len(markerDown):]) {
		return fmt.Errorf("migration %q has an empty down section", name)
	}
	return nil
}

// hasStatement reports whether section holds anything besides goose
// annotations and blank lines. Plain comments count, so scaffolds pass.
func hasStatement(section string) bool {
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "-- +goose") {
			return true
		}
	}
	return false
}
