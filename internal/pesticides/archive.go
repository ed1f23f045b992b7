package pesticides

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/angelmondragon/agridiary/pkg/config"
	"github.com/angelmondragon/agridiary/pkg/storage/s3"
	"go.uber.org/multierr"
)

type blobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string, metadata map[string]string) (s3.Object, error)
	List(ctx context.Context, prefix string) ([]s3.Object, error)
	Delete(ctx context.Context, key string) error
}

// Archiver keeps raw uploads in blob storage for a limited time.
type Archiver struct {
	store     blobStore
	prefix    string
	retention time.Duration
}

// NewArchiver returns nil when store is nil, which disables archiving.
func NewArchiver(store blobStore, cfg config.ArchiveConfig) *Archiver {
	if store == nil {
		return nil
	}
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = "pesticides"
	}
	days := cfg.RetentionDays
	if days <= 0 {
		days = 90
	}
	return &Archiver{store: store, prefix: prefix, retention: time.Duration(days) * 24 * time.Hour}
}

func (a *Archiver) Prefix() string { return a.prefix }

func (a *Archiver) Retention() time.Duration { return a.retention }

func (a *Archiver) Put(ctx context.Context, key string, r io.Reader, contentType string, metadata map[string]string) (s3.Object, error) {
	return a.store.Put(ctx, key, r, contentType, metadata)
}

// Prune deletes archives last modified before now minus the retention. It
// keeps going past individual failures and returns them combined.
func (a *Archiver) Prune(ctx context.Context, now time.Time) (int, error) {
	objects, err := a.store.List(ctx, a.prefix+"/")
	if err != nil {
		return 0, err
	}
	cutoff := now.Add(-a.retention)
	var (
		deleted int
		errs    error
	)
	for _, obj := range objects {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := a.store.Delete(ctx, obj.Key); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		deleted++
	}
	return deleted, errs
}
