package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/agridiary/pkg/logger"
)

const (
	JobResetTokenExpiry          = "reset_token_expiry"
	JobPesticideArchiveRetention = "pesticide_archive_retention"
)

type resetTokenStore interface {
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type resetTokenExpiryJob struct {
	logg  *logger.Logger
	users resetTokenStore
	now   func() time.Time
}

// NewResetTokenExpiryJob clears password resets whose expiry has passed.
func NewResetTokenExpiryJob(logg *logger.Logger, users resetTokenStore) (Job, error) {
	if logg == nil || users == nil {
		return nil, fmt.Errorf("logger and user store required")
	}
	return &resetTokenExpiryJob{logg: logg, users: users, now: time.Now}, nil
}

func (j *resetTokenExpiryJob) Name() string { return JobResetTokenExpiry }

func (j *resetTokenExpiryJob) Run(ctx context.Context) error {
	cleared, err := j.users.ClearExpiredResetTokens(ctx, j.now())
	if err != nil {
		return fmt.Errorf("clear reset tokens: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "tokens_cleared", cleared), "cron.reset_tokens.cleared")
	return nil
}

type archivePruner interface {
	Prune(ctx context.Context, now time.Time) (int, error)
	Retention() time.Duration
}

type archiveRetentionJob struct {
	logg    *logger.Logger
	archive archivePruner
	now     func() time.Time
}

// NewArchiveRetentionJob returns nil when archiving is disabled.
func NewArchiveRetentionJob(logg *logger.Logger, archive archivePruner) Job {
	if logg == nil || archive == nil {
		return nil
	}
	return &archiveRetentionJob{logg: logg, archive: archive, now: time.Now}
}

func (j *archiveRetentionJob) Name() string { return JobPesticideArchiveRetention }

func (j *archiveRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.archive.Prune(ctx, j.now())
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"archives_deleted": deleted,
		"retention_days":   int(j.archive.Retention().Hours() / 24),
	})
	if err != nil {
		return fmt.Errorf("prune archives after %d deletions: %w", deleted, err)
	}
	j.logg.Info(logCtx, "cron.archives.pruned")
	return nil
}
