package pesticides

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/logger"
	"github.com/angelmondragon/agridiary/pkg/metrics"
	"github.com/angelmondragon/agridiary/pkg/storage/s3"
	"github.com/angelmondragon/agridiary/pkg/workerpool"
	"github.com/google/uuid"
)

// State is a step of one upload.
type State string

const (
	StateAwaitingUpload State = "awaiting_upload"
	StateValidating     State = "validating"
	StateParsing        State = "parsing"
	StateInserting      State = "inserting"
	StateDone           State = "done"
)

const (
	MsgFileRequired = "ファイルを選択してください"
	MsgZipRequired  = "ZIPファイルを選択してください"
	MsgNoRows       = "有効なデータが見つかりませんでした"
	MsgTooLarge     = "展開後のファイルサイズが上限を超えています"
	MsgCleared      = "全ての農薬登録情報を削除しました"
	msgParseFailed  = "ファイルの解析に失敗しました: %s"
	msgInserted     = "%d件の農薬登録情報を追加しました"
)

// IngestError reports the state an upload failed in. The table is untouched
// whenever one is returned.
type IngestError struct {
	State   State
	Message string
	Err     error
}

func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.State, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Message)
}

func (e *IngestError) Unwrap() error { return e.Err }

// Upload is a received archive.
type Upload struct {
	Filename string
	Data     []byte
}

// Result describes a finished upload.
type Result struct {
	Rows       int
	ArchiveKey string
}

// Message is the success flash for the upload.
func (r Result) Message() string { return fmt.Sprintf(msgInserted, r.Rows) }

type rowStore interface {
	InsertAll(ctx context.Context, rows []models.PesticideRegistration, batchSize int) error
}

// IngestorParams wires an Ingestor.
type IngestorParams struct {
	Rows      rowStore
	Archive   *Archiver
	Pool      *workerpool.Pool
	Metrics   *metrics.IngestionMetrics
	Logger    *logger.Logger
	BatchSize int
	// InsertTimeout replaces the pool's per-call deadline for the bulk insert.
	InsertTimeout time.Duration
	// MaxExtractBytes bounds the decompressed size of one archive.
	MaxExtractBytes int64
	Now             func() time.Time
}

// Ingestor turns an uploaded archive into registration rows.
type Ingestor struct {
	rows      rowStore
	archive   *Archiver
	pool      *workerpool.Pool
	metrics   *metrics.IngestionMetrics
	logg      *logger.Logger
	batchSize int
	insertTTL time.Duration
	maxBytes  int64
	now       func() time.Time
}

func NewIngestor(params IngestorParams) (*Ingestor, error) {
	if params.Rows == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pesticide store required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Ingestor{
		rows:      params.Rows,
		archive:   params.Archive,
		pool:      params.Pool,
		metrics:   params.Metrics,
		logg:      params.Logger,
		batchSize: params.BatchSize,
		insertTTL: params.InsertTimeout,
		maxBytes:  params.MaxExtractBytes,
		now:       now,
	}, nil
}

// Ingest validates, parses and stores upload. A nil upload means no file was
// sent. Failures before the insert are returned as validation errors that
// wrap an *IngestError.
func (i *Ingestor) Ingest(ctx context.Context, upload *Upload) (Result, error) {
	state := StateValidating
	i.transition(ctx, state)
	if upload == nil || len(upload.Data) == 0 {
		return Result{}, i.fail(ctx, state, MsgFileRequired, nil)
	}
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(upload.Filename)), ".zip") {
		return Result{}, i.fail(ctx, state, MsgZipRequired, nil)
	}

	state = StateParsing
	i.transition(ctx, state)
	rows, err := ParseArchive(upload.Data, i.maxBytes)
	if errors.Is(err, ErrArchiveTooLarge) {
		return Result{}, i.fail(ctx, state, MsgTooLarge, err)
	}
	if err != nil {
		return Result{}, i.fail(ctx, state, fmt.Sprintf(msgParseFailed, err.Error()), err)
	}
	if len(rows) == 0 {
		return Result{}, i.fail(ctx, state, MsgNoRows, nil)
	}

	state = StateInserting
	i.transition(ctx, state)
	_, err = workerpool.Do(ctx, i.pool.WithTimeout(i.insertTTL), "pesticide.insert_all", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, i.rows.InsertAll(ctx, rows, i.batchSize)
	})
	if err != nil {
		i.metrics.Finished(string(state), true)
		return Result{}, err
	}
	i.metrics.AddRows(len(rows))

	result := Result{Rows: len(rows)}
	result.ArchiveKey = i.store(ctx, upload)

	i.transition(ctx, StateDone)
	i.metrics.Finished(string(StateDone), false)
	return result, nil
}

// store keeps the raw archive after the rows are committed. Storage problems
// are logged and never fail the upload.
func (i *Ingestor) store(ctx context.Context, upload *Upload) string {
	if i.archive == nil {
		return ""
	}
	key := s3.ArchiveKey(i.archive.Prefix(), i.now(), uuid.NewString(), upload.Filename)
	_, err := i.archive.Put(ctx, key, bytes.NewReader(upload.Data), "application/zip", map[string]string{
		"original-filename": upload.Filename,
	})
	i.metrics.Archived(err)
	if err != nil {
		if i.logg != nil {
			i.logg.Error(i.logg.WithField(ctx, "archive_key", key), "pesticides.archive_failed", err)
		}
		return ""
	}
	return key
}

func (i *Ingestor) transition(ctx context.Context, state State) {
	if i.logg != nil {
		i.logg.Debug(i.logg.WithField(ctx, "state", string(state)), "pesticides.ingest.state")
	}
}

func (i *Ingestor) fail(ctx context.Context, state State, message string, cause error) error {
	i.metrics.Finished(string(state), true)
	if i.logg != nil {
		logCtx := i.logg.WithFields(ctx, map[string]any{"state": string(state), "reason": message})
		i.logg.Warn(logCtx, "pesticides.ingest.rejected")
	}
	ingestErr := &IngestError{State: state, Message: message, Err: cause}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ingestErr, message).
		WithDetails(pkgerrors.FieldErrors{"file": message})
}
