package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/internal/storage"
	"github.com/memberhub/apiserver/types"
)

const statementContentType = "application/x-ndjson"

// ExportResult describes an uploaded ledger statement.
type ExportResult struct {
	Bucket  string    `json:"bucket"`
	Key     string    `json:"key"`
	Entries int       `json:"entries"`
	Since   time.Time `json:"since"`
}

// ExportService writes ledger statements to object storage.
type ExportService struct {
	ledger  LedgerRepository
	objects storage.ObjectStorage
	log     logging.Logger
	now     func() time.Time
}

// NewExportService returns a service whose exports fail with
// apperr.ErrUnavailable when objects is nil.
func NewExportService(ledger LedgerRepository, objects storage.ObjectStorage, log logging.Logger) *ExportService {
	return &ExportService{ledger: ledger, objects: objects, log: log, now: time.Now}
}

// ExportLedger uploads every entry created at or after since as JSON lines.
// Admin only.
func (s *ExportService) ExportLedger(ctx context.Context, p auth.Principal, since time.Time) (ExportResult, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return ExportResult{}, err
	}
	if s.objects == nil {
		return ExportResult{}, fmt.Errorf("%w: object storage is not configured", apperr.ErrUnavailable)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	count := 0
	err := s.ledger.EachSince(ctx, since, func(e types.LedgerEntry) error {
		count++
		return enc.Encode(e)
	})
	if err != nil {
		return ExportResult{}, err
	}

	key := fmt.Sprintf("ledger/statement-%s.jsonl", s.now().UTC().Format("20060102T150405Z"))
	if err := s.objects.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), statementContentType); err != nil {
		return ExportResult{}, fmt.Errorf("%w: upload statement: %w", apperr.ErrUnavailable, err)
	}

	s.log.Info(ctx, "ledger statement exported", "bucket", s.objects.Bucket(), "key", key, "entries", count)
	return ExportResult{Bucket: s.objects.Bucket(), Key: key, Entries: count, Since: since}, nil
}
