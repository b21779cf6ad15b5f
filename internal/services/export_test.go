package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/memberhub/apiserver/internal/apperr"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjects struct {
	objects     map[string][]byte
	contentType string
}

func (m *memObjects) EnsureBucket(context.Context) error { return nil }

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	m.contentType = contentType
	return nil
}

func (m *memObjects) Bucket() string { return "memberhub" }

func TestExportLedger(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	_, err := e.ledger.TopUp(ctx, alice, 5000)
	require.NoError(t, err)
	_, err = e.ledger.TopUp(ctx, bob, 6000)
	require.NoError(t, err)

	objects := &memObjects{}
	svc := NewExportService(e.db.Ledger(), objects, logging.Discard())
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC) }

	_, err = svc.ExportLedger(ctx, alice, time.Time{})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	res, err := svc.ExportLedger(ctx, auth.Admin{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "ledger/statement-20260504T030201Z.jsonl", res.Key)
	assert.Equal(t, 2, res.Entries)
	assert.Equal(t, "application/x-ndjson", objects.contentType)

	scanner := bufio.NewScanner(bytes.NewReader(objects.objects[res.Key]))
	var lines []types.LedgerEntry
	for scanner.Scan() {
		var entry types.LedgerEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, alice.ID, lines[0].UserID)

	res, err = svc.ExportLedger(ctx, auth.Admin{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, res.Entries)
}

func TestExportLedger_NoStorage(t *testing.T) {
	e := newEnv(t)
	svc := NewExportService(e.db.Ledger(), nil, logging.Discard())

	_, err := svc.ExportLedger(context.Background(), auth.Admin{}, time.Time{})
	require.ErrorIs(t, err, apperr.ErrUnavailable)
}
