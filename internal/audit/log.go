// Package audit keeps the append-only webhook activity log.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/store"

	"gorm.io/datatypes"
)

const DefaultMaxRawBytes = 4096

type Log struct {
	repo        store.WebhookLogRepository
	maxRawBytes int
	now         func() time.Time
}

func New(repo store.WebhookLogRepository, maxRawBytes int) *Log {
	if maxRawBytes <= 0 {
		maxRawBytes = DefaultMaxRawBytes
	}
	return &Log{repo: repo, maxRawBytes: maxRawBytes, now: time.Now}
}

// Record appends an entry. It never fails: write errors are logged locally
// and dropped so ingestion is never blocked by diagnostics.
func (l *Log) Record(ctx context.Context, entry models.WebhookLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	if err := l.repo.Append(ctx, &entry); err != nil {
		log.Printf("Error writing webhook log (%s %s): %v", entry.LogType, entry.Context, err)
	}
}

// Snapshot marshals v as a raw-data value no larger than the configured bound.
// Oversized values are replaced by a truncated preview.
func (l *Log) Snapshot(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return l.bound(raw)
}

// SnapshotRaw bounds an already encoded payload.
func (l *Log) SnapshotRaw(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		preview, _ := json.Marshal(map[string]interface{}{"invalid_json": string(truncate(raw, l.maxRawBytes/2))})
		return datatypes.JSON(preview)
	}
	return l.bound(raw)
}

func (l *Log) bound(raw []byte) datatypes.JSON {
	if len(raw) <= l.maxRawBytes {
		return datatypes.JSON(raw)
	}
	preview, _ := json.Marshal(map[string]interface{}{
		"truncated": true,
		"size":      len(raw),
		"preview":   string(truncate(raw, l.maxRawBytes/2)),
	})
	return datatypes.JSON(preview)
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

func (l *Log) List(ctx context.Context, tenantID string, logType models.LogType, limit int) ([]models.WebhookLog, error) {
	return l.repo.List(ctx, tenantID, logType, limit)
}

// Tenant converts a resolved tenant id to the nullable log column.
func Tenant(tenantID string) *string {
	if tenantID == "" {
		return nil
	}
	return &tenantID
}
