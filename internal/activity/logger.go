// Package activity is the append-only audit trail of every cross-system
// write, stored in the Records Backend.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/metrics"
	"gearshare-backend/internal/repository"
	"gearshare-backend/internal/security"

	"github.com/google/uuid"
)

// Entry is what callers supply; id and timestamp are filled in.
type Entry struct {
	ActionType  domain.ActionType
	Collection  string
	Description string
	ActorID     string
	Details     map[string]any
}

type Logger struct {
	store repository.RecordStore
	table string
	now   func() time.Time
}

func NewLogger(store repository.RecordStore, table string) *Logger {
	return &Logger{store: store, table: table, now: time.Now}
}

// Append writes one entry. It never fails the caller: backend errors are
// logged as a LoggingError and dropped. The returned entry is what was
// attempted.
func (l *Logger) Append(ctx context.Context, e Entry) domain.ActivityLogEntry {
	entry := domain.ActivityLogEntry{
		ID:          uuid.NewString(),
		Timestamp:   l.now().UTC(),
		Collection:  e.Collection,
		ActionType:  e.ActionType,
		ActorID:     e.ActorID,
		Description: e.Description,
		Details:     e.Details,
	}
	if entry.ActorID == "" {
		entry.ActorID = security.ActorFromContext(ctx)
	}

	fields := domain.Fields{
		"log_id":      entry.ID,
		"timestamp":   entry.Timestamp.Format(domain.TimestampLayout),
		"collection":  entry.Collection,
		"action_type": string(entry.ActionType),
		"actor_id":    entry.ActorID,
		"description": entry.Description,
	}
	if len(entry.Details) > 0 {
		details, err := json.Marshal(entry.Details)
		if err != nil {
			details = []byte(fmt.Sprintf(`{"encode_error":%q}`, err.Error()))
		}
		fields["details"] = string(details)
	}

	if _, err := l.store.Create(ctx, l.table, fields); err != nil {
		metrics.ActivityAppendFailuresTotal.Inc()
		logger.ErrorContext(ctx, "Activity log append dropped",
			"error", &domain.LoggingError{Err: err},
			"collection", entry.Collection,
			"action_type", entry.ActionType,
			"description", entry.Description)
	}
	return entry
}

// Query returns matching entries, most recent first.
func (l *Logger) Query(ctx context.Context, f domain.ActivityFilter) ([]domain.ActivityLogEntry, error) {
	q := repository.Query{
		Sort:       []repository.Sort{{Field: "timestamp", Descending: true}},
		MaxRecords: f.Limit,
	}
	if since := f.DateRange.Since(l.now()); !since.IsZero() {
		q.Filters = append(q.Filters, repository.Filter{Field: "timestamp", Op: repository.OpGte, Value: since})
	}
	if f.ActionType != "" {
		q.Filters = append(q.Filters, repository.Eq("action_type", string(f.ActionType)))
	}
	if f.Collection != "" {
		q.Filters = append(q.Filters, repository.Eq("collection", f.Collection))
	}

	records, err := l.store.Select(ctx, l.table, q)
	if err != nil {
		return nil, &domain.BackendReadError{Backend: repository.BackendRecords, Operation: "query activity log", Err: err}
	}

	entries := make([]domain.ActivityLogEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, decodeEntry(rec))
	}

	// Backends differ in how they sort stored strings; the contract is
	// newest first regardless.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if f.Limit > 0 && len(entries) > f.Limit {
		entries = entries[:f.Limit]
	}
	return entries, nil
}

func decodeEntry(rec repository.Record) domain.ActivityLogEntry {
	e := domain.ActivityLogEntry{
		ID:          rec.Fields.String("log_id"),
		Collection:  rec.Fields.String("collection"),
		ActionType:  domain.ActionType(rec.Fields.String("action_type")),
		ActorID:     rec.Fields.String("actor_id"),
		Description: rec.Fields.String("description"),
		Timestamp:   rec.CreatedTime,
	}
	if e.ID == "" {
		e.ID = rec.ID
	}
	if ts, err := time.Parse(time.RFC3339, rec.Fields.String("timestamp")); err == nil {
		e.Timestamp = ts.UTC()
	}
	if raw := rec.Fields.String("details"); raw != "" {
		var details map[string]any
		if err := json.Unmarshal([]byte(raw), &details); err != nil {
			details = map[string]any{"raw": raw}
		}
		e.Details = details
	}
	return e
}
