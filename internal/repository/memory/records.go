package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"

	"github.com/google/uuid"
)

type storedRecord struct {
	created time.Time
	fields  domain.Fields
}

// RecordStore is an in-process repository.RecordStore with the same
// partial-update semantics as the hosted backends.
type RecordStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]storedRecord
	now    func() time.Time
}

func NewRecordStore() *RecordStore {
	return &RecordStore{tables: make(map[string]map[string]storedRecord), now: time.Now}
}

var _ repository.RecordStore = (*RecordStore)(nil)

func (s *RecordStore) Create(ctx context.Context, table string, fields domain.Fields) (*repository.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	rec := storedRecord{created: s.now().UTC(), fields: domain.Fields{}.Merge(fields)}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		rows = make(map[string]storedRecord)
		s.tables[table] = rows
	}
	rows[id] = rec
	return rec.toRecord(id), nil
}

func (s *RecordStore) Get(ctx context.Context, table, id string) (*repository.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tables[table][id]
	if !ok {
		return nil, fmt.Errorf("get %s record %s: %w", table, id, domain.ErrNotFound)
	}
	return rec.toRecord(id), nil
}

func (s *RecordStore) Update(ctx context.Context, table, id string, fields domain.Fields) (*repository.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tables[table][id]
	if !ok {
		return nil, fmt.Errorf("update %s record %s: %w", table, id, domain.ErrNotFound)
	}
	rec.fields = rec.fields.Merge(fields)
	s.tables[table][id] = rec
	return rec.toRecord(id), nil
}

func (s *RecordStore) Delete(ctx context.Context, table, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[table][id]; !ok {
		return fmt.Errorf("delete %s record %s: %w", table, id, domain.ErrNotFound)
	}
	delete(s.tables[table], id)
	return nil
}

func (s *RecordStore) Select(ctx context.Context, table string, q repository.Query) ([]repository.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []repository.Record
	for id, rec := range s.tables[table] {
		if matchesAll(rec.fields, q.Filters) {
			out = append(out, *rec.toRecord(id))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		for _, srt := range q.Sort {
			c := compare(out[i].Fields[srt.Field], out[j].Fields[srt.Field])
			if c == 0 {
				continue
			}
			if srt.Descending {
				return c > 0
			}
			return c < 0
		}
		return out[i].CreatedTime.Before(out[j].CreatedTime)
	})

	if q.MaxRecords > 0 && len(out) > q.MaxRecords {
		out = out[:q.MaxRecords]
	}
	return out, nil
}

func (r storedRecord) toRecord(id string) *repository.Record {
	return &repository.Record{ID: id, CreatedTime: r.created, Fields: domain.Fields{}.Merge(r.fields)}
}
