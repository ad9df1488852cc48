package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/repository"

	"github.com/google/uuid"
)

type recordStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewRecordStore(db *sql.DB) repository.RecordStore {
	return &recordStore{db: db, now: time.Now}
}

func (r *recordStore) Create(ctx context.Context, table string, fields domain.Fields) (*repository.Record, error) {
	logger.EnterMethod("recordStore.Create", "table", table)

	data, err := json.Marshal(fields)
	if err != nil {
		logger.ExitMethodWithError("recordStore.Create", err, "reason", "failed to marshal fields")
		return nil, err
	}

	id := "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")
	now := r.now().UTC()
	query := `INSERT INTO records (id, table_name, fields, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)`
	logger.DatabaseCall("INSERT", "records", "table", table, "id", id)
	res, err := r.db.ExecContext(ctx, query, id, table, data, now, now)
	logger.DatabaseResult("INSERT", rowsAffected(res), err, "id", id)
	if err != nil {
		logger.ExitMethodWithError("recordStore.Create", err, "table", table)
		return nil, fmt.Errorf("create %s record: %w", table, err)
	}

	logger.ExitMethod("recordStore.Create", "id", id)
	return &repository.Record{ID: id, CreatedTime: now, Fields: fields}, nil
}

func (r *recordStore) Get(ctx context.Context, table, id string) (*repository.Record, error) {
	query := `SELECT id, fields, created_at FROM records WHERE table_name = $1 AND id = $2`
	logger.DatabaseCall("SELECT", "records", "table", table, "id", id)
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, table, id))
	logger.DatabaseResult("SELECT", 1, ignoreNoRows(err), "id", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s record %s: %w", table, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s record %s: %w", table, id, err)
	}
	return rec, nil
}

// Update merges fields into the stored document, matching the partial
// update semantics of the Airtable backend.
func (r *recordStore) Update(ctx context.Context, table, id string, fields domain.Fields) (*repository.Record, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	query := `UPDATE records SET fields = fields || $3::jsonb, updated_at = $4
	          WHERE table_name = $1 AND id = $2
	          RETURNING id, fields, created_at`
	logger.DatabaseCall("UPDATE", "records", "table", table, "id", id)
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, table, id, data, r.now().UTC()))
	logger.DatabaseResult("UPDATE", 1, ignoreNoRows(err), "id", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update %s record %s: %w", table, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s record %s: %w", table, id, err)
	}
	return rec, nil
}

func (r *recordStore) Delete(ctx context.Context, table, id string) error {
	query := `DELETE FROM records WHERE table_name = $1 AND id = $2`
	logger.DatabaseCall("DELETE", "records", "table", table, "id", id)
	res, err := r.db.ExecContext(ctx, query, table, id)
	n := rowsAffected(res)
	logger.DatabaseResult("DELETE", n, err, "id", id)
	if err != nil {
		return fmt.Errorf("delete %s record %s: %w", table, id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s record %s: %w", table, id, domain.ErrNotFound)
	}
	return nil
}

func (r *recordStore) Select(ctx context.Context, table string, q repository.Query) ([]repository.Record, error) {
	query, args, err := BuildSelect(table, q)
	if err != nil {
		return nil, err
	}

	logger.DatabaseCall("SELECT", "records", "table", table, "filters", len(q.Filters))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, fmt.Errorf("select %s records: %w", table, err)
	}
	defer rows.Close()

	var records []repository.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s record: %w", table, err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.DatabaseResult("SELECT", int64(len(records)), nil)
	return records, nil
}

// BuildSelect renders a Query as SQL over the JSONB fields column. Field
// names are bound as parameters, never interpolated.
func BuildSelect(table string, q repository.Query) (string, []any, error) {
	var sb strings.Builder
	args := []any{table}
	sb.WriteString(`SELECT id, fields, created_at FROM records WHERE table_name = $1`)

	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	for _, f := range q.Filters {
		op, err := sqlOp(f.Op)
		if err != nil {
			return "", nil, err
		}
		key := next(f.Field)
		switch v := f.Value.(type) {
		case time.Time:
			fmt.Fprintf(&sb, " AND fields->>%s %s %s", key, op, next(v.UTC().Format(domain.TimestampLayout)))
		case int, int64, float64:
			fmt.Fprintf(&sb, " AND (fields->>%s)::numeric %s %s", key, op, next(v))
		case bool:
			fmt.Fprintf(&sb, " AND fields->>%s %s %s", key, op, next(strconv.FormatBool(v)))
		case nil:
			if f.Op == repository.OpNeq {
				fmt.Fprintf(&sb, " AND fields->>%s IS NOT NULL", key)
			} else {
				fmt.Fprintf(&sb, " AND fields->>%s IS NULL", key)
			}
		default:
			s, ok := stringValue(v)
			if !ok {
				return "", nil, fmt.Errorf("filter %s: unsupported value type %T", f.Field, v)
			}
			if f.Op == repository.OpNeq {
				// Missing keys count as different, as in Airtable formulas.
				fmt.Fprintf(&sb, " AND fields->>%s IS DISTINCT FROM %s", key, next(s))
			} else {
				fmt.Fprintf(&sb, " AND fields->>%s %s %s", key, op, next(s))
			}
		}
	}

	if len(q.Sort) == 0 {
		sb.WriteString(" ORDER BY created_at")
	} else {
		for i, s := range q.Sort {
			if i == 0 {
				sb.WriteString(" ORDER BY ")
			} else {
				sb.WriteString(", ")
			}
			sb.WriteString("fields->>" + next(s.Field))
			if s.Descending {
				sb.WriteString(" DESC")
			}
		}
	}

	if q.MaxRecords > 0 {
		sb.WriteString(" LIMIT " + next(q.MaxRecords))
	}
	return sb.String(), args, nil
}

func sqlOp(op repository.Op) (string, error) {
	switch op {
	case repository.OpEq, "":
		return "=", nil
	case repository.OpNeq:
		return "<>", nil
	case repository.OpGte:
		return ">=", nil
	}
	return "", fmt.Errorf("unsupported operator %q", op)
}

func stringValue(v any) (string, bool) {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*repository.Record, error) {
	var (
		rec       repository.Record
		raw       []byte
		createdAt time.Time
	)
	if err := row.Scan(&rec.ID, &raw, &createdAt); err != nil {
		return nil, err
	}
	rec.CreatedTime = createdAt
	rec.Fields = domain.Fields{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Fields); err != nil {
			return nil, fmt.Errorf("decode fields: %w", err)
		}
	}
	return &rec, nil
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
