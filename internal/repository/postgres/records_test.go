package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*recordStore, sqlmock.Sqlmock, time.Time) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	store := NewRecordStore(db).(*recordStore)
	store.now = func() time.Time { return now }
	return store, mock, now
}

func TestRecordStore_Create(t *testing.T) {
	store, mock, now := newMockStore(t)

	mock.ExpectExec("INSERT INTO records").
		WithArgs(sqlmock.AnyArg(), "Repairs", []byte(`{"firstName":"Ada"}`), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec, err := store.Create(context.Background(), "Repairs", domain.Fields{"firstName": "Ada"})
	require.NoError(t, err)
	assert.Regexp(t, `^rec[0-9a-f]{32}$`, rec.ID)
	assert.Equal(t, now, rec.CreatedTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStore_Get(t *testing.T) {
	store, mock, now := newMockStore(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, fields, created_at FROM records WHERE table_name = \\$1 AND id = \\$2").
			WithArgs("Repairs", "rec1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "fields", "created_at"}).
				AddRow("rec1", []byte(`{"status":"In Repair","priceQuote":50}`), now))

		rec, err := store.Get(ctx, "Repairs", "rec1")
		require.NoError(t, err)
		assert.Equal(t, "In Repair", rec.Fields.String("status"))
		assert.Equal(t, float64(50), rec.Fields["priceQuote"])
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, fields, created_at FROM records").
			WithArgs("Repairs", "missing").
			WillReturnError(sql.ErrNoRows)

		_, err := store.Get(ctx, "Repairs", "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRecordStore_UpdateMergesFields(t *testing.T) {
	store, mock, now := newMockStore(t)

	mock.ExpectQuery("UPDATE records SET fields = fields \\|\\| \\$3::jsonb").
		WithArgs("Repairs", "rec1", []byte(`{"status":"In Repair"}`), now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fields", "created_at"}).
			AddRow("rec1", []byte(`{"firstName":"Ada","status":"In Repair"}`), now))

	rec, err := store.Update(context.Background(), "Repairs", "rec1", domain.Fields{"status": "In Repair"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", rec.Fields.String("firstName"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStore_Delete(t *testing.T) {
	store, mock, _ := newMockStore(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM records").
			WithArgs("Equipment", "rec1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, store.Delete(ctx, "Equipment", "rec1"))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM records").
			WithArgs("Equipment", "rec2").
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, store.Delete(ctx, "Equipment", "rec2"), domain.ErrNotFound)
	})
}

func TestBuildSelect(t *testing.T) {
	since := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	query, args, err := BuildSelect("Activity Log", repository.Query{
		Filters: []repository.Filter{
			repository.Eq("collection", "repairs"),
			{Field: "timestamp", Op: repository.OpGte, Value: since},
			repository.Eq("action_type", domain.ActionUpdate),
		},
		Sort:       []repository.Sort{{Field: "timestamp", Descending: true}},
		MaxRecords: 50,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, fields, created_at FROM records WHERE table_name = $1"+
			" AND fields->>$2 = $3"+
			" AND fields->>$4 >= $5"+
			" AND fields->>$6 = $7"+
			" ORDER BY fields->>$8 DESC LIMIT $9",
		query)
	assert.Equal(t, []any{
		"Activity Log",
		"collection", "repairs",
		"timestamp", "2026-04-01T00:00:00.000Z",
		"action_type", "update",
		"timestamp", 50,
	}, args)
}

func TestBuildSelect_NumericAndNotEqual(t *testing.T) {
	query, args, err := BuildSelect("Equipment", repository.Query{
		Filters: []repository.Filter{
			{Field: "quantity", Op: repository.OpGte, Value: 2},
			{Field: "status", Op: repository.OpNeq, Value: "in_repair"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, query, "(fields->>$2)::numeric >= $3")
	assert.Contains(t, query, "fields->>$4 IS DISTINCT FROM $5")
	assert.Contains(t, query, "ORDER BY created_at")
	assert.Len(t, args, 5)
}

func TestRecordStore_Select(t *testing.T) {
	store, mock, now := newMockStore(t)

	mock.ExpectQuery("SELECT id, fields, created_at FROM records WHERE table_name = \\$1 AND fields->>\\$2 = \\$3").
		WithArgs("Equipment", "booqableGroupId", "pg-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "fields", "created_at"}).
			AddRow("rec1", []byte(`{"booqableGroupId":"pg-1"}`), now))

	recs, err := store.Select(context.Background(), "Equipment", repository.Query{
		Filters: []repository.Filter{repository.Eq("booqableGroupId", "pg-1")},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "rec1", recs[0].ID)
}
