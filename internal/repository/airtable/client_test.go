package airtable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, h http.HandlerFunc) repository.RecordStore {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewStore(config.RecordsConfig{
		BaseID: "appBase",
		ClientConfig: config.ClientConfig{
			BaseURL:        srv.URL + "/v0",
			APIKey:         "pat-key",
			TimeoutSeconds: 5,
			RetryCount:     1,
			RetryDelayMS:   1,
		},
	})
}

func TestStore_Create(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v0/appBase/Equipment", r.URL.Path)

		var body writeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Camera X", body.Fields["name"])
		assert.True(t, body.Typecast)

		w.Write([]byte(`{"id":"rec1","createdTime":"2026-01-02T03:04:05.000Z","fields":{"name":"Camera X"}}`))
	})

	rec, err := s.Create(context.Background(), "Equipment", domain.Fields{"name": "Camera X"})
	require.NoError(t, err)
	assert.Equal(t, "rec1", rec.ID)
	assert.Equal(t, 2026, rec.CreatedTime.Year())
	assert.Equal(t, "Camera X", rec.Fields.String("name"))
}

func TestStore_UpdateUsesPatch(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v0/appBase/Repairs/rec9", r.URL.Path)
		w.Write([]byte(`{"id":"rec9","fields":{"status":"In Repair"}}`))
	})

	rec, err := s.Update(context.Background(), "Repairs", "rec9", domain.Fields{"status": "In Repair"})
	require.NoError(t, err)
	assert.Equal(t, "In Repair", rec.Fields.String("status"))
}

func TestStore_Delete(t *testing.T) {
	t.Run("Confirmed", func(t *testing.T) {
		s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			w.Write([]byte(`{"id":"rec1","deleted":true}`))
		})
		assert.NoError(t, s.Delete(context.Background(), "Repairs", "rec1"))
	})

	t.Run("NotFound", func(t *testing.T) {
		s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"NOT_FOUND"}`))
		})
		err := s.Delete(context.Background(), "Repairs", "rec1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestStore_SelectPaging(t *testing.T) {
	calls := 0
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		q := r.URL.Query()
		assert.Equal(t, "{collection} = 'repairs'", q.Get("filterByFormula"))
		assert.Equal(t, "timestamp", q.Get("sort[0][field]"))
		assert.Equal(t, "desc", q.Get("sort[0][direction]"))

		if q.Get("offset") == "" {
			w.Write([]byte(`{"records":[{"id":"rec1","fields":{}}],"offset":"itrNext"}`))
			return
		}
		assert.Equal(t, "itrNext", q.Get("offset"))
		w.Write([]byte(`{"records":[{"id":"rec2","fields":{}}]}`))
	})

	recs, err := s.Select(context.Background(), "Activity Log", repository.Query{
		Filters: []repository.Filter{repository.Eq("collection", "repairs")},
		Sort:    []repository.Sort{{Field: "timestamp", Descending: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec1", recs[0].ID)
	assert.Equal(t, "rec2", recs[1].ID)
}

func TestStore_SelectStopsAtMaxRecords(t *testing.T) {
	calls := 0
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "1", r.URL.Query().Get("maxRecords"))
		w.Write([]byte(`{"records":[{"id":"rec1","fields":{}}],"offset":"more"}`))
	})

	recs, err := s.Select(context.Background(), "Equipment", repository.Query{MaxRecords: 1})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, 1, calls)
}
