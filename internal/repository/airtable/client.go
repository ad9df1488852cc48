// Package airtable implements repository.RecordStore on the Airtable REST
// API. Structured queries become filterByFormula expressions.
package airtable

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"
	"gearshare-backend/internal/repository/restclient"
)

// maxPageSize is the largest page Airtable returns.
const maxPageSize = 100

type store struct {
	rest   *restclient.Client
	baseID string
}

func NewStore(cfg config.RecordsConfig) repository.RecordStore {
	return &store{
		rest:   restclient.New(repository.BackendRecords, cfg.ClientConfig),
		baseID: cfg.BaseID,
	}
}

type record struct {
	ID          string        `json:"id,omitempty"`
	CreatedTime string        `json:"createdTime,omitempty"`
	Fields      domain.Fields `json:"fields"`
}

type writeRequest struct {
	Fields   domain.Fields `json:"fields"`
	Typecast bool          `json:"typecast,omitempty"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset"`
}

type deleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (s *store) tablePath(table string) string {
	return "/" + url.PathEscape(s.baseID) + "/" + url.PathEscape(table)
}

func (s *store) recordPath(table, id string) string {
	return s.tablePath(table) + "/" + url.PathEscape(id)
}

func (s *store) Create(ctx context.Context, table string, fields domain.Fields) (*repository.Record, error) {
	var out record
	if err := s.rest.Do(ctx, "Create", http.MethodPost, s.tablePath(table), nil, writeRequest{Fields: fields, Typecast: true}, &out); err != nil {
		return nil, fmt.Errorf("create %s record: %w", table, err)
	}
	return out.toRecord(), nil
}

func (s *store) Get(ctx context.Context, table, id string) (*repository.Record, error) {
	var out record
	if err := s.rest.Do(ctx, "Get", http.MethodGet, s.recordPath(table, id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get %s record %s: %w", table, id, err)
	}
	return out.toRecord(), nil
}

// Update patches only the given fields.
func (s *store) Update(ctx context.Context, table, id string, fields domain.Fields) (*repository.Record, error) {
	var out record
	if err := s.rest.Do(ctx, "Update", http.MethodPatch, s.recordPath(table, id), nil, writeRequest{Fields: fields, Typecast: true}, &out); err != nil {
		return nil, fmt.Errorf("update %s record %s: %w", table, id, err)
	}
	return out.toRecord(), nil
}

func (s *store) Delete(ctx context.Context, table, id string) error {
	var out deleteResponse
	if err := s.rest.Do(ctx, "Delete", http.MethodDelete, s.recordPath(table, id), nil, nil, &out); err != nil {
		return fmt.Errorf("delete %s record %s: %w", table, id, err)
	}
	if !out.Deleted {
		return fmt.Errorf("delete %s record %s: not confirmed", table, id)
	}
	return nil
}

// Select follows offset paging until MaxRecords is reached or the table is
// exhausted.
func (s *store) Select(ctx context.Context, table string, q repository.Query) ([]repository.Record, error) {
	params, err := queryParams(q)
	if err != nil {
		return nil, err
	}

	var records []repository.Record
	offset := ""
	for {
		page := cloneValues(params)
		if offset != "" {
			page.Set("offset", offset)
		}

		var out listResponse
		if err := s.rest.Do(ctx, "Select", http.MethodGet, s.tablePath(table), page, nil, &out); err != nil {
			return nil, fmt.Errorf("select %s records: %w", table, err)
		}
		for _, r := range out.Records {
			records = append(records, *r.toRecord())
		}

		if out.Offset == "" || (q.MaxRecords > 0 && len(records) >= q.MaxRecords) {
			break
		}
		offset = out.Offset
	}

	if q.MaxRecords > 0 && len(records) > q.MaxRecords {
		records = records[:q.MaxRecords]
	}
	return records, nil
}

func queryParams(q repository.Query) (url.Values, error) {
	params := url.Values{}
	formula, err := BuildFormula(q.Filters)
	if err != nil {
		return nil, err
	}
	if formula != "" {
		params.Set("filterByFormula", formula)
	}
	for i, s := range q.Sort {
		params.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		dir := "asc"
		if s.Descending {
			dir = "desc"
		}
		params.Set(fmt.Sprintf("sort[%d][direction]", i), dir)
	}
	if q.MaxRecords > 0 {
		params.Set("maxRecords", strconv.Itoa(q.MaxRecords))
		if q.MaxRecords < maxPageSize {
			params.Set("pageSize", strconv.Itoa(q.MaxRecords))
		}
	}
	return params, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func (r record) toRecord() *repository.Record {
	out := &repository.Record{ID: r.ID, Fields: r.Fields}
	if out.Fields == nil {
		out.Fields = domain.Fields{}
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedTime); err == nil {
		out.CreatedTime = t
	}
	return out
}
