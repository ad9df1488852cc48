package service

import (
	"encoding/json"
	"strconv"
	"time"

	"gearshare-backend/internal/domain"
)

// Values read back from Airtable, Postgres JSONB and Firestore arrive with
// different concrete types, so the readers below accept all of them.

func floatField(f domain.Fields, key string) float64 {
	switch v := f[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		n, _ := v.Float64()
		return n
	case string:
		n, _ := strconv.ParseFloat(v, 64)
		return n
	}
	return 0
}

func optionalFloatField(f domain.Fields, key string) *float64 {
	if v, ok := f[key]; !ok || v == nil || v == "" {
		return nil
	}
	n := floatField(f, key)
	return &n
}

func intField(f domain.Fields, key string) int {
	return int(floatField(f, key))
}

func timeField(f domain.Fields, key string) time.Time {
	switch v := f[key].(type) {
	case time.Time:
		return v.UTC()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func optionalTimeField(f domain.Fields, key string) *time.Time {
	t := timeField(f, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

// formatTime renders t in the stored layout; the zero time is stored as nil
// so backends clear the column.
func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(domain.TimestampLayout)
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func optionalFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
