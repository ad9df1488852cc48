package jobs

import (
	"context"
	"errors"
	"testing"

	"gearshare-backend/internal/cache"
	"gearshare-backend/internal/config"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/service"

	"github.com/stretchr/testify/assert"
)

type stubRentals struct {
	service.RentalService
	report *domain.SyncReport
	err    error
	panics bool
	calls  int
}

func (s *stubRentals) SyncStatuses(ctx context.Context) (*domain.SyncReport, error) {
	s.calls++
	if s.panics {
		panic("booking client exploded")
	}
	return s.report, s.err
}

type recordingCache struct {
	keys []string
}

func (c *recordingCache) Invalidate(ctx context.Context, keys ...string) {
	c.keys = append(c.keys, keys...)
}

func TestSyncRentalStatuses_InvalidatesDashboardOnChange(t *testing.T) {
	rentals := &stubRentals{report: &domain.SyncReport{Total: 3, Updated: 1}}
	c := &recordingCache{}
	jr := NewJobRunner(rentals, c, &config.Config{})

	jr.SyncRentalStatuses()

	assert.Equal(t, 1, rentals.calls)
	assert.Equal(t, []string{cache.DashboardKey}, c.keys)
}

func TestSyncRentalStatuses_NoChangeKeepsCache(t *testing.T) {
	c := &recordingCache{}
	jr := NewJobRunner(&stubRentals{report: &domain.SyncReport{Total: 2}}, c, &config.Config{})

	jr.SyncRentalStatuses()

	assert.Empty(t, c.keys)
}

func TestSyncRentalStatuses_ErrorAndPanicAreContained(t *testing.T) {
	c := &recordingCache{}

	jr := NewJobRunner(&stubRentals{err: errors.New("boom")}, c, &config.Config{})
	assert.NotPanics(t, jr.SyncRentalStatuses)

	jr = NewJobRunner(&stubRentals{panics: true}, nil, &config.Config{})
	assert.NotPanics(t, jr.SyncRentalStatuses)

	assert.Empty(t, c.keys)
}
