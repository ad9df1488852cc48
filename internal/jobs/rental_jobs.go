package jobs

import (
	"context"
	"time"

	"gearshare-backend/internal/cache"
	"gearshare-backend/internal/logger"
)

const syncRentalStatusesTimeout = 10 * time.Minute

// SyncRentalStatuses refreshes every open rental mirror from the Booking
// Backend. The dashboard cache is dropped when any status moved.
func (jr *JobRunner) SyncRentalStatuses() {
	jr.runWithRecovery("SyncRentalStatuses", func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncRentalStatusesTimeout)
		defer cancel()

		report, err := jr.rentals.SyncStatuses(ctx)
		if err != nil {
			logger.Error("Failed to sync rental statuses", "error", err)
			return
		}

		logger.Info("Synced rental statuses",
			"total", report.Total,
			"updated", report.Updated,
			"failed", report.Failed)

		if report.Updated > 0 && jr.cache != nil {
			jr.cache.Invalidate(ctx, cache.DashboardKey)
		}
	})
}
