package jobs

import (
	"context"

	"hotel-pms-backend/internal/logger"
)

// ReleaseOutOfOrderRooms returns rooms to AVAILABLE once their out-of-order
// deadline has passed. The sweep is one conditional update, so several
// instances may run it at once.
func (jr *JobRunner) ReleaseOutOfOrderRooms() {
	jr.runWithRecovery("ReleaseOutOfOrderRooms", func() {
		released, err := jr.releaseOutOfOrderRooms(context.Background())
		if err != nil {
			logger.Error("Failed to release out-of-order rooms", "error", err)
			return
		}
		logger.Info("Released out-of-order rooms", "count", len(released), "room_ids", released)
	})
}

func (jr *JobRunner) releaseOutOfOrderRooms(ctx context.Context) ([]int32, error) {
	return jr.services.Rooms.ReleaseExpiredOutOfOrder(ctx)
}
