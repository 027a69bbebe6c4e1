package jobs

import (
	"context"
	"errors"

	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/logger"
)

// MarkNoShows moves CONFIRMED reservations whose check-in day has fully
// elapsed in the property's calendar to NO_SHOW, releasing their rooms.
func (jr *JobRunner) MarkNoShows() {
	jr.runWithRecovery("MarkNoShows", func() {
		marked, err := jr.markNoShows(context.Background())
		if err != nil {
			logger.Error("Failed to mark no-shows", "error", err)
			return
		}
		logger.Info("Marked reservations as no-show", "count", marked)
	})
}

func (jr *JobRunner) markNoShows(ctx context.Context) (int, error) {
	candidates, err := jr.services.Reservations.ListNoShowCandidates(ctx)
	if err != nil {
		return 0, err
	}

	system := domain.SystemPrincipal()
	marked := 0
	for _, res := range candidates {
		updated, err := jr.services.Reservations.MarkNoShow(ctx, system, res.ID)
		var transition *domain.InvalidTransitionError
		switch {
		case errors.As(err, &transition):
			// Checked in or cancelled since the candidate list was read.
			logger.Debug("Skipping no-show", "reservation_id", res.ID, "status", transition.From)
			continue
		case err != nil:
			logger.Error("Failed to mark no-show", "reservation_id", res.ID, "error", err)
			continue
		}
		if updated.Status == domain.ReservationNoShow {
			marked++
		}
	}
	return marked, nil
}
