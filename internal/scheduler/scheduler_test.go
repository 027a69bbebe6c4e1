package scheduler

import (
	"testing"

	"hotel-pms-backend/internal/config"
	"hotel-pms-backend/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_RegistersJobs(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		ReleaseOutOfOrderRooms: "0 */5 * * * *",
		MarkNoShows:            "0 15 * * * *",
	}}
	s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg))
	require.NoError(t, err)
	assert.True(t, s.IsRunning())
	assert.Len(t, s.cron.Entries(), 2)
}

func TestNewScheduler_RejectsBadSchedule(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		ReleaseOutOfOrderRooms: "every five minutes",
		MarkNoShows:            "0 15 * * * *",
	}}
	_, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg))
	assert.Error(t, err)
}
