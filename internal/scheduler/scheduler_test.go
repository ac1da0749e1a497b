package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestAddJob_EmptyScheduleDisablesJob(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	require.NoError(t, s.AddJob("", &countingJob{name: "disabled"}))
	assert.Empty(t, s.Jobs())
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	assert.Error(t, s.AddJob("not a schedule", &countingJob{name: "broken"}))
	assert.Empty(t, s.Jobs())
}

func TestJobs_SortedByName(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	require.NoError(t, s.AddJob("0 */5 * * * *", &countingJob{name: "zeta"}))
	require.NoError(t, s.AddJob("@hourly", &countingJob{name: "alpha"}))

	s.Start()
	defer s.Stop()

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "alpha", jobs[0].Name)
	assert.Equal(t, "@hourly", jobs[0].Schedule)
	assert.Equal(t, "zeta", jobs[1].Name)
	assert.False(t, jobs[1].Next.IsZero())
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	job := &countingJob{name: "manual"}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)

	failing := &countingJob{name: "failing", err: errors.New("boom")}
	assert.Error(t, s.RunNow(failing))
}
