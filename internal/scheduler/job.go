package scheduler

import (
	"context"
	"time"
)

// Job is one unit of scheduled pipeline work
// ⭐ SSOT: the job interface is defined here only
type Job interface {
	Name() string

	Run(ctx context.Context) error

	// Schedule returns a six-field cron expression (seconds first),
	// e.g. "0 0 6 * * MON", or a descriptor such as "@every 5m".
	Schedule() string
}

// JobResult records one execution, retries included.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

const maxHistory = 100

// JobHistory keeps the most recent maxHistory results, oldest first.
type JobHistory struct {
	results []JobResult
}

// Add appends result, dropping the oldest entry when full.
func (h *JobHistory) Add(result JobResult) {
	h.results = append(h.results, result)
	if len(h.results) > maxHistory {
		h.results = h.results[len(h.results)-maxHistory:]
	}
}

// Len returns the number of retained results.
func (h *JobHistory) Len() int {
	return len(h.results)
}

// Latest returns up to n of the newest results, newest last.
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.results) {
		n = len(h.results)
	}
	out := make([]JobResult, n)
	copy(out, h.results[len(h.results)-n:])
	return out
}

// Stats summarizes the retained results.
func (h *JobHistory) Stats(name, schedule string) JobStats {
	stats := JobStats{
		JobName:   name,
		Schedule:  schedule,
		TotalRuns: len(h.results),
	}

	for i := range h.results {
		r := h.results[i]
		stats.LastRun = &r.StartTime
		if r.Success {
			stats.SuccessCount++
			stats.LastSuccess = &r.StartTime
		} else {
			stats.FailureCount++
			stats.LastFailure = &r.StartTime
		}
	}

	if stats.TotalRuns > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.TotalRuns)
	}
	return stats
}

// JobStats summarizes a job's retained history.
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}
