package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how many items of a job are done. Items move from
// in-progress to finished.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// SetTotal sets the number of items of the job.
func (b *ProgressBar) SetTotal(total uint64) {
	b.Lock()
	defer b.Unlock()

	b.Total = total
}

// IncrementInProgress adds items that started.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished adds items that finished without being tracked as in
// progress.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished marks in-progress items as finished.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// Done tells if all the items are finished.
func (b *ProgressBar) Done() bool {
	b.Lock()
	defer b.Unlock()

	return b.Total > 0 && b.Finished >= b.Total
}
