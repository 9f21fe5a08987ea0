package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps in-process counters for the HTTP surface and the leave
// flow. All methods are safe for concurrent use.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	submissionsAdmitted uint64
	submissionsDenied   uint64
	approvals           uint64
	rejections          uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordSubmission counts a leave submission; denied means the quota ledger
// refused admission.
func (c *Collector) RecordSubmission(admitted bool) {
	if admitted {
		atomic.AddUint64(&c.submissionsAdmitted, 1)
		return
	}
	atomic.AddUint64(&c.submissionsDenied, 1)
}

func (c *Collector) RecordApproval() {
	atomic.AddUint64(&c.approvals, 1)
}

func (c *Collector) RecordRejection() {
	atomic.AddUint64(&c.rejections, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":       total,
		"errorsTotal":         atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal":    atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":       avg,
		"totalDurationMs":     totalMs,
		"submissionsAdmitted": atomic.LoadUint64(&c.submissionsAdmitted),
		"submissionsDenied":   atomic.LoadUint64(&c.submissionsDenied),
		"approvalsTotal":      atomic.LoadUint64(&c.approvals),
		"rejectionsTotal":     atomic.LoadUint64(&c.rejections),
	}
}
