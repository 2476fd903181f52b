package metrics

import (
	"sync/atomic"
	"time"

	"hrrecords/internal/domain/permissions"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	authzByRole       uint64
	authzByDepartment uint64
	authzByUser       uint64
	authzDenied       uint64
	authzLookupErrors uint64
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

// RecordAuthorization counts a decision by the tier that decided it. It is
// meant to be registered with permissions.WithObserver.
func (c *Collector) RecordAuthorization(d permissions.Decision) {
	if d.Failures > 0 {
		atomic.AddUint64(&c.authzLookupErrors, uint64(d.Failures))
	}
	if !d.Allowed {
		atomic.AddUint64(&c.authzDenied, 1)
		return
	}
	switch d.Tier {
	case permissions.TierRole:
		atomic.AddUint64(&c.authzByRole, 1)
	case permissions.TierDepartment:
		atomic.AddUint64(&c.authzByDepartment, 1)
	case permissions.TierUser:
		atomic.AddUint64(&c.authzByUser, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"authorization": map[string]uint64{
			"allowedByRole":       atomic.LoadUint64(&c.authzByRole),
			"allowedByDepartment": atomic.LoadUint64(&c.authzByDepartment),
			"allowedByUser":       atomic.LoadUint64(&c.authzByUser),
			"denied":              atomic.LoadUint64(&c.authzDenied),
			"lookupErrors":        atomic.LoadUint64(&c.authzLookupErrors),
		},
	}
}
