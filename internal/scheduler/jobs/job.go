package jobs

import (
	"context"
	"time"
)

const DefaultMinimumJobIntervalSeconds = 1

// Job is a unit of recurring work the scheduler ticks on its own interval:
// the nightly pipeline run, the daily settlement scan, and similar
// per-seller scheduled tasks described in §6's scheduling model.
type Job interface {
	Execute(context.Context) error
	GetInterval() time.Duration
	GetName() string
}
