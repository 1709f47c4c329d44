package quality

import (
	"fmt"
)

// MissingPairError records a reference file without a same-named produced
// file. It is an expected outcome of partial coverage, not a failure.
type MissingPairError struct {
	Name string
}

func (e *MissingPairError) Error() string {
	return fmt.Sprintf("no produced image for %s", e.Name)
}

// MetricComputationError records a metric that could not be computed for a
// pair, e.g. because the images are smaller than the SSIM window.
type MetricComputationError struct {
	Name   string
	Metric Metric
	Err    error
}

func (e *MetricComputationError) Error() string {
	return fmt.Sprintf("%s: computing %s: %v", e.Name, e.Metric, e.Err)
}

func (e *MetricComputationError) Unwrap() error { return e.Err }
