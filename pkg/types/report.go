package types

import (
	"errors"
	"time"
)

// Report statuses.
const (
	StatusProcessed = "processed"
	StatusNoFields  = "no_fields"
	StatusMissing   = "missing"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Report summarizes the processing of one record type.
type Report struct {
	RecordType string        `json:"record_type"`
	Table      string        `json:"table"`
	Status     string        `json:"status"`
	Fields     []string      `json:"fields"`
	Records    int           `json:"records"`
	Batches    int           `json:"batches"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`

	Err error `json:"-"`
}

// Failed reports whether the record type ended in error.
func (r Report) Failed() bool {
	return r.Err != nil
}

// RunReport collects the per-record-type reports of a run in configuration
// order.
type RunReport struct {
	Reports  []Report      `json:"reports"`
	Duration time.Duration `json:"duration"`
}

// Records returns the total number of records touched.
func (r RunReport) Records() int {
	total := 0
	for _, rep := range r.Reports {
		total += rep.Records
	}
	return total
}

// Failed returns the reports that ended in error.
func (r RunReport) Failed() []Report {
	var out []Report
	for _, rep := range r.Reports {
		if rep.Failed() {
			out = append(out, rep)
		}
	}
	return out
}

// Err joins the per-type errors under ErrRunFailed, or returns nil when every
// record type succeeded.
func (r RunReport) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := []error{ErrRunFailed}
	for _, rep := range failed {
		errs = append(errs, rep.Err)
	}
	return errors.Join(errs...)
}
