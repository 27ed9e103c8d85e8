// Package batch holds per-item outcomes of multi-record operations.
package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one record in a batch. One failing record
// never fails the others.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewError creates a failed batch result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the record id.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// OK reports whether the record was processed.
func (r Result) OK() bool { return r.status == StatusOK }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Failed counts the failed results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
