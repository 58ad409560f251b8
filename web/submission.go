// Package web is the server-rendered companion application. Each page
// submits one request to the authgate API and renders the outcome.
package web

// State is the phase of a form submission.
type State int

const (
	Pending State = iota
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Success:
		return "success"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Submission tracks one request from a page. It starts pending and moves to
// success or error exactly once.
type Submission struct {
	state State
	data  any
	err   *APIError
}

// Resolve records a successful outcome. It reports false and changes nothing
// if the submission already settled.
func (s *Submission) Resolve(data any) bool {
	if s.state != Pending {
		return false
	}
	s.state, s.data = Success, data
	return true
}

// Reject records a failed outcome under the same rule as Resolve.
func (s *Submission) Reject(err *APIError) bool {
	if s.state != Pending || err == nil {
		return false
	}
	s.state, s.err = Failed, err
	return true
}

// Settle resolves or rejects depending on err.
func (s *Submission) Settle(data any, err error) bool {
	if err != nil {
		return s.Reject(asAPIError(err))
	}
	return s.Resolve(data)
}

func (s *Submission) State() State   { return s.state }
func (s *Submission) Data() any      { return s.data }
func (s *Submission) Err() *APIError { return s.err }

func (s *Submission) IsPending() bool { return s.state == Pending }
func (s *Submission) IsSuccess() bool { return s.state == Success }
func (s *Submission) IsError() bool   { return s.state == Failed }
