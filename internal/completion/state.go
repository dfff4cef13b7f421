package completion

// State is one point in the completion orchestrator's lifecycle, per
// spec.md §4.8.
type State string

const (
	StateAccepted   State = "accepted"
	StatePrepared   State = "prepared"
	StateStreaming  State = "streaming"
	StateDraining   State = "draining"
	StateCommitting State = "committing"
	StateDone       State = "done"

	StateRejectedLimit State = "rejected_limit"
	StateRejectedInput State = "rejected_input"
	StateUpstreamFailed State = "upstream_failed"
	StateClientGone     State = "client_gone"
	StateInternalError  State = "internal_error"

	// StateUpstreamFailedPreByte is the upstream-failure state reached before
	// sink.Open is ever called: no SSE frame has been written, so the caller
	// still owns the HTTP response and must render a structured 502/504.
	StateUpstreamFailedPreByte State = "upstream_failed_pre_byte"
)

func (s State) Terminal() bool {
	switch s {
	case StateDone, StateRejectedLimit, StateRejectedInput, StateUpstreamFailed, StateClientGone, StateInternalError, StateUpstreamFailedPreByte:
		return true
	default:
		return false
	}
}
