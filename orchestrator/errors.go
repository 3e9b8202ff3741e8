package orchestrator

import "errors"

var (
	// ErrSessionNotFound is returned when a session id does not resolve to a
	// live session in the registry.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned when a turn is submitted to a session that
	// has already reached its terminal state.
	ErrSessionClosed = errors.New("session closed")

	// ErrTurnInProgress is returned under the reject admission policy when a
	// turn arrives while another turn for the same session is being processed.
	ErrTurnInProgress = errors.New("turn in progress")

	// ErrAgentFailure wraps agent call errors after the retry bound is
	// exhausted. The stage and turn history are left untouched.
	ErrAgentFailure = errors.New("agent failure")

	// ErrInvalidTransition signals a stage policy bug. It is fatal to the
	// session, which is force-closed with a partial report.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrEmptyTurn is returned when inbound content is empty after
	// normalization.
	ErrEmptyTurn = errors.New("empty turn content")

	// ErrReportNotFound is returned by the HR surface for an unknown report id.
	ErrReportNotFound = errors.New("report not found")

	// ErrDecisionAlreadyRecorded is returned when an HR decision is recorded
	// twice on the same report.
	ErrDecisionAlreadyRecorded = errors.New("decision already recorded")
)
