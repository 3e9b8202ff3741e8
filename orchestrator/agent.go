package orchestrator

import "context"

// Reply is the outcome of one agent call: the text to relay to the candidate
// and the agent's own completion signal for its stage.
type Reply struct {
	Text string
	Done bool
}

// Agent is the pluggable responder bound to a stage. Implementations are
// stateless; everything they need arrives in the knowledge context. Respond
// may block on external services and must honor ctx cancellation.
type Agent interface {
	Name() string
	Respond(ctx context.Context, kc *KnowledgeContext) (Reply, error)
}

// Opener is implemented by agents that introduce their stage with an opening
// question when the session transitions to them. Agents that only synthesize
// (evaluation, HR handoff) do not open.
type Opener interface {
	Open(ctx context.Context, kc *KnowledgeContext) (string, error)
}
