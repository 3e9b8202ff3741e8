package orchestrator

import "context"

// Store is the persistence boundary the orchestrator writes through. Reads go
// directly against the repository layer; the engine only ever appends turns,
// saves reports, and marks sessions closed. A nil Store is valid and turns
// persistence into a no-op, which the tests rely on.
type Store interface {
	SaveTurn(ctx context.Context, sessionID string, t Turn) error
	SaveReport(ctx context.Context, r *Report) error
	UpdateSessionStage(ctx context.Context, sessionID string, stage Stage) error
	CloseSession(ctx context.Context, sessionID string, stage Stage, reason string) error
}
