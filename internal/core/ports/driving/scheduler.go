package driving

import "context"

// Scheduler runs recurring work in the background.
type Scheduler interface {
	// Start runs until Stop is called, the context is cancelled, or the
	// work reports an error that retrying cannot fix.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for the current run to finish.
	Stop() error
}
