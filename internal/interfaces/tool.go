// -----------------------------------------------------------------------
// Tool Interface - domain tools bound to analyst roles
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
)

// Tool is a deterministic domain capability an analyst role may invoke
// through the stage executor's tool-use protocol.
type Tool interface {
	// Name is the identifier the model uses in "Action: <name>" lines
	Name() string

	// Description is included in the stage prompt so the model knows what the tool returns
	Description() string

	// Run executes the tool over the given input text.
	// An error fails the calling stage.
	Run(ctx context.Context, input string) (string, error)
}

// FingerprintedTool is a tool whose input refers to external state, such as a file path.
// Fingerprint returns the identity of that state; caches key on it instead of the raw input.
type FingerprintedTool interface {
	Tool
	Fingerprint(input string) (string, error)
}
