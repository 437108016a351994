package synthesis

import "context"

// ChatClient completes a prompt into free text.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
