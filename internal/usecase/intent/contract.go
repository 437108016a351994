package intent

import "context"

// ChatClient completes a prompt into a JSON document.
type ChatClient interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}
