package engine

import (
	"context"

	"github.com/PROACTIVA-US/VISLZR/pkg/actions"
)

type confirmKey struct{}

// WithConfirmation records whether the caller has already confirmed the
// action being executed under ctx.
func WithConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, confirmed)
}

// requestConfirmer approves an action only when the request said so
var requestConfirmer = actions.ConfirmerFunc(func(ctx context.Context, _ string) (bool, error) {
	confirmed, _ := ctx.Value(confirmKey{}).(bool)
	return confirmed, nil
})
