// Package transform turns docstring text into replacement text.
package transform

import (
	"context"
)

// Transformer produces replacement text for one docstring. Errors are returned unchanged
// to the caller; transformers do not retry on their own.
type Transformer interface {
	Transform(ctx context.Context, text string) (string, error)
}

// Func adapts an ordinary function to the Transformer interface.
type Func func(ctx context.Context, text string) (string, error)

// Transform implements Transformer.
func (f Func) Transform(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Identity returns every docstring unchanged. It is useful for dry runs and for
// normalizing docstring quoting without calling a model.
type Identity struct{}

// Transform implements Transformer.
func (Identity) Transform(ctx context.Context, text string) (string, error) {
	err := ctx.Err()
	if err != nil {
		return "", err
	}

	return text, nil
}
