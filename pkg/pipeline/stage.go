// Package pipeline provides the stage abstraction and the stage input and
// output types of the preview renderer.
package pipeline

import "context"

// Stage is one step of a render: document, capture, layout, crop,
// placeholder or split. Stages hold no per-render state, so one instance
// serves concurrent renders.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a function to Stage.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute calls f.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}
