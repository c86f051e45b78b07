package server

import (
	"context"
	"log"
)

// compensator collects undo steps for a multi-write operation. When an
// intermediate write fails, Run unwinds the recorded steps in reverse
// order. Undo failures are logged and never escalated; the original
// failure stays the reported error.
type compensator struct {
	steps []compensation
}

type compensation struct {
	name string
	undo func(context.Context) error
}

// add records one undo step. Steps added first run last.
func (c *compensator) add(name string, undo func(context.Context) error) {
	c.steps = append(c.steps, compensation{name: name, undo: undo})
}

// run unwinds the recorded steps in reverse order.
func (c *compensator) run(ctx context.Context) {
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.undo(ctx); err != nil {
			log.Printf("compensate %s: %v", step.name, err)
		}
	}
}
