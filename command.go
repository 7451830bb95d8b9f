package tds

import (
	"context"
	"fmt"
	"sync"

	"github.com/pior/tds/token"
)

// Command is one logical request/response exchange. It carries the
// context whose cancellation the token parser observes cooperatively
// before each DONE-family token.
type Command struct {
	name string
	ctx  context.Context

	mu          sync.Mutex
	interrupted error
	finished    bool
}

var _ token.Command = (*Command)(nil)

func NewCommand(ctx context.Context, name string) *Command {
	return &Command{name: name, ctx: ctx}
}

// Name returns the diagnostic name of the command.
func (c *Command) Name() string {
	return c.name
}

// Interrupt marks the command as interrupted with the given reason. The
// next interrupt check fails the parse with it.
func (c *Command) Interrupt(reason error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interrupted == nil {
		c.interrupted = reason
	}
}

// CheckForInterrupt fails when the command was cancelled, either
// explicitly through Interrupt or by its context.
func (c *Command) CheckForInterrupt() error {
	c.mu.Lock()
	interrupted := c.interrupted
	c.mu.Unlock()

	if interrupted != nil {
		return fmt.Errorf("tds: command %q interrupted: %w", c.name, interrupted)
	}
	if err := c.ctx.Err(); err != nil {
		return fmt.Errorf("tds: command %q interrupted: %w", c.name, err)
	}
	return nil
}

// OnTokenStreamEnd records that the response stream for this command
// ended.
func (c *Command) OnTokenStreamEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = true
}

// Finished reports whether the response stream was fully consumed.
func (c *Command) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}
