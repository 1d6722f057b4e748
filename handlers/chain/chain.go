// Package chain runs ordered groups of event behaviours.
package chain

import (
	"context"
	"fmt"
	"sync"

	"originality-bot/utils"

	"go.uber.org/zap"
)

// Result tells the chain whether later groups should see the event.
type Result int

const (
	Continue Result = iota
	Halt
)

func (r Result) String() string {
	if r == Halt {
		return "halt"
	}
	return "continue"
}

// Behaviour reacts to one kind of event.
type Behaviour[E any] interface {
	Name() string
	Handle(ctx context.Context, event E) (Result, error)
}

// Func adapts a function to a Behaviour.
func Func[E any](name string, fn func(ctx context.Context, event E) (Result, error)) Behaviour[E] {
	return funcBehaviour[E]{name: name, fn: fn}
}

type funcBehaviour[E any] struct {
	name string
	fn   func(ctx context.Context, event E) (Result, error)
}

func (f funcBehaviour[E]) Name() string { return f.name }

func (f funcBehaviour[E]) Handle(ctx context.Context, event E) (Result, error) {
	return f.fn(ctx, event)
}

// Chain is a list of groups. Behaviours in a group run concurrently; once a
// group finishes, a Halt from any member stops the groups after it. Errors and
// panics are logged and count as Continue.
type Chain[E any] struct {
	groups [][]Behaviour[E]
}

// New builds a chain from groups in order.
func New[E any](groups ...[]Behaviour[E]) *Chain[E] {
	return &Chain[E]{groups: groups}
}

// Run offers event to each group and reports whether the chain was halted.
func (c *Chain[E]) Run(ctx context.Context, event E) Result {
	for _, group := range c.groups {
		if runGroup(ctx, group, event) == Halt {
			return Halt
		}
	}
	return Continue
}

func runGroup[E any](ctx context.Context, group []Behaviour[E], event E) Result {
	if len(group) == 1 {
		return runOne(ctx, group[0], event)
	}

	results := make([]Result, len(group))
	var wg sync.WaitGroup
	for i, b := range group {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = runOne(ctx, b, event)
		}()
	}
	wg.Wait()

	for _, r := range results {
		if r == Halt {
			return Halt
		}
	}
	return Continue
}

func runOne[E any](ctx context.Context, b Behaviour[E], event E) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			utils.Error("chain", b.Name(), fmt.Errorf("panic: %v", r))
			result = Continue
		}
	}()

	result, err := b.Handle(ctx, event)
	if err != nil {
		utils.Error("chain", b.Name(), err)
		return Continue
	}
	if result == Halt {
		utils.Debug("chain", b.Name(), zap.Stringer("result", result))
	}
	return result
}
