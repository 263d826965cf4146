package request

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Phase is the tag of a State.
type Phase int

const (
	Idle Phase = iota
	Pending
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the lifecycle of one action. The result is only readable while
// Succeeded and the error message only while Failed.
type State[T any] struct {
	phase  Phase
	result T
	errMsg string
}

func (s State[T]) Phase() Phase { return s.phase }

func (s State[T]) Pending() bool { return s.phase == Pending }

func (s State[T]) Result() (T, bool) {
	if s.phase != Succeeded {
		var zero T
		return zero, false
	}
	return s.result, true
}

func (s State[T]) Failure() (string, bool) {
	if s.phase != Failed {
		return "", false
	}
	return s.errMsg, true
}

// Ticket identifies one triggered call. Owner and Epoch decide whether its
// outcome is still wanted when it arrives.
type Ticket struct {
	Action    string
	Owner     string
	Epoch     uint64
	RequestID string
}

// Controller runs the idle -> pending -> succeeded/failed cycle for a single
// action and never has more than one call outstanding.
type Controller[T any] struct {
	mu sync.Mutex

	action  string
	owner   string
	failure string
	logger  zerolog.Logger

	epoch uint64
	state State[T]
}

// NewController creates the controller for action. failureMessage is what the
// user sees for any failure; the underlying error is only logged.
func NewController[T any](action, failureMessage string, logger zerolog.Logger) *Controller[T] {
	owner := uuid.NewString()
	return &Controller[T]{
		action:  action,
		owner:   owner,
		failure: failureMessage,
		logger: logger.With().
			Str("action", action).
			Str("controller", owner[:8]).
			Logger(),
	}
}

func (c *Controller[T]) Action() string { return c.action }

func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Trigger starts a call for a text input. Blank input or a call already
// pending make it a no-op.
func (c *Controller[T]) Trigger(input string) (Ticket, bool) {
	return c.Begin(strings.TrimSpace(input) != "")
}

// Begin starts a call when ready is true and nothing is pending. Any previous
// result or error is cleared.
func (c *Controller[T]) Begin(ready bool) (Ticket, bool) {
	if !ready {
		return Ticket{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.phase == Pending {
		c.logger.Debug().Msg("trigger ignored while pending")
		return Ticket{}, false
	}
	c.epoch++
	c.state = State[T]{phase: Pending}
	ticket := Ticket{
		Action:    c.action,
		Owner:     c.owner,
		Epoch:     c.epoch,
		RequestID: uuid.NewString(),
	}
	c.logger.Debug().Str("request_id", ticket.RequestID).Uint64("epoch", ticket.Epoch).Msg("request pending")
	return ticket, true
}

// Settle resolves the pending call identified by t. It returns false, and
// changes nothing, when t is stale.
func (c *Controller[T]) Settle(t Ticket, value T, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Owner != c.owner || t.Epoch != c.epoch || c.state.phase != Pending {
		c.logger.Debug().
			Str("request_id", t.RequestID).
			Uint64("epoch", t.Epoch).
			Uint64("current_epoch", c.epoch).
			Msg("stale response ignored")
		return false
	}
	if err != nil {
		c.logger.Error().Err(err).Str("request_id", t.RequestID).Msg("request failed")
		c.state = State[T]{phase: Failed, errMsg: c.failure}
		return true
	}
	c.logger.Debug().Str("request_id", t.RequestID).Msg("request succeeded")
	c.state = State[T]{phase: Succeeded, result: value}
	return true
}

// Discard forgets any outstanding call and returns to Idle. Outcomes issued
// before the discard are ignored by Settle.
func (c *Controller[T]) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.state = State[T]{}
}

// Call performs the network work of a dispatch.
type Call[T any] func(ctx context.Context) (T, error)

// Dispatch is a triggered call that has not run yet.
type Dispatch[T any] struct {
	Ticket Ticket
	call   Call[T]
}

func NewDispatch[T any](ticket Ticket, call Call[T]) Dispatch[T] {
	return Dispatch[T]{Ticket: ticket, call: call}
}

// Outcome is the settled result of a dispatch.
type Outcome[T any] struct {
	Ticket Ticket
	Value  T
	Err    error
}

// Run executes the call once. It always returns an outcome, so a panic in the
// call surfaces as an error instead of leaving the action pending.
func (d Dispatch[T]) Run(ctx context.Context) (out Outcome[T]) {
	out.Ticket = d.Ticket
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out.Value = zero
			out.Err = fmt.Errorf("%s: panic: %v", d.Ticket.Action, r)
		}
	}()
	if d.call == nil {
		out.Err = fmt.Errorf("%s: no call attached", d.Ticket.Action)
		return out
	}
	out.Value, out.Err = d.call(ctx)
	return out
}
