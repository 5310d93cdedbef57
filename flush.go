package budgetgrid

import (
	"fmt"

	"github.com/google/uuid"
)

// Action is a change event submitted by the grid together with the context it
// was raised in and optional completion callbacks.
type Action struct {
	Event   ChangeEvent
	Context any

	OnSuccess func()
	OnError   func(error)

	key   contextKey
	keyed bool
}

// NewAction builds an action, fingerprinting its context immediately.
func NewAction(e ChangeEvent, ctx any) Action {
	return Action{Event: e, Context: ctx}.withKey()
}

func (a Action) withKey() Action {
	if !a.keyed {
		a.key = newContextKey(a.Context)
		a.keyed = true
	}
	return a
}

// batchable reports whether the action may be merged with its neighbours.
// Undo/redo results are never merged so that each stays one history step.
func (a Action) batchable() bool {
	if a.Event.Meta != MetaNone {
		return false
	}
	switch p := a.Event.Payload.(type) {
	case DataChange:
		return true
	case RowAdd:
		return p.HasData()
	}
	return false
}

// Dispatch is one consolidated event handed to the change handler. Actions are
// the submitted actions folded into it, in arrival order.
type Dispatch struct {
	ID      string
	Event   ChangeEvent
	Context any
	Actions []Action

	err error
}

// Err returns the consolidation error of a dispatch that could not be built.
func (d Dispatch) Err() error { return d.err }

// Type returns the event type of the dispatch, also when consolidation failed.
func (d Dispatch) Type() EventType {
	if d.Event.Payload != nil || len(d.Actions) == 0 {
		return d.Event.Type()
	}
	return d.Actions[0].Event.Type()
}

// complete reports the handler result to every folded action.
func (d Dispatch) complete(err error) {
	for _, a := range d.Actions {
		if err != nil {
			if a.OnError != nil {
				a.OnError(err)
			}
			continue
		}
		if a.OnSuccess != nil {
			a.OnSuccess()
		}
	}
}

// runningBatch accumulates contiguous actions of one type and context.
type runningBatch struct {
	typ     EventType
	key     contextKey
	actions []Action
}

func (b *runningBatch) empty() bool { return len(b.actions) == 0 }

func (b *runningBatch) accepts(a Action) bool {
	return !b.empty() && b.typ == a.Event.Type() && b.key.equal(a.key)
}

func (b *runningBatch) start(a Action) {
	b.typ = a.Event.Type()
	b.key = a.key
	b.actions = []Action{a}
}

// take builds the dispatch for the batch and resets it.
func (b *runningBatch) take() Dispatch {
	actions := b.actions
	b.actions = nil

	events := make([]ChangeEvent, len(actions))
	for i, a := range actions {
		events[i] = a.Event
	}
	var (
		event ChangeEvent
		err   error
	)
	switch b.typ {
	case EventDataChange:
		event, err = ConsolidateDataChangeEvents(events)
	case EventRowAdd:
		event, err = ConsolidateRowAddEvents(events)
	default:
		err = fmt.Errorf("batch of %s events: %w", b.typ, ErrMixedEvents)
	}
	if err != nil {
		err = fmt.Errorf("consolidate %d %s events: %w", len(actions), b.typ, err)
	}
	return Dispatch{
		ID:      uuid.NewString(),
		Event:   event,
		Context: actions[0].Context,
		Actions: actions,
		err:     err,
	}
}

func single(a Action) Dispatch {
	return Dispatch{
		ID:      uuid.NewString(),
		Event:   a.Event,
		Context: a.Context,
		Actions: []Action{a},
	}
}

// resolveFunc turns a forward/reverse meta event into the event to replay.
type resolveFunc func(meta ChangeEvent) (ChangeEvent, bool)

// flushEvents walks actions in arrival order and emits consolidated dispatches.
// Contiguous actions of the same batchable type and context merge into one
// dispatch; anything else closes the running batch before it is handled, so
// the emitted order matches the arrival order at batch granularity. Meta
// actions are resolved only after the running batch was emitted, so a history
// updated by emit is visible to them. Unresolvable meta actions are dropped.
func flushEvents(actions []Action, resolve resolveFunc, emit func(Dispatch)) {
	var running runningBatch
	flush := func() {
		if !running.empty() {
			emit(running.take())
		}
	}
	for _, a := range actions {
		a = a.withKey()
		if a.Event.Type().IsMeta() {
			flush()
			if resolve == nil {
				continue
			}
			resolved, ok := resolve(a.Event)
			if !ok {
				continue
			}
			a.Event = resolved
		}
		if !a.batchable() {
			flush()
			emit(single(a))
			continue
		}
		if !running.accepts(a) {
			flush()
			running.start(a)
			continue
		}
		running.actions = append(running.actions, a)
	}
	flush()
}
