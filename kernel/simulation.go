// Package kernel implements the discrete-event core: a monotone logical
// clock, future and deferred priority queues, an entity registry, and the
// simulation main loop. Grounded on sim/cluster/event_heap.go (priority
// queue shape) and sim/cluster/simulator.go's Run() loop (pop-execute-
// advance-clock with a clock-monotonicity invariant).
package kernel

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrInvalidSchedule is returned by Send when delay is below min_event_gap
// or dest is not a registered entity; nothing is scheduled. The datacenter
// aborts the run when it cannot schedule its own tick; the broker, and the
// datacenter's cloudlet-return and migration-completion sends, log a
// warning and continue.
type ErrInvalidSchedule struct {
	Reason string
}

func (e *ErrInvalidSchedule) Error() string {
	return fmt.Sprintf("invalid schedule: %s", e.Reason)
}

// Simulation is the first-class kernel value: constructed, entities
// registered, run, then dropped. Never a process-wide singleton (spec.md
// §9 "Global kernel state").
type Simulation struct {
	clock                    float64
	terminateAt              float64
	minEventGap              float64
	future                   *eventQueue
	deferred                 *eventQueue
	entities                 map[EntityID]Entity
	order                    []EntityID // registration order, for deterministic Start/Shutdown fan-out
	nextEntityID             EntityID
	nextSerial               uint64
	anyCloudletEverSubmitted bool
	lastCloudletSubmitTime   float64
}

// Option configures a Simulation at construction time.
type Option func(*Simulation)

// WithMinEventGap sets the minimum delay accepted by Send. Defaults to a
// small strictly-positive epsilon if unset or non-positive.
func WithMinEventGap(gap float64) Option {
	return func(s *Simulation) { s.minEventGap = gap }
}

// WithTerminateAt sets a hard upper bound on the simulation clock.
func WithTerminateAt(t float64) Option {
	return func(s *Simulation) { s.terminateAt = t }
}

// New constructs a Simulation with clock reset to 0, empty queues, and id
// counter reset to 0 — mirrors spec.md §4.2's init(expected_entities,
// start_date) contract minus the unused start_date (wall-clock is never
// part of core semantics per spec.md §1).
func New(opts ...Option) *Simulation {
	s := &Simulation{
		clock:       0,
		minEventGap: 1e-9,
		terminateAt: -1, // no bound
		future:      newEventQueue(),
		deferred:    newEventQueue(),
		entities:    make(map[EntityID]Entity),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.minEventGap <= 0 {
		s.minEventGap = 1e-9
	}
	return s
}

// Clock returns the current simulation time.
func (s *Simulation) Clock() float64 { return s.clock }

// Register assigns the entity a stable id and stores it. Must be called
// before Run.
func (s *Simulation) Register(e Entity) EntityID {
	id := s.nextEntityID
	s.nextEntityID++
	e.SetID(id)
	e.SetState(StateRunnable)
	s.entities[id] = e
	s.order = append(s.order, id)
	return id
}

// Entity looks up a registered entity by id.
func (s *Simulation) Entity(id EntityID) (Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// TerminateAt sets a hard upper bound on the simulation clock (spec.md
// §4.1 "terminate_at(T)").
func (s *Simulation) TerminateAt(t float64) { s.terminateAt = t }

// Send enqueues an event into the future queue with fire_time = clock +
// delay. delay must be >= minEventGap; violations return
// ErrInvalidSchedule and schedule nothing, matching spec.md §4.1 and §7
// ("Negative delay / invalid event schedule -> fail fast").
func (s *Simulation) Send(src, dest EntityID, delay float64, tag string, payload any) error {
	if delay < s.minEventGap {
		return &ErrInvalidSchedule{Reason: fmt.Sprintf("delay %g below min_event_gap %g", delay, s.minEventGap)}
	}
	if _, ok := s.entities[dest]; !ok {
		return &ErrInvalidSchedule{Reason: fmt.Sprintf("unknown destination entity %d", dest)}
	}
	e := &Event{
		Source:   src,
		Dest:     dest,
		SendTime: s.clock,
		FireTime: s.clock + delay,
		Tag:      tag,
		Payload:  payload,
		Serial:   s.nextSerial,
	}
	s.nextSerial++
	s.future.schedule(e)
	return nil
}

// CancelFirst removes the first future-queue event matching predicate(src,
// tag), per spec.md §4.1.
func (s *Simulation) CancelFirst(src EntityID, predicate func(source EntityID, tag string) bool) bool {
	removed := s.future.removeWhere(func(e *Event) bool {
		return e.Source == src && predicate(e.Source, e.Tag)
	}, 1)
	return len(removed) > 0
}

// CancelAll removes every future-queue event matching predicate(src, tag).
func (s *Simulation) CancelAll(src EntityID, predicate func(source EntityID, tag string) bool) int {
	removed := s.future.removeWhere(func(e *Event) bool {
		return e.Source == src && predicate(e.Source, e.Tag)
	}, 0)
	return len(removed)
}

// FindFirstDeferred peeks (without removing) the first deferred-queue event
// addressed to dst matching predicate.
func (s *Simulation) FindFirstDeferred(dst EntityID, predicate func(tag string) bool) *Event {
	return s.deferred.findFirst(func(e *Event) bool {
		return e.Dest == dst && predicate(e.Tag)
	})
}

// RunTick pops the earliest future-queue event, advances the clock to
// max(clock, fire_time), and delivers it. If the destination entity is not
// in StateRunning, the event is moved to the deferred queue instead of
// being delivered. Returns false when there is nothing left to process.
func (s *Simulation) RunTick() bool {
	e := s.future.popNext()
	if e == nil {
		return false
	}
	if e.FireTime > s.clock {
		s.clock = e.FireTime
	}
	dest, ok := s.entities[e.Dest]
	if !ok {
		// Destination vanished after scheduling; this indicates a bug in
		// caller bookkeeping, not a recoverable condition.
		panic(fmt.Sprintf("kernel: event %s delivered to unknown entity %d", e.Tag, e.Dest))
	}
	if dest.State() != StateRunning {
		s.deferred.schedule(e)
		return true
	}
	logrus.Debugf("[tick %012.3f] %s -> %q (entity %d)", s.clock, e.Tag, dest.Name(), dest.ID())
	dest.OnEvent(s, e)
	return true
}

// Run starts every registered entity (delivering Start to each, in
// registration order), then drains the future queue via RunTick until
// either it is empty or the clock reaches terminateAt, then shuts down
// every entity. Returns the final clock value.
func (s *Simulation) Run() float64 {
	for _, id := range s.order {
		e := s.entities[id]
		e.SetState(StateRunning)
	}
	for _, id := range s.order {
		s.entities[id].OnStart(s)
	}

	for {
		if s.terminateAt >= 0 && s.clock >= s.terminateAt {
			break
		}
		next := s.future.peek()
		if next == nil {
			break
		}
		if s.terminateAt >= 0 && next.FireTime > s.terminateAt {
			break
		}
		if !s.RunTick() {
			break
		}
	}

	s.StopSimulation()
	return s.clock
}

// StopSimulation drains remaining future events without delivery and
// delivers END_OF_SIMULATION to every entity, in registration order.
func (s *Simulation) StopSimulation() {
	s.future.removeWhere(func(*Event) bool { return true }, 0)
	for _, id := range s.order {
		e := s.entities[id]
		if e.State() == StateFinished {
			continue
		}
		e.OnShutdown(s)
		e.SetState(StateFinished)
	}
}

// MarkCloudletSubmitted records that a cloudlet has been submitted at the
// current clock; consulted by the datacenter entity's per-tick no-op-skip
// check (spec.md §4.9 step 1). Callers must invoke this when a
// CLOUDLET_SUBMIT event is actually delivered, not when it is merely
// scheduled, so the "submitted at the current clock" condition below is
// accurate.
func (s *Simulation) MarkCloudletSubmitted() {
	s.anyCloudletEverSubmitted = true
	s.lastCloudletSubmitTime = s.clock
}

// AnyCloudletEverSubmitted reports whether MarkCloudletSubmitted has ever
// been called.
func (s *Simulation) AnyCloudletEverSubmitted() bool { return s.anyCloudletEverSubmitted }

// CloudletSubmittedAtCurrentClock reports whether MarkCloudletSubmitted was
// last called at the current clock value (spec.md §4.9 step 1's "or one
// was submitted at the current clock" clause).
func (s *Simulation) CloudletSubmittedAtCurrentClock() bool {
	return s.anyCloudletEverSubmitted && s.lastCloudletSubmitTime == s.clock
}
