// sim/sim.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"sync"
	"time"

	av "github.com/mmp/flightcore/aviation"
	"github.com/mmp/flightcore/log"
	"github.com/mmp/flightcore/nav"
	"github.com/mmp/flightcore/util"

	"github.com/brunoga/deep"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

const (
	removedAircraftCacheSize = 256
	removedAircraftTTL       = 30 * time.Minute
)

// Sim advances a set of aircraft through time. All aircraft are updated
// in parallel at each tick; a tick completes for all of them before any
// of the shared approach course data is read for the next one.
type Sim struct {
	mu util.LoggingMutex
	// Held for the duration of a Tick.
	tickMu sync.Mutex

	SimTime  time.Time
	Aircraft map[string]*Aircraft
	// Approach course id -> course
	Approaches map[string]av.ApproachCourse

	machine *nav.Machine

	// Most recent clearance issued to each aircraft since the last tick
	pendingIntents map[string]nav.Intent
	// Course updates requested while a tick was running
	pendingCourses []av.ApproachCourse
	ticking        bool

	updateTimeSlop time.Duration

	removed     *lru.LRU[string, nav.NavState]
	eventStream *EventStream
	lg          *log.Logger
}

type NewSimConfiguration struct {
	StartTime   time.Time
	Performance *nav.Performance
	Approaches  map[string]av.ApproachCourse

	// See nav.Machine.LatchEstablished
	LatchEstablished bool
}

func NewSim(config NewSimConfiguration, lg *log.Logger) *Sim {
	perf := config.Performance
	if perf == nil {
		perf = nav.DefaultPerformance()
	}

	machine := nav.NewMachine(perf)
	machine.LatchEstablished = config.LatchEstablished

	s := &Sim{
		SimTime:        config.StartTime,
		Aircraft:       make(map[string]*Aircraft),
		Approaches:     make(map[string]av.ApproachCourse),
		machine:        machine,
		pendingIntents: make(map[string]nav.Intent),
		removed:        lru.NewLRU[string, nav.NavState](removedAircraftCacheSize, nil, removedAircraftTTL),
		eventStream:    NewEventStream(lg),
		lg:             lg,
	}
	maps.Copy(s.Approaches, config.Approaches)

	return s
}

// Destroy releases the resources associated with the Sim.
func (s *Sim) Destroy() {
	s.eventStream.Destroy()
}

func (s *Sim) Performance() *nav.Performance {
	return s.machine.Perf
}

// Events returns a new subscription to the events reported by the
// aircraft's state machines.
func (s *Sim) Events() *EventsSubscription {
	return s.eventStream.Subscribe()
}

func (s *Sim) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Time("sim_time", s.SimTime),
		slog.Int("aircraft", len(s.Aircraft)),
		slog.Int("approaches", len(s.Approaches)),
		slog.Int("pending_intents", len(s.pendingIntents)),
		slog.Any("event_stream", s.eventStream))
}

// Spawn adds the given aircraft to the sim.
func (s *Sim) Spawn(ac *Aircraft) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if _, ok := s.Aircraft[ac.Callsign]; ok {
		return fmt.Errorf("%s: %w", ac.Callsign, ErrDuplicateCallsign)
	}
	if err := ac.Check(); err != nil {
		return err
	}
	if c := ac.Nav.Approach.Course; c != nil {
		if _, ok := s.Approaches[c.Id]; !ok {
			return fmt.Errorf("%s: %s: %w", ac.Callsign, c.Id, ErrUnknownApproach)
		}
	}

	s.lg.Info("spawned aircraft", slog.Any("aircraft", ac))
	s.Aircraft[ac.Callsign] = ac
	return nil
}

// IssueClearance queues the clearance for the aircraft. It is applied at
// the next tick; if another clearance is issued to the aircraft before
// then, only the later one is applied.
func (s *Sim) IssueClearance(callsign string, intent nav.Intent) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if _, ok := s.Aircraft[callsign]; !ok {
		return fmt.Errorf("%s: %w", callsign, ErrNoAircraftForCallsign)
	}
	if ai, ok := intent.(nav.ApproachIntent); ok {
		if _, ok := s.Approaches[ai.Course.Id]; !ok {
			return fmt.Errorf("%s: %w", ai.Course.Id, ErrUnknownApproach)
		}
	}

	if prev, ok := s.pendingIntents[callsign]; ok {
		s.lg.Debug("superseded clearance", slog.String("callsign", callsign),
			slog.String("previous", prev.String()), slog.String("clearance", intent.String()))
	}
	s.pendingIntents[callsign] = intent
	return nil
}

// UpdateCourse adds or replaces an approach course. If a tick is in
// progress, the update takes effect once it has finished.
func (s *Sim) UpdateCourse(course av.ApproachCourse) error {
	if err := course.Check(); err != nil {
		return err
	}

	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if s.ticking {
		s.pendingCourses = append(s.pendingCourses, course)
	} else {
		s.Approaches[course.Id] = course
	}
	return nil
}

// GetAircraft returns a copy of the aircraft with the given callsign.
func (s *Sim) GetAircraft(callsign string) (Aircraft, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	ac, ok := s.Aircraft[callsign]
	if !ok {
		return Aircraft{}, fmt.Errorf("%s: %w", callsign, ErrNoAircraftForCallsign)
	}
	return deep.MustCopy(*ac), nil
}

// RecentlyRemoved returns the final state of an aircraft that has
// recently left the simulation.
func (s *Sim) RecentlyRemoved(callsign string) (nav.NavState, bool) {
	return s.removed.Get(callsign)
}

// Callsigns returns the callsigns of all of the active aircraft, sorted.
func (s *Sim) Callsigns() []string {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return util.SortedMapKeys(s.Aircraft)
}

type tickResult struct {
	nav    nav.NavState
	events []nav.Event
}

// Tick advances all of the aircraft by dt. The aircraft are updated in
// parallel; if the context is canceled before they all have been
// updated, no aircraft state is changed and the context's error is
// returned.
func (s *Sim) Tick(ctx context.Context, dt time.Duration) error {
	if !s.tickMu.TryLock() {
		return ErrTickInProgress
	}
	defer s.tickMu.Unlock()

	// Take everything the aircraft will read during this tick.
	s.mu.Lock(s.lg)
	now := s.SimTime.Add(dt)
	callsigns := util.SortedMapKeys(s.Aircraft)
	aircraft := make([]*Aircraft, len(callsigns))
	for i, cs := range callsigns {
		aircraft[i] = s.Aircraft[cs]
	}
	courses := maps.Clone(s.Approaches)
	intents := s.pendingIntents
	s.pendingIntents = make(map[string]nav.Intent)
	s.ticking = true
	s.mu.Unlock(s.lg)

	results := make([]tickResult, len(aircraft))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, ac := range aircraft {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.updateAircraft(ac, courses, intents[ac.Callsign], dt, now)
			return nil
		})
	}
	err := eg.Wait()

	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	s.ticking = false
	for _, c := range s.pendingCourses {
		s.Approaches[c.Id] = c
	}
	s.pendingCourses = nil

	if err != nil {
		// Put back the clearances that weren't applied, unless they've
		// since been superseded.
		for cs, intent := range intents {
			if _, ok := s.pendingIntents[cs]; !ok {
				s.pendingIntents[cs] = intent
			}
		}
		return err
	}

	s.SimTime = now
	for i, ac := range aircraft {
		ac.Nav = results[i].nav
		for _, e := range results[i].events {
			s.eventStream.Post(e)
		}

		if ac.Nav.Removed {
			s.lg.Info("removed aircraft", slog.Any("aircraft", ac))
			s.removed.Add(ac.Callsign, ac.Nav)
			delete(s.Aircraft, ac.Callsign)
		}
	}
	return nil
}

// updateAircraft runs a single aircraft's update for a tick. It reads
// only its own aircraft and the provided course table.
func (s *Sim) updateAircraft(ac *Aircraft, courses map[string]av.ApproachCourse, intent nav.Intent,
	dt time.Duration, now time.Time) tickResult {
	// Fly updates the state in place; work on a copy so that nothing is
	// visible if the tick is abandoned.
	state := deep.MustCopy(ac.Nav)

	if c := state.Approach.Course; c != nil {
		if updated, ok := courses[c.Id]; ok && updated != *c {
			state.Approach.Course = &updated
		}
	}
	if ai, ok := intent.(nav.ApproachIntent); ok {
		if course, ok := courses[ai.Course.Id]; ok {
			intent = nav.ApproachIntent{Course: course}
		}
	}

	s.machine.Fly(&state, ac.Route, float32(dt.Seconds()))
	state, events := s.machine.Advance(state, ac.Route, intent, now)
	return tickResult{nav: state, events: events}
}

// Step runs as many ticks of length dt as fit in elapsed, carrying over
// any remainder to the next call. It returns the number of ticks run.
func (s *Sim) Step(ctx context.Context, elapsed, dt time.Duration) (int, error) {
	if dt <= 0 {
		return 0, fmt.Errorf("%s: %w", dt, ErrInvalidTickLength)
	}
	elapsed += s.updateTimeSlop

	n := int(elapsed / dt)
	if n > 10 {
		s.lg.Warn("unexpected hitch in update rate", slog.Duration("elapsed", elapsed),
			slog.Int("steps", n), slog.Duration("slop", s.updateTimeSlop))
	}
	for i := range n {
		if err := s.Tick(ctx, dt); err != nil {
			s.updateTimeSlop = elapsed - time.Duration(i)*dt
			return i, err
		}
	}
	s.updateTimeSlop = elapsed - time.Duration(n)*dt

	return n, nil
}

// ActiveAircraft returns copies of all of the aircraft, sorted by
// callsign.
func (s *Sim) ActiveAircraft() []Aircraft {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	var acs []Aircraft
	for _, cs := range util.SortedMapKeys(s.Aircraft) {
		acs = append(acs, deep.MustCopy(*s.Aircraft[cs]))
	}
	return acs
}
