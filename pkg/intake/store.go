package intake

import (
	"sync"
	"time"

	"github.com/accreditkit/quoteform/pkg/forms"
)

// Step is a 1-based form step.
type Step int

const (
	StepOrganization Step = iota + 1
	StepFacility
	StepLeadership
	StepSite
	StepServices
	StepReview
)

// Bounds of the step range.
const (
	FirstStep = StepOrganization
	LastStep  = StepReview
)

// Valid reports whether s is within the step range.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// String returns the step title.
func (s Step) String() string {
	if info, ok := Default().Step(s); ok {
		return info.Title
	}
	return "unknown"
}

// Clock returns the current time. Date rules compare calendar days of its result.
type Clock func() time.Time

// Snapshot is the full form state.
type Snapshot struct {
	Step    Step    `json:"step" yaml:"step"`
	Answers Answers `json:"answers" yaml:"answers"`
}

// Observer is notified after every store mutation.
type Observer func(prev, next Step)

// Store holds the answers and the current step for one form.
// All operations are total: out-of-range requests are ignored.
type Store struct {
	mu        sync.RWMutex
	answers   Answers
	step      Step
	clock     Clock
	observers []Observer
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the clock used for date rules.
func WithClock(c Clock) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSnapshot seeds the store with a saved state.
func WithSnapshot(snap Snapshot) StoreOption {
	return func(s *Store) {
		s.answers = snap.Answers.Clone()
		if snap.Step.Valid() {
			s.step = snap.Step
		}
	}
}

// NewStore creates a store with default answers on step 1.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		step:  FirstStep,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to run after every mutation.
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Today returns the clock's current time.
func (s *Store) Today() time.Time {
	return forms.TruncateDay(s.clock())
}

// Clock returns the store clock.
func (s *Store) Clock() Clock {
	return s.clock
}

// Step returns the current step.
func (s *Store) Step() Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

// Answers returns a copy of the answers.
func (s *Store) Answers() Answers {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answers.Clone()
}

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Step: s.step, Answers: s.answers.Clone()}
}

// Update merges the non-nil sections of p. When the primary contact
// changes, linked leadership blocks are recomputed.
func (s *Store) Update(p Partial) {
	s.mutate(func() {
		prev := s.answers.Organization.Primary
		if p.Organization != nil {
			s.answers.Organization = *p.Organization
		}
		if p.FacilityType != nil {
			s.answers.FacilityType = *p.FacilityType
		}
		if p.Leadership != nil {
			s.answers.Leadership = *p.Leadership
		}
		if p.Site != nil {
			s.answers.Site = *p.Site
			s.answers.Site.Files = append([]FileDescriptor(nil), p.Site.Files...)
		}
		if p.Services != nil {
			s.answers.Services = p.Services.clone()
		}
		if primary := s.answers.Organization.Primary; primary != prev {
			s.answers.Leadership.Resync(primary)
		}
	})
}

// Next advances one step unless already on the last one.
func (s *Store) Next() {
	s.mutate(func() {
		if s.step < LastStep {
			s.step++
		}
	})
}

// Previous goes back one step unless already on the first one.
func (s *Store) Previous() {
	s.mutate(func() {
		if s.step > FirstStep {
			s.step--
		}
	})
}

// GoTo jumps to step n when it is in range.
func (s *Store) GoTo(n Step) {
	s.mutate(func() {
		if n.Valid() {
			s.step = n
		}
	})
}

// Reset restores the default answers and step 1.
func (s *Store) Reset() {
	s.mutate(func() {
		s.answers = Answers{}
		s.step = FirstStep
	})
}

func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	prev := s.step
	fn()
	next := s.step
	observers := s.observers
	s.mu.Unlock()

	for _, o := range observers {
		o(prev, next)
	}
}
