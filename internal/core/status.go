package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Status is the lifecycle state of an action plan. It is never stored;
// DeriveStatus computes it on read.
type Status int

const (
	StatusInProgress Status = iota
	StatusStarting
	StatusDelayed
	StatusCompleted
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusCancelled:  "CANCELLED",
	StatusCompleted:  "COMPLETED",
	StatusDelayed:    "DELAYED",
	StatusStarting:   "STARTING",
	StatusInProgress: "IN_PROGRESS",
}

// Portuguese labels shown by the department's front end.
var statusLabels = map[Status]string{
	StatusCancelled:  "CANCELADO",
	StatusCompleted:  "CONCLUIDO",
	StatusDelayed:    "ATRASADO",
	StatusStarting:   "INICIANDO",
	StatusInProgress: "EM ANDAMENTO",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Label returns the display label used by the front end.
func (s Status) Label() string {
	return statusLabels[s]
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ParseStatus resolves a status name (CANCELLED, IN_PROGRESS, ...).
func ParseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// StatusOverride is the free-text status persisted with a plan. Only two
// values carry meaning: a cancellation sentinel and a completion sentinel.
// Matching is case-sensitive.
type StatusOverride string

const (
	OverrideCancelled       StatusOverride = "CANCELLED"
	OverrideCancelledLegacy StatusOverride = "CANCELADO"
	OverrideCompleted       StatusOverride = "COMPLETED"
	OverrideCompletedLegacy StatusOverride = "CONCLUIDO"
)

// Cancelled reports whether the override terminates the plan.
func (o StatusOverride) Cancelled() bool {
	return o == OverrideCancelled || o == OverrideCancelledLegacy
}

// Completed reports whether the override marks the plan as done.
func (o StatusOverride) Completed() bool {
	return o == OverrideCompleted || o == OverrideCompletedLegacy
}

// Clock is the current-time source used for status derivation and for
// stamping created_at/ano.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// Now implements Clock.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now implements Clock.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// DeriveStatus computes the status of a plan at now. Rules are evaluated in
// strict priority order:
//
//  1. cancelled override
//  2. actual end date present
//  3. final deadline before or after now (equal falls through)
//  4. planned window
//
// Calendar dates are compared as midnight of that day in now's location.
// Missing planned dates are neither before nor after now.
func DeriveStatus(p ActionPlan, now time.Time) Status {
	if p.Override.Cancelled() {
		return StatusCancelled
	}

	if p.RealFim.Valid {
		return StatusCompleted
	}

	if p.PrazoFinal.Valid {
		deadline := midnight(p.PrazoFinal, now.Location())
		if deadline.Before(now) {
			return StatusDelayed
		}
		if deadline.After(now) {
			return StatusInProgress
		}
	}

	if p.PrevFim.Valid && midnight(p.PrevFim, now.Location()).Before(now) {
		return StatusDelayed
	}
	if p.PrevInicio.Valid && midnight(p.PrevInicio, now.Location()).After(now) {
		return StatusStarting
	}
	return StatusInProgress
}

// View pairs a plan with its status at now.
func View(p ActionPlan, now time.Time) PlanView {
	st := DeriveStatus(p, now)
	return PlanView{ActionPlan: p, Status: st, StatusLabel: st.Label()}
}

func midnight(d pgtype.Date, loc *time.Location) time.Time {
	y, m, day := d.Time.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}
