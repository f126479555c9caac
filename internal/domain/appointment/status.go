package appointment

import "github.com/BruksfildServices01/barber-booking/internal/httperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// BlocksSlot reports whether an appointment in this status occupies its interval.
func (s Status) BlocksSlot() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// NonBlockingStatuses are excluded from every overlap check.
var NonBlockingStatuses = []string{string(StatusCancelled), string(StatusNoShow)}

// NonTerminalStatuses are the states an appointment can still leave.
var NonTerminalStatuses = []Status{StatusScheduled, StatusConfirmed, StatusInProgress}

// ===============================
// Transitions
// ===============================

var transitions = map[Status][]Status{
	StatusConfirmed:  {StatusScheduled},
	StatusInProgress: {StatusScheduled, StatusConfirmed},
	StatusCompleted:  {StatusScheduled, StatusConfirmed, StatusInProgress},
	StatusCancelled:  NonTerminalStatuses,
	StatusNoShow:     NonTerminalStatuses,
}

// AllowedFrom lists the states from which `to` may be entered.
func AllowedFrom(to Status) []Status {
	return transitions[to]
}

func CanTransition(from, to Status) error {
	for _, s := range transitions[to] {
		if s == from {
			return nil
		}
	}
	return httperr.ErrBusiness("invalid_state")
}

func CanConfirm(current Status) error  { return CanTransition(current, StatusConfirmed) }
func CanStart(current Status) error    { return CanTransition(current, StatusInProgress) }
func CanComplete(current Status) error { return CanTransition(current, StatusCompleted) }
func CanCancel(current Status) error   { return CanTransition(current, StatusCancelled) }
func CanMarkNoShow(current Status) error {
	return CanTransition(current, StatusNoShow)
}

func InitialStatus() Status {
	return StatusScheduled
}
