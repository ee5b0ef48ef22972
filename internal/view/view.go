// Package view models the client navigation as a state machine: a tagged
// View, the signed-in user, and an immutable context for the views that
// need one. Transition is pure; the same state and event always give the
// same result.
package view

import (
	"errors"
	"fmt"
	"strings"

	"lidercheck/internal/checklist"
	"lidercheck/internal/permission"
)

// View is the screen the client shows.
type View string

const (
	Setup          View = "SETUP"
	Login          View = "LOGIN"
	Register       View = "REGISTER"
	Menu           View = "MENU"
	ChecklistMenu  View = "CHECKLIST_MENU"
	MaintenanceQR  View = "MAINTENANCE_QR"
	Checklist      View = "CHECKLIST"
	Success        View = "SUCCESS"
	AuditMenu      View = "AUDIT_MENU"
	Dashboard      View = "DASHBOARD"
	Admin          View = "ADMIN"
	MeetingMenu    View = "MEETING_MENU"
	MeetingForm    View = "MEETING_FORM"
	MeetingHistory View = "MEETING_HISTORY"
	Personal       View = "PERSONAL"
	Profile        View = "PROFILE"
)

var (
	// ErrInvalidTransition reports an event the current view does not accept.
	ErrInvalidTransition = errors.New("view: invalid transition")
	// ErrForbidden reports a navigation the user's role may not make.
	ErrForbidden = errors.New("view: forbidden")
)

// ChecklistContext belongs to the Checklist and Success views.
type ChecklistContext struct {
	LogID       string
	Line        string
	Maintenance bool
}

// AuditContext belongs to the Dashboard view.
type AuditContext struct {
	Week  string
	Shift string
}

// State is one immutable snapshot of the client.
type State struct {
	View      View
	User      checklist.User
	SignedIn  bool
	Checklist ChecklistContext
	Audit     AuditContext
	// Notice is the message shown on the current view, e.g. a connection error.
	Notice string
}

// Initial is the state before the storage connection is confirmed.
func Initial() State {
	return State{View: Setup}
}

// Event drives a transition.
type Event interface {
	event()
}

type (
	// Connected confirms the storage collaborator answers.
	Connected struct{}
	// ConnectionLost sends the user back to the setup step.
	ConnectionLost struct{ Reason string }
	// SignedInAs carries the authenticated user.
	SignedInAs struct{ User checklist.User }
	// ShowRegister opens the registration form.
	ShowRegister struct{}
	// Registered returns to login after a successful registration.
	Registered struct{}
	// SignedOut clears the session.
	SignedOut struct{}
	// Open navigates to a view reachable from the current one.
	Open struct{ To View }
	// StartChecklist opens a production checklist for a line.
	StartChecklist struct {
		Line  string
		LogID string
	}
	// ScanTarget opens a maintenance checklist for a scanned machine.
	ScanTarget struct {
		Target string
		LogID  string
	}
	// Submitted reports a saved checklist.
	Submitted struct{}
	// MeetingSaved reports a stored meeting.
	MeetingSaved struct{}
	// SelectWeek changes the dashboard filter.
	SelectWeek struct {
		Week  string
		Shift string
	}
	// Back returns to the parent view.
	Back struct{}
)

func (Connected) event()      {}
func (ConnectionLost) event() {}
func (SignedInAs) event()     {}
func (ShowRegister) event()   {}
func (Registered) event()     {}
func (SignedOut) event()      {}
func (Open) event()           {}
func (StartChecklist) event() {}
func (ScanTarget) event()     {}
func (Submitted) event()      {}
func (MeetingSaved) event()   {}
func (SelectWeek) event()     {}
func (Back) event()           {}

// Machine evaluates transitions against a permission gate.
type Machine struct {
	Gate *permission.Gate
}

// gated maps views to the module that guards them.
var gated = map[View]permission.Module{
	ChecklistMenu: permission.Checklist,
	MaintenanceQR: permission.Maintenance,
	MeetingMenu:   permission.Meeting,
	AuditMenu:     permission.Audit,
	Admin:         permission.Admin,
}

// children lists the views reachable through Open from each view.
var children = map[View][]View{
	Menu:        {ChecklistMenu, MaintenanceQR, MeetingMenu, AuditMenu, Admin, Personal, Profile},
	MeetingMenu: {MeetingForm, MeetingHistory},
	AuditMenu:   {Dashboard},
}

var parents = map[View]View{
	Register:       Login,
	ChecklistMenu:  Menu,
	MaintenanceQR:  Menu,
	MeetingMenu:    Menu,
	AuditMenu:      Menu,
	Admin:          Menu,
	Personal:       Menu,
	Profile:        Menu,
	Success:        Menu,
	MeetingForm:    MeetingMenu,
	MeetingHistory: MeetingMenu,
	Dashboard:      AuditMenu,
}

// Transition returns the state after e. s is never modified.
func (m Machine) Transition(s State, e Event) (State, error) {
	next := s
	next.Notice = ""

	switch ev := e.(type) {
	case ConnectionLost:
		next.View = Setup
		next.Notice = ev.Reason
		return next, nil

	case Connected:
		if s.View != Setup {
			return s, invalid(s, e)
		}
		next.View = Login
		if s.SignedIn {
			next.View = Menu
		}
		return next, nil

	case SignedInAs:
		if s.View != Login {
			return s, invalid(s, e)
		}
		return State{View: Menu, User: ev.User, SignedIn: true}, nil

	case ShowRegister:
		if s.View != Login {
			return s, invalid(s, e)
		}
		next.View = Register
		return next, nil

	case Registered:
		if s.View != Register {
			return s, invalid(s, e)
		}
		next.View = Login
		return next, nil

	case SignedOut:
		if !s.SignedIn {
			return s, invalid(s, e)
		}
		return State{View: Login}, nil

	case Open:
		return m.open(s, next, ev.To)

	case StartChecklist:
		if s.View != ChecklistMenu || strings.TrimSpace(ev.Line) == "" {
			return s, invalid(s, e)
		}
		next.View = Checklist
		next.Checklist = ChecklistContext{LogID: ev.LogID, Line: ev.Line}
		return next, nil

	case ScanTarget:
		if s.View != MaintenanceQR || strings.TrimSpace(ev.Target) == "" {
			return s, invalid(s, e)
		}
		next.View = Checklist
		next.Checklist = ChecklistContext{LogID: ev.LogID, Line: ev.Target, Maintenance: true}
		return next, nil

	case Submitted:
		if s.View != Checklist {
			return s, invalid(s, e)
		}
		next.View = Success
		return next, nil

	case MeetingSaved:
		if s.View != MeetingForm {
			return s, invalid(s, e)
		}
		next.View = MeetingHistory
		return next, nil

	case SelectWeek:
		if s.View != Dashboard {
			return s, invalid(s, e)
		}
		next.Audit = AuditContext{Week: ev.Week, Shift: ev.Shift}
		return next, nil

	case Back:
		return m.back(s, next)
	}
	return s, invalid(s, e)
}

func (m Machine) open(s, next State, to View) (State, error) {
	if !s.SignedIn {
		return s, invalid(s, Open{To: to})
	}
	reachable := false
	for _, v := range children[s.View] {
		if v == to {
			reachable = true
			break
		}
	}
	if !reachable {
		return s, invalid(s, Open{To: to})
	}
	if mod, ok := gated[to]; ok && (m.Gate == nil || !m.Gate.Allowed(s.User, mod)) {
		return s, fmt.Errorf("%w: %s requires %s", ErrForbidden, to, mod)
	}
	next.View = to
	if to == Dashboard {
		next.Audit = AuditContext{Shift: checklist.ShiftAll}
	}
	return next, nil
}

func (m Machine) back(s, next State) (State, error) {
	if s.View == Checklist {
		next.View = ChecklistMenu
		if s.Checklist.Maintenance {
			next.View = MaintenanceQR
		}
		next.Checklist = ChecklistContext{}
		return next, nil
	}
	parent, ok := parents[s.View]
	if !ok {
		return s, invalid(s, Back{})
	}
	next.View = parent
	if s.View == Success {
		next.Checklist = ChecklistContext{}
	}
	if s.View == Dashboard {
		next.Audit = AuditContext{}
	}
	return next, nil
}

func invalid(s State, e Event) error {
	return fmt.Errorf("%w: %T in %s", ErrInvalidTransition, e, s.View)
}

// Menu lists the entries of the main menu that u may open, in display order.
func (m Machine) Menu(u checklist.User) []View {
	out := make([]View, 0, len(children[Menu]))
	for _, v := range children[Menu] {
		if mod, ok := gated[v]; ok && (m.Gate == nil || !m.Gate.Allowed(u, mod)) {
			continue
		}
		out = append(out, v)
	}
	return out
}
