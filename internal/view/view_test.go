package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lidercheck/internal/checklist"
	"lidercheck/internal/permission"
)

var (
	leader   = checklist.User{Matricula: "10", Name: "Ana Souza", Role: "Líder de produção", Shift: "1"}
	auditor  = checklist.User{Matricula: "30", Name: "Carla", Role: "Auditor"}
	sysadmin = checklist.User{Matricula: "admin", Role: "TI"}
)

func newMachine() Machine {
	return Machine{Gate: permission.NewGate(
		permission.SuperAdmin{Matricula: "admin", Roles: []string{"TI"}},
		[]permission.Rule{{Role: "Auditor", Module: permission.Audit, Allowed: true}},
	)}
}

func run(t *testing.T, m Machine, s State, events ...Event) State {
	t.Helper()
	for _, e := range events {
		var err error
		s, err = m.Transition(s, e)
		require.NoError(t, err, "%T", e)
	}
	return s
}

func TestChecklistFlow(t *testing.T) {
	m := newMachine()
	s := run(t, m, Initial(),
		Connected{},
		SignedInAs{User: leader},
		Open{To: ChecklistMenu},
		StartChecklist{Line: "L1", LogID: "1704200000000"},
	)
	assert.Equal(t, Checklist, s.View)
	assert.Equal(t, ChecklistContext{LogID: "1704200000000", Line: "L1"}, s.Checklist)

	done := run(t, m, s, Submitted{})
	assert.Equal(t, Success, done.View)
	assert.Equal(t, "L1", done.Checklist.Line)

	menu := run(t, m, done, Back{})
	assert.Equal(t, Menu, menu.View)
	assert.Empty(t, menu.Checklist)

	// The earlier snapshot is untouched.
	assert.Equal(t, Checklist, s.View)
}

func TestMaintenanceFlowReturnsToScanner(t *testing.T) {
	m := newMachine()
	s := run(t, m, Initial(),
		Connected{},
		SignedInAs{User: leader},
		Open{To: MaintenanceQR},
		ScanTarget{Target: "MX-01", LogID: "1"},
	)
	assert.True(t, s.Checklist.Maintenance)
	assert.Equal(t, "MX-01", s.Checklist.Line)

	back := run(t, m, s, Back{})
	assert.Equal(t, MaintenanceQR, back.View)
}

func TestPermissionGatedNavigation(t *testing.T) {
	m := newMachine()
	s := run(t, m, Initial(), Connected{}, SignedInAs{User: leader})

	_, err := m.Transition(s, Open{To: AuditMenu})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = m.Transition(s, Open{To: Admin})
	assert.ErrorIs(t, err, ErrForbidden)

	a := run(t, m, Initial(), Connected{}, SignedInAs{User: auditor}, Open{To: AuditMenu}, Open{To: Dashboard})
	assert.Equal(t, Dashboard, a.View)
	assert.Equal(t, checklist.ShiftAll, a.Audit.Shift)

	a = run(t, m, a, SelectWeek{Week: "2024-W01", Shift: "2"})
	assert.Equal(t, AuditContext{Week: "2024-W01", Shift: "2"}, a.Audit)

	root := run(t, m, Initial(), Connected{}, SignedInAs{User: sysadmin}, Open{To: Admin})
	assert.Equal(t, Admin, root.View)
}

func TestInvalidTransitions(t *testing.T) {
	m := newMachine()

	_, err := m.Transition(Initial(), SignedInAs{User: leader})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s := run(t, m, Initial(), Connected{})
	_, err = m.Transition(s, Open{To: Menu})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s = run(t, m, s, SignedInAs{User: leader})
	_, err = m.Transition(s, Open{To: Dashboard})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s = run(t, m, s, Open{To: ChecklistMenu})
	_, err = m.Transition(s, StartChecklist{Line: " "})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.Transition(Initial(), Back{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConnectionLostAndSignOut(t *testing.T) {
	m := newMachine()
	s := run(t, m, Initial(), Connected{}, SignedInAs{User: leader}, Open{To: Profile})

	lost := run(t, m, s, ConnectionLost{Reason: "storage unavailable"})
	assert.Equal(t, Setup, lost.View)
	assert.Equal(t, "storage unavailable", lost.Notice)

	back := run(t, m, lost, Connected{})
	assert.Equal(t, Menu, back.View)
	assert.Empty(t, back.Notice)

	out := run(t, m, back, SignedOut{})
	assert.Equal(t, State{View: Login}, out)
}

func TestRegisterFlow(t *testing.T) {
	m := newMachine()
	s := run(t, m, Initial(), Connected{}, ShowRegister{})
	assert.Equal(t, Register, s.View)

	assert.Equal(t, Login, run(t, m, s, Registered{}).View)
	assert.Equal(t, Login, run(t, m, s, Back{}).View)
}

func TestMeetingFlow(t *testing.T) {
	m := newMachine()
	s := run(t, m, Initial(), Connected{}, SignedInAs{User: leader}, Open{To: MeetingMenu}, Open{To: MeetingForm}, MeetingSaved{})
	assert.Equal(t, MeetingHistory, s.View)
	assert.Equal(t, MeetingMenu, run(t, m, s, Back{}).View)
}

func TestMenuHidesGatedEntries(t *testing.T) {
	m := newMachine()

	assert.Equal(t, []View{ChecklistMenu, MaintenanceQR, MeetingMenu, Personal, Profile}, m.Menu(leader))
	assert.Equal(t, []View{ChecklistMenu, MaintenanceQR, MeetingMenu, AuditMenu, Personal, Profile}, m.Menu(auditor))
	assert.Len(t, m.Menu(sysadmin), 7)
	assert.Equal(t, []View{Personal, Profile}, Machine{}.Menu(leader))
}
