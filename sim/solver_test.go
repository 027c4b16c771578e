package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validPlan() *SolverPlan {
	return &SolverPlan{Cargos: []SolverCargo{{
		CargoID: 1,
		Size:    600000,
		Assignments: []SolverAssignment{
			{TankID: 1, Volume: 300000},
			{TankID: 2, Volume: 300000},
		},
	}}}
}

func TestSolverPlan_Validate_Valid(t *testing.T) {
	assert.NoError(t, validPlan().Validate(2))
}

func TestSolverPlan_Validate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SolverPlan)
	}{
		{"no cargos", func(p *SolverPlan) { p.Cargos = nil }},
		{"non-positive size", func(p *SolverPlan) { p.Cargos[0].Size = 0 }},
		{"unknown tank", func(p *SolverPlan) { p.Cargos[0].Assignments[0].TankID = 5 }},
		{"negative assignment volume", func(p *SolverPlan) { p.Cargos[0].Assignments[0].Volume = -1 }},
		{"filled exceeds planned", func(p *SolverPlan) { p.Cargos[0].Assignments[0].Filled = 400000 }},
		{"overplanned cargo", func(p *SolverPlan) { p.Cargos[0].Assignments[1].Volume = 400000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlan()
			tt.mutate(p)

			err := p.Validate(2)
			if err == nil {
				t.Fatal("Validate: expected error, got nil")
			}
			if !errors.Is(err, ErrConfigInvalid) {
				t.Errorf("Validate: error %v does not wrap ErrConfigInvalid", err)
			}
		})
	}
}

func TestSolverPlan_Validate_ToleratesOneBarrelOverplan(t *testing.T) {
	// Planned volume may exceed the cargo size by up to one barrel (rounding)
	p := validPlan()
	p.Cargos[0].Assignments[1].Volume = 300000.5
	assert.NoError(t, p.Validate(2))
}

func TestSolverPlan_AssignmentCount(t *testing.T) {
	p := validPlan()
	assert.Equal(t, 2, p.assignmentCount(1))
	assert.Equal(t, 0, p.assignmentCount(99))
}

func TestSolverAssignment_Remaining(t *testing.T) {
	a := SolverAssignment{Volume: 300000, Filled: 120000}
	assert.InDelta(t, 180000, a.Remaining(), 1e-9)
}

func TestSolverPlan_NextTarget_WalksInOrder(t *testing.T) {
	// GIVEN a plan whose first assignment is exhausted
	p := validPlan()
	p.Cargos[0].Assignments[0].Filled = 300000

	all := func(tank int) bool { return true }
	room := func(tank int) float64 { return 600000 }

	// THEN the second assignment is the target
	target := p.nextTarget(1, 0, all, room)
	if target == nil {
		t.Fatal("nextTarget: got nil, want tank 2")
	}
	assert.Equal(t, 2, target.tank)
	assert.InDelta(t, 300000, target.remaining, 1e-9)
}

func TestSolverPlan_NextTarget_SkipsIneligibleTank(t *testing.T) {
	// GIVEN the planned tank 1 is not fillable right now
	p := validPlan()
	eligible := func(tank int) bool { return tank == 2 }
	room := func(tank int) float64 { return 600000 }

	target := p.nextTarget(1, 0, eligible, room)
	if target == nil {
		t.Fatal("nextTarget: got nil, want tank 2")
	}
	assert.Equal(t, 2, target.tank)
}

func TestSolverPlan_NextTarget_SkipsNoHeadroom(t *testing.T) {
	// GIVEN tank 1 has only the tolerance margin of headroom left
	p := validPlan()
	all := func(tank int) bool { return true }
	room := func(tank int) float64 {
		if tank == 1 {
			return 100
		}
		return 600000
	}

	target := p.nextTarget(1, 0, all, room)
	if target == nil {
		t.Fatal("nextTarget: got nil, want tank 2")
	}
	assert.Equal(t, 2, target.tank)
}

func TestSolverPlan_NextTarget_AllBlockedReturnsNil(t *testing.T) {
	p := validPlan()
	none := func(tank int) bool { return false }
	room := func(tank int) float64 { return 600000 }

	assert.Nil(t, p.nextTarget(1, 0, none, room))
	assert.Nil(t, p.nextTarget(42, 0, none, room))
}
