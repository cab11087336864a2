package model

import "testing"

func TestStateTerminal(t *testing.T) {
	cases := map[State]bool{
		StatePending:          false,
		StatePendingActuation: false,
		StateExecuting:        false,
		StatePassed:           true,
		StateFailed:           true,
		StateError:            true,
		StateNotApplicable:    true,
		StateCancelled:        true,
	}
	for state, want := range cases {
		if got := state.Terminal(); got != want {
			t.Errorf("State(%q).Terminal() = %v, want %v", state, got, want)
		}
	}
}

func TestStateValid(t *testing.T) {
	if !StatePassed.Valid() {
		t.Error("StatePassed should be valid")
	}
	if State("bogus").Valid() {
		t.Error("bogus state should not be valid")
	}
}

func TestRunGrowsSparseTree(t *testing.T) {
	r := &Run{ExecutionID: "run-1"}
	step := r.Suite(2).Case(1).Step(0)
	step.State = StatePassed

	if len(r.Suites) != 3 {
		t.Fatalf("expected 3 suites, got %d", len(r.Suites))
	}
	if len(r.Suites[2].Cases) != 2 {
		t.Fatalf("expected 2 cases in suite 2, got %d", len(r.Suites[2].Cases))
	}
	if r.Suites[2].Cases[1].Steps[0].State != StatePassed {
		t.Error("step state not persisted through sparse growth")
	}
}

func TestStepKeyString(t *testing.T) {
	k := StepKey{SuiteIndex: 1, CaseIndex: 4}
	if k.String() != "suite[1]/case[4]" {
		t.Errorf("unexpected StepKey string: %s", k.String())
	}
}
