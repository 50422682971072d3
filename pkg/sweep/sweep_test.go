package sweep

import "testing"

func TestPlanSweepFullRange(t *testing.T) {
	plan := PlanSweep(-2400, 2400, 100)
	if len(plan) != 49 {
		t.Fatalf("plan length = %d, want 49", len(plan))
	}
	if plan[0] != -2400 || plan[len(plan)-1] != 2400 {
		t.Errorf("plan spans %d..%d, want -2400..2400", plan[0], plan[len(plan)-1])
	}
	for i := 1; i < len(plan); i++ {
		if plan[i] != plan[i-1]+100 {
			t.Fatalf("plan not stepping by 100 at %d: %v", i, plan)
		}
	}
}

func TestPlanSweepStrictlyAscending(t *testing.T) {
	for _, tt := range []struct {
		min, max, step int
	}{
		{-2400, 2400, 100},
		{-10, 10, 3},
		{0, 1000, 333},
	} {
		plan := PlanSweep(tt.min, tt.max, tt.step)
		for i := 1; i < len(plan); i++ {
			if plan[i] <= plan[i-1] {
				t.Fatalf("PlanSweep(%d, %d, %d) not ascending: %v", tt.min, tt.max, tt.step, plan)
			}
		}
	}
}

func TestPlanSweepCoversMax(t *testing.T) {
	// When the step does not divide the span, the final point reaches past
	// max by at most step-1 so the top of the range is still exercised.
	tests := []struct {
		min, max, step int
		last           int
	}{
		{0, 10, 4, 12},
		{-10, 10, 3, 11},
		{0, 10, 5, 10},
		{5, 5, 100, 5},
	}

	for _, tt := range tests {
		plan := PlanSweep(tt.min, tt.max, tt.step)
		if len(plan) == 0 {
			t.Fatalf("PlanSweep(%d, %d, %d) returned empty plan", tt.min, tt.max, tt.step)
		}
		last := plan[len(plan)-1]
		if last != tt.last {
			t.Errorf("PlanSweep(%d, %d, %d) ends at %d, want %d", tt.min, tt.max, tt.step, last, tt.last)
		}
		if last < tt.max || last > tt.max+tt.step-1 {
			t.Errorf("PlanSweep(%d, %d, %d) final point %d outside [max, max+step-1]", tt.min, tt.max, tt.step, last)
		}
	}
}

func TestPlanSweepDegenerate(t *testing.T) {
	if plan := PlanSweep(10, 0, 5); plan != nil {
		t.Errorf("PlanSweep(10, 0, 5) = %v, want nil", plan)
	}
	if plan := PlanSweep(0, 10, 0); plan != nil {
		t.Errorf("PlanSweep(0, 10, 0) = %v, want nil", plan)
	}
}
