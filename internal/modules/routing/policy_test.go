package routing

import "testing"

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.StayThreshold != 0.47 || p.NewClusterThreshold != 0.20 || p.RouteThreshold != 0.42 {
		t.Errorf("unexpected default thresholds: %+v", p)
	}
	if p.MaxBranches != 10 {
		t.Errorf("MaxBranches = %d, want 10", p.MaxBranches)
	}
	if p.PipelineTimeout.Seconds() != 10 {
		t.Errorf("PipelineTimeout = %v, want 10s", p.PipelineTimeout)
	}
}

func TestPolicyWithOverrides(t *testing.T) {
	p := DefaultPolicy()

	if got := p.WithOverrides(nil); got != p {
		t.Error("nil overrides must be a no-op")
	}

	stay := 0.9
	route := 0.1
	got := p.WithOverrides(&ThresholdOverrides{StayThreshold: &stay, RouteThreshold: &route})
	if got.StayThreshold != 0.9 {
		t.Errorf("StayThreshold = %v, want 0.9", got.StayThreshold)
	}
	if got.RouteThreshold != 0.1 {
		t.Errorf("RouteThreshold = %v, want 0.1", got.RouteThreshold)
	}
	if got.NewClusterThreshold != p.NewClusterThreshold {
		t.Error("NewClusterThreshold must keep its default when not overridden")
	}
	if p.StayThreshold != 0.47 {
		t.Error("WithOverrides must not mutate the receiver")
	}
}

func TestPolicyFromEnvDefaults(t *testing.T) {
	p := PolicyFromEnv()
	if p.StayThreshold != DefaultStayThreshold {
		t.Errorf("StayThreshold = %v, want %v", p.StayThreshold, DefaultStayThreshold)
	}
	if p.PipelineTimeout != DefaultPipelineTimeout {
		t.Errorf("PipelineTimeout = %v, want %v", p.PipelineTimeout, DefaultPipelineTimeout)
	}
}
