package easing

import (
	"math"
	"testing"
)

const samples = 1000

func TestAllKindsAreValidEasings(t *testing.T) {
	for _, kind := range Names() {
		t.Run(kind, func(t *testing.T) {
			f, err := Resolve(kind, DefaultPower, DefaultEdge)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", kind, err)
			}

			if got := f(0); math.Abs(got) > 1e-9 {
				t.Errorf("f(0) = %g, want 0", got)
			}
			if got := f(1); math.Abs(got-1) > 1e-9 {
				t.Errorf("f(1) = %g, want 1", got)
			}

			prev := f(0)
			for i := 1; i <= samples; i++ {
				tt := float64(i) / samples
				p := f(tt)
				if p < prev-1e-12 {
					t.Fatalf("not monotonic at t=%g: f(t)=%g < %g", tt, p, prev)
				}
				if p < -1e-9 || p > 1+1e-9 {
					t.Fatalf("f(%g) = %g out of [0,1]", tt, p)
				}
				prev = p
			}
		})
	}
}

func TestInOutKindsAreCenteredAtHalf(t *testing.T) {
	kinds := []string{"easeInOutSine", "easeInOutQuad", "easeInOutCubic", "easeInOutPow", "smoothstep", "linearWithInOutEase"}
	for _, kind := range kinds {
		f, err := Resolve(kind, 3.0, 0.2)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", kind, err)
		}
		if got := f(0.5); math.Abs(got-0.5) > 1e-9 {
			t.Errorf("%s(0.5) = %g, want 0.5", kind, got)
		}
	}
}

func TestLinearWithInOutEaseIsContinuousAtSplices(t *testing.T) {
	const edge = 0.15
	f, err := Resolve("linearWithInOutEase", DefaultPower, edge)
	if err != nil {
		t.Fatal(err)
	}

	// Value and slope must not jump where the sine ends meet the linear middle.
	const h = 1e-6
	for _, splice := range []float64{edge, 1 - edge} {
		before := (f(splice) - f(splice-h)) / h
		after := (f(splice+h) - f(splice)) / h
		if math.Abs(before-after) > 1e-3 {
			t.Errorf("velocity jump at t=%g: %g vs %g", splice, before, after)
		}
		if math.Abs(f(splice+h)-f(splice-h)) > 1e-3 {
			t.Errorf("value jump at t=%g", splice)
		}
	}
}

func TestLinearWithHalfEdgeMatchesSine(t *testing.T) {
	lin, err := Resolve("linearWithInOutEase", DefaultPower, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	sine, err := Resolve("easeInOutSine", DefaultPower, DefaultEdge)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i <= samples; i++ {
		tt := float64(i) / samples
		if math.Abs(lin(tt)-sine(tt)) > 1e-9 {
			t.Fatalf("edge=0.5 should degenerate to easeInOutSine, differs at t=%g", tt)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		kind  string
		power float64
		edge  float64
	}{
		{"unknown kind", "easeInOutBounce", DefaultPower, DefaultEdge},
		{"zero power", "easeInPow", 0, DefaultEdge},
		{"negative power", "easeInOutPow", -1.5, DefaultEdge},
		{"zero edge", "linearWithInOutEase", DefaultPower, 0},
		{"edge too large", "linearWithInOutEase", DefaultPower, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resolve(tt.kind, tt.power, tt.edge); err == nil {
				t.Errorf("Resolve(%q, %g, %g): expected error", tt.kind, tt.power, tt.edge)
			}
		})
	}
}
