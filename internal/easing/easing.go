package easing

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Func maps normalized time t in [0,1] to motion progress in [0,1].
// Every function produced by Resolve satisfies f(0)=0, f(1)=1 and is
// monotonically non-decreasing.
type Func func(t float64) float64

const (
	DefaultKind = "easeInOutSine"

	// DefaultPower is the exponent used by the easeInPow/easeOutPow/easeInOutPow kinds.
	DefaultPower = 2.0

	// DefaultEdge is the fraction of the timeline that linearWithInOutEase
	// spends in its sine-eased ends.
	DefaultEdge = 0.1
)

// fixed keeps the parameterless easing functions. Parameterized kinds
// (easeInPow family, linearWithInOutEase) are built in Resolve.
var fixed = map[string]Func{
	"linear":         func(t float64) float64 { return t },
	"smoothstep":     func(t float64) float64 { return t * t * (3 - 2*t) },
	"easeInSine":     func(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) },
	"easeOutSine":    func(t float64) float64 { return math.Sin(t * math.Pi / 2) },
	"easeInOutSine":  func(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 },
	"easeInQuad":     func(t float64) float64 { return t * t },
	"easeOutQuad":    func(t float64) float64 { return 1 - (1-t)*(1-t) },
	"easeInOutQuad":  easeInOutPow(2),
	"easeInCubic":    func(t float64) float64 { return t * t * t },
	"easeOutCubic":   func(t float64) float64 { return 1 - math.Pow(1-t, 3) },
	"easeInOutCubic": easeInOutPow(3),
}

// Names returns all supported easing kinds, sorted, for error messages and -help.
func Names() []string {
	names := make([]string, 0, len(fixed)+4)
	for name := range fixed {
		names = append(names, name)
	}
	names = append(names, "linearWithInOutEase", "easeInPow", "easeOutPow", "easeInOutPow")
	sort.Strings(names)
	return names
}

// Resolve turns an easing kind name into a concrete function. Power applies to
// the easeInPow family, edge to linearWithInOutEase. An unknown kind is a
// configuration error; it is reported here, before any rendering starts.
func Resolve(kind string, power, edge float64) (Func, error) {
	if f, ok := fixed[kind]; ok {
		return f, nil
	}

	switch kind {
	case "easeInPow", "easeOutPow", "easeInOutPow":
		if power <= 0 {
			return nil, fmt.Errorf("easing power must be > 0, got %g", power)
		}
		switch kind {
		case "easeInPow":
			return func(t float64) float64 { return math.Pow(t, power) }, nil
		case "easeOutPow":
			return func(t float64) float64 { return 1 - math.Pow(1-t, power) }, nil
		default:
			return easeInOutPow(power), nil
		}
	case "linearWithInOutEase":
		if edge <= 0 || edge > 0.5 {
			return nil, fmt.Errorf("easing edge must be in (0, 0.5], got %g", edge)
		}
		return linearWithInOutEase(edge), nil
	}

	return nil, fmt.Errorf("unsupported easing function: %q (supported: %s)",
		kind, strings.Join(Names(), ", "))
}

func easeInOutPow(power float64) Func {
	return func(t float64) float64 {
		if t < 0.5 {
			return math.Pow(2, power-1) * math.Pow(t, power)
		}
		return 1 - math.Pow(-2*t+2, power)/2
	}
}

// linearWithInOutEase is linear in the middle with a sine ease over the first
// and last edge fraction of the timeline. The amplitude a and the middle slope
// m are chosen so that both the value and the velocity are continuous at the
// splice points; edge=0.5 degenerates to easeInOutSine.
func linearWithInOutEase(edge float64) Func {
	a := 2 * edge / (4*edge + math.Pi*(1-2*edge))
	m := math.Pi * a / (2 * edge)
	return func(t float64) float64 {
		switch {
		case t < edge:
			return a * (1 - math.Cos(math.Pi*t/(2*edge)))
		case t > 1-edge:
			return 1 - a*(1-math.Cos(math.Pi*(1-t)/(2*edge)))
		default:
			return a + m*(t-edge)
		}
	}
}
