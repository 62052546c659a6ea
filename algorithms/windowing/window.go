package windowing

import (
	"fmt"
	"math"
)

// Type names an analysis window
type Type string

const (
	Rectangular Type = "rectangular"
	Hann        Type = "hann"
	Hamming     Type = "hamming"
	Blackman    Type = "blackman"
)

// Types lists every supported window, default first.
func Types() []Type {
	return []Type{Rectangular, Hann, Hamming, Blackman}
}

// Valid reports whether t is a supported window type.
func (t Type) Valid() bool {
	switch t {
	case Rectangular, Hann, Hamming, Blackman:
		return true
	}
	return false
}

// Window holds precomputed periodic coefficients for one frame size.
// A Window is read-only after construction and safe for concurrent use.
type Window struct {
	kind         Type
	size         int
	coefficients []float64
}

// New builds a periodic window of the given type and size.
func New(kind Type, size int) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}
	if kind == "" {
		kind = Rectangular
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown window type %q", kind)
	}

	w := &Window{kind: kind, size: size}
	w.generate()
	return w, nil
}

// generate fills the coefficients. Periodic (denominator N) since the frame feeds a DFT.
func (w *Window) generate() {
	w.coefficients = make([]float64, w.size)
	n := float64(w.size)

	for i := range w.size {
		arg := 2 * math.Pi * float64(i) / n
		switch w.kind {
		case Hann:
			w.coefficients[i] = 0.5 * (1.0 - math.Cos(arg))
		case Hamming:
			w.coefficients[i] = 0.54 - 0.46*math.Cos(arg)
		case Blackman:
			w.coefficients[i] = 0.42 - 0.5*math.Cos(arg) + 0.08*math.Cos(2*arg)
		default:
			w.coefficients[i] = 1.0
		}
	}
}

// ApplyInPlace multiplies signal by the window.
// The rectangular window leaves the signal untouched.
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != w.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), w.size)
	}
	if w.kind == Rectangular {
		return nil
	}

	for i := range signal {
		signal[i] *= w.coefficients[i]
	}
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (w *Window) GetCoefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// GetType returns the window type
func (w *Window) GetType() Type {
	return w.kind
}
