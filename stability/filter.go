// Package stability gates per-frame work on how far a set of landmarks moved
// since the previous frame.
package stability

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrInvalidConfig = errors.New("invalid stability filter configuration")
	ErrInputMismatch = errors.New("landmark frame does not match baseline")
)

// Point is one landmark position, 2 or 3 coordinates.
type Point []float64

// Frame is the ordered set of landmarks detected in one video frame.
// Index i always refers to the same landmark.
type Frame []Point

// Filter remembers the last frame it was given and reports the mean
// displacement of each new frame against it.
type Filter struct {
	threshold float64
	dims      int

	mutex sync.Mutex
	prior Frame
}

// Configure returns a filter with no baseline.
func Configure(threshold float64, dimensionality int) (*Filter, error) {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold must be positive, got %v", ErrInvalidConfig, threshold)
	}
	if dimensionality != 2 && dimensionality != 3 {
		return nil, fmt.Errorf("%w: dimensionality must be 2 or 3, got %d", ErrInvalidConfig, dimensionality)
	}
	return &Filter{threshold: threshold, dims: dimensionality}, nil
}

func (f *Filter) Threshold() float64 {
	return f.threshold
}

func (f *Filter) Dimensionality() int {
	return f.dims
}

// Evaluate compares frame against the stored baseline and then makes frame
// the new baseline. A rejected frame leaves the baseline untouched.
func (f *Filter) Evaluate(frame Frame) (Outcome, error) {
	if err := f.validate(frame); err != nil {
		return Outcome{}, err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.prior == nil {
		f.prior = frame.clone()
		return Outcome{Kind: NoBaseline}, nil
	}
	if len(frame) != len(f.prior) {
		return Outcome{}, fmt.Errorf("%w: got %d landmarks, baseline has %d", ErrInputMismatch, len(frame), len(f.prior))
	}

	mean := meanDisplacement(f.prior, frame)
	f.prior = frame.clone()

	if mean >= f.threshold {
		return Outcome{Kind: Moved, MeanDistance: mean}, nil
	}
	return Outcome{Kind: Stable, MeanDistance: mean}, nil
}

// Reset drops the baseline; the next Evaluate reports NoBaseline.
func (f *Filter) Reset() {
	f.mutex.Lock()
	f.prior = nil
	f.mutex.Unlock()
}

// Baseline returns a copy of the stored frame, or nil before the first Evaluate.
func (f *Filter) Baseline() Frame {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.prior == nil {
		return nil
	}
	return f.prior.clone()
}

func (f *Filter) validate(frame Frame) error {
	if len(frame) == 0 {
		return fmt.Errorf("%w: empty frame", ErrInputMismatch)
	}
	for i, p := range frame {
		if len(p) != f.dims {
			return fmt.Errorf("%w: landmark %d has %d coordinates, want %d", ErrInputMismatch, i, len(p), f.dims)
		}
	}
	return nil
}

// meanDisplacement expects frames of equal length and point size.
func meanDisplacement(a, b Frame) float64 {
	distances := make([]float64, len(a))
	for i := range a {
		distances[i] = floats.Distance(a[i], b[i], 2)
	}
	return stat.Mean(distances, nil)
}

func (fr Frame) clone() Frame {
	out := make(Frame, len(fr))
	for i, p := range fr {
		out[i] = append(Point(nil), p...)
	}
	return out
}
