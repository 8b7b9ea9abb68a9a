// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strings"
)

// Subject is one of the fixed study subjects.
type Subject int

// The four subjects, in the column order used by the optimizer.
const (
	Physics Subject = iota
	Chemistry
	Biology
	Math

	subjectCount = 4
)

var subjectNames = [subjectCount]string{"Physics", "Chemistry", "Biology", "Math"}

// Subjects returns all subjects in column order.
func Subjects() []Subject {
	return []Subject{Physics, Chemistry, Biology, Math}
}

func (s Subject) String() string {
	if s < 0 || s >= subjectCount {
		return "Unknown"
	}
	return subjectNames[s]
}

// ParseSubject resolves a subject by name, case-insensitively.
func ParseSubject(name string) (Subject, bool) {
	for i, n := range subjectNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Subject(i), true
		}
	}
	return 0, false
}

// Hours holds one value per subject, indexed by Subject.
type Hours [subjectCount]float64

// Of returns the hours for s.
func (h Hours) Of(s Subject) float64 { return h[s] }

// Total returns the sum over all subjects.
func (h Hours) Total() float64 {
	var sum float64
	for _, v := range h {
		sum += v
	}
	return sum
}

// Map returns the hours keyed by subject name.
func (h Hours) Map() map[string]float64 {
	m := make(map[string]float64, subjectCount)
	for i, v := range h {
		m[subjectNames[i]] = v
	}
	return m
}

// Request is the input of one optimization. It is a value type: build a new
// one per solve instead of mutating.
type Request struct {
	TotalTime float64 // hours available in the day
	Min       Hours   // per-subject floor
	Max       Hours   // per-subject ceiling
}

// NewRequest builds a Request from the nine raw inputs in presentation order.
func NewRequest(totalTime,
	minPhysics, minChemistry, minBiology, minMath,
	maxPhysics, maxChemistry, maxBiology, maxMath float64,
) Request {
	return Request{
		TotalTime: totalTime,
		Min:       Hours{minPhysics, minChemistry, minBiology, minMath},
		Max:       Hours{maxPhysics, maxChemistry, maxBiology, maxMath},
	}
}

// DefaultRequest returns the request shown to a user before any edit.
func DefaultRequest() Request {
	return NewRequest(10, 1, 2, 1, 2, 4, 4, 3, 4)
}

// HasNaN reports whether any field is NaN.
func (r Request) HasNaN() bool {
	if math.IsNaN(r.TotalTime) {
		return true
	}
	for i := range r.Min {
		if math.IsNaN(r.Min[i]) || math.IsNaN(r.Max[i]) {
			return true
		}
	}
	return false
}
