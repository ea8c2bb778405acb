// Package model contains domain models passed between layers.
package model

import "math"

// Component identifies one assessment column. The order of the constants is
// the canonical column order used for display and export.
type Component int

// Assessment components.
const (
	ESE  Component = iota // end semester exam
	IA                    // internal assessment
	CSE                   // continuous semester evaluation
	TW                    // term work
	VIVA                  // oral examination
)

// NumComponents is the number of assessment components.
const NumComponents = 5

// Components lists every component in canonical order.
var Components = [NumComponents]Component{ESE, IA, CSE, TW, VIVA}

var componentNames = [NumComponents]string{"ESE", "IA", "CSE", "TW", "VIVA"}

// String returns the column name of the component.
func (c Component) String() string {
	if c < 0 || int(c) >= NumComponents {
		return "UNKNOWN"
	}
	return componentNames[c]
}

// ParseComponent resolves an uppercase column name to a Component.
func ParseComponent(name string) (Component, bool) {
	for i, n := range componentNames {
		if n == name {
			return Component(i), true
		}
	}
	return 0, false
}

// Record holds one student's scores indexed by Component. A component that
// was absent from the input is simply zero.
type Record [NumComponents]float64

// Get returns the score for c.
func (r Record) Get(c Component) float64 { return r[c] }

// Total returns the sum of all components rounded to two decimals.
func (r Record) Total() float64 {
	var sum float64
	for _, v := range r {
		sum += v
	}
	return Round2(sum)
}

// Dataset is an ordered sequence of records. Position is the identity of a
// student throughout the pipeline.
type Dataset []Record

// Clone returns a copy that shares no memory with ds.
func (ds Dataset) Clone() Dataset {
	if ds == nil {
		return nil
	}
	out := make(Dataset, len(ds))
	copy(out, ds)
	return out
}

// CapSet holds the maximum possible score per component for one stage.
type CapSet [NumComponents]float64

// Missing returns the components whose cap is not a positive finite number.
func (c CapSet) Missing() []Component {
	var missing []Component
	for _, comp := range Components {
		v := c[comp]
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			missing = append(missing, comp)
		}
	}
	return missing
}

// FirstStageTargets are the maxima raw scores are rescaled to first.
var FirstStageTargets = CapSet{ESE: 50, IA: 30, CSE: 20, TW: 25, VIVA: 25}

// FinalStageTargets are the maxima first-stage scores are rescaled to.
var FinalStageTargets = CapSet{ESE: 50, IA: 20, CSE: 10, TW: 10, VIVA: 10}

// Round2 rounds x to two decimals, halves rounding up.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
