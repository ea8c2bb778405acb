// Package caps resolves the raw-stage maximum score of every component from
// explicitly supplied values and from caps embedded in column headers.
package caps

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/marks/internal/domain/model"
)

// headerCap matches headers such as "ESE(100)" or "Viva VIVA (25)".
var headerCap = regexp.MustCompile(`([A-Z]+)\s*\((\d+)\)`)

// Explicit holds caps supplied by the caller, e.g. from form fields. A
// component that is absent, zero or not a finite number is treated as not
// supplied and falls back to the header value.
type Explicit map[model.Component]float64

// ParseHeader extracts a component cap from a single header label. It reports
// false when the header carries no cap or names an unknown component.
func ParseHeader(header string) (model.Component, float64, bool) {
	m := headerCap.FindStringSubmatch(header)
	if m == nil {
		return 0, 0, false
	}
	comp, ok := model.ParseComponent(m[1])
	if !ok {
		return 0, 0, false
	}
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	return comp, v, true
}

// FromHeaders collects header caps. The first header naming a component wins.
func FromHeaders(headers []string) map[model.Component]float64 {
	out := make(map[model.Component]float64)
	for _, h := range headers {
		comp, v, ok := ParseHeader(h)
		if !ok {
			continue
		}
		if _, seen := out[comp]; seen {
			continue
		}
		out[comp] = v
	}
	return out
}

// Resolve merges explicit and header caps into a complete CapSet.
func Resolve(headers []string, explicit Explicit) (model.CapSet, error) {
	fromHeaders := FromHeaders(headers)

	var set model.CapSet
	for _, comp := range model.Components {
		if v, ok := explicit[comp]; ok && usable(v) {
			set[comp] = v
			continue
		}
		set[comp] = fromHeaders[comp]
	}

	if missing := set.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, c := range missing {
			names[i] = c.String()
		}
		return model.CapSet{}, fmt.Errorf("%w: missing %s", ErrIncompleteCaps, strings.Join(names, ", "))
	}
	return set, nil
}

// Over returns base with the usable values of e laid on top. Unusable
// values in e never hide a base value.
func (e Explicit) Over(base Explicit) Explicit {
	out := make(Explicit, len(base)+len(e))
	for comp, v := range base {
		if usable(v) {
			out[comp] = v
		}
	}
	for comp, v := range e {
		if usable(v) {
			out[comp] = v
		}
	}
	return out
}

func usable(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
