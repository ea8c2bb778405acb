package caps

import "github.com/okian/marks/internal/domain/model"

// Violation reasons.
const (
	ReasonNegative = "negative"
	ReasonOverCap  = "over_cap"
)

// Violation describes a raw score outside [0, cap].
type Violation struct {
	Index     int             `json:"index"`
	Component model.Component `json:"-"`
	Column    string          `json:"column"`
	Value     float64         `json:"value"`
	Cap       float64         `json:"cap"`
	Reason    string          `json:"reason"`
}

// Audit lists the cells of ds that are negative or exceed their cap. It is
// advisory only; out-of-range scores are still mapped linearly.
func Audit(ds model.Dataset, set model.CapSet) []Violation {
	var out []Violation
	for i, r := range ds {
		for _, comp := range model.Components {
			v := r[comp]
			var reason string
			switch {
			case v < 0:
				reason = ReasonNegative
			case set[comp] > 0 && v > set[comp]:
				reason = ReasonOverCap
			default:
				continue
			}
			out = append(out, Violation{
				Index:     i,
				Component: comp,
				Column:    comp.String(),
				Value:     v,
				Cap:       set[comp],
				Reason:    reason,
			})
		}
	}
	return out
}
