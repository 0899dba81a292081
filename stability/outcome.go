package stability

import "fmt"

type OutcomeKind uint8

const (
	// NoBaseline is reported for the first frame after construction or Reset.
	NoBaseline OutcomeKind = iota
	Stable
	Moved
)

var outcomeNames = map[OutcomeKind]string{
	NoBaseline: "no_baseline",
	Stable:     "stable",
	Moved:      "moved",
}

func (k OutcomeKind) String() string {
	if name, ok := outcomeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OutcomeKind(%d)", uint8(k))
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	if _, ok := outcomeNames[k]; !ok {
		return nil, fmt.Errorf("unknown outcome kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *OutcomeKind) UnmarshalText(text []byte) error {
	for kind, name := range outcomeNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown outcome kind %q", string(text))
}

// Outcome is the result of one Evaluate call. MeanDistance is zero for NoBaseline.
type Outcome struct {
	Kind         OutcomeKind `json:"kind"`
	MeanDistance float64     `json:"mean_distance"`
}

// Moved reports whether the landmarks moved at least the configured threshold.
func (o Outcome) Moved() bool {
	return o.Kind == Moved
}
