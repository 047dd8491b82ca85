package sentiment

import "fmt"

// Label is a sentiment class.
type Label string

const (
	Negative Label = "negative"
	Neutral  Label = "neutral"
	Positive Label = "positive"
)

// Labels lists every label in canonical order. Ties between equal decision
// scores resolve to the earliest label in this order.
var Labels = []Label{Negative, Neutral, Positive}

// ParseLabel validates s against the closed label set.
func ParseLabel(s string) (Label, error) {
	switch l := Label(s); l {
	case Negative, Neutral, Positive:
		return l, nil
	}
	return "", fmt.Errorf("unknown sentiment label %q", s)
}

func (l Label) String() string {
	return string(l)
}

// rank returns the position of l in Labels.
func (l Label) rank() int {
	for i, c := range Labels {
		if c == l {
			return i
		}
	}
	return len(Labels)
}
