package activation

import (
	"encoding/json"
	"fmt"

	"github.com/wskops/wskctl/internal/whisk"
)

// Outcome is the result of waiting for one activation: either the parsed
// record (right) or a description of why there is none (left).
type Outcome struct {
	ID         string
	Activation *whisk.Activation
	Raw        json.RawMessage
	Failure    string
}

func right(id string, raw json.RawMessage, a *whisk.Activation) Outcome {
	return Outcome{ID: id, Activation: a, Raw: raw}
}

func left(id, failure string) Outcome {
	return Outcome{ID: id, Failure: failure}
}

// IsRight reports whether the activation record was retrieved.
func (o Outcome) IsRight() bool {
	return o.Activation != nil
}

// Right returns the activation record, ok is false for a left outcome.
func (o Outcome) Right() (a *whisk.Activation, ok bool) {
	return o.Activation, o.Activation != nil
}

// Left returns the failure description, ok is false for a right outcome.
func (o Outcome) Left() (failure string, ok bool) {
	return o.Failure, o.Activation == nil
}

func (o Outcome) String() string {
	if o.IsRight() {
		return fmt.Sprintf("right(%s)", o.ID)
	}
	return fmt.Sprintf("left(%s)", o.Failure)
}
