package signup

// State is a step of the submit flow.
type State int32

const (
	Idle State = iota
	Validating
	Invalid
	Submitting
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Invalid:
		return "invalid"
	case Submitting:
		return "submitting"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}
