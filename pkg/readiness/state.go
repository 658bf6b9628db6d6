package readiness

// State is a step of the readiness workflow.
type State int

// Workflow states in the order a run passes through them.
const (
	StateOpen State = iota
	StateCollect
	StateStage
	StateTransform
	StateAssess
	StateReport
	StateClose
)

var stateNames = [...]string{
	StateOpen:      "open",
	StateCollect:   "collect",
	StateStage:     "stage",
	StateTransform: "transform",
	StateAssess:    "assess",
	StateReport:    "report",
	StateClose:     "close",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
