package editor

// State is a phase of the editor lifecycle.
type State int

const (
	Resetting State = iota
	Idle
	Dragging
	AwaitingAddConfirmation
	AwaitingConnectConfirmation
	Simulating
	Reloading
)

var stateNames = [...]string{
	Resetting:                   "resetting",
	Idle:                        "idle",
	Dragging:                    "dragging",
	AwaitingAddConfirmation:     "awaiting-add",
	AwaitingConnectConfirmation: "awaiting-connect",
	Simulating:                  "simulating",
	Reloading:                   "reloading",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// ticket identifies one remote request. Its effects apply only while the
// canvas is still in the epoch the request was issued in.
type ticket struct {
	seq   uint64
	epoch uint64
	state State
}
