package race

type State int

const (
	Idle State = iota
	Creating
	CountingDown
	Starting
	Polling
	Finished
	Failed
)

var stateNames = map[State]string{
	Idle:         "idle",
	Creating:     "creating",
	CountingDown: "counting-down",
	Starting:     "starting",
	Polling:      "polling",
	Finished:     "finished",
	Failed:       "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal is true for states a run ends in.
func (s State) Terminal() bool {
	return s == Finished || s == Failed
}
