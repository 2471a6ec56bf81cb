package orchestrator

// State is a step of the query pipeline.
type State string

const (
	StateStart        State = "START"
	StateClassifying  State = "CLASSIFYING"
	StateClarifying   State = "CLARIFYING"
	StateFetching     State = "FETCHING"
	StateAnalyzing    State = "ANALYZING"
	StateSynthesizing State = "SYNTHESIZING"
	StateDone         State = "DONE"
)

// transitions lists the allowed successors of each state.
var transitions = map[State][]State{
	StateStart:        {StateClassifying, StateDone},
	StateClassifying:  {StateClarifying, StateFetching},
	StateClarifying:   {StateDone},
	StateFetching:     {StateAnalyzing},
	StateAnalyzing:    {StateSynthesizing},
	StateSynthesizing: {StateDone},
}

// CanTransition reports whether the pipeline may move from one state to another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
