package core

// State is a stage of the linear per-catchment pipeline of spec.md §4.6:
//
//	Empty -> Loaded -> Conditioned -> Routed -> Accumulated -> Streams -> Exported
//
// Re-loading a catchment returns it to Empty and releases all derived
// buffers. Each operation checks the minimum required state and fails with
// an InvalidState error otherwise.
type State string

const (
	StateEmpty       State = "Empty"
	StateLoaded      State = "Loaded"
	StateConditioned State = "Conditioned"
	StateRouted      State = "Routed"
	StateAccumulated State = "Accumulated"
	StateStreams     State = "Streams"
	StateExported    State = "Exported"
)

// order ranks states for the "at least" checks operations need, e.g.
// stream extraction requires >= StateAccumulated.
var order = map[State]int{
	StateEmpty:       0,
	StateLoaded:      1,
	StateConditioned: 2,
	StateRouted:      3,
	StateAccumulated: 4,
	StateStreams:     5,
	StateExported:    6,
}

// AtLeast reports whether s has progressed at least as far as min.
func (s State) AtLeast(min State) bool { return order[s] >= order[min] }
