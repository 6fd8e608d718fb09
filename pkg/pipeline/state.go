package pipeline

// State is the lifecycle state of a pipeline.
type State int

const (
	NotConnected State = iota
	Acquiring
	Stopped
)

func (s State) String() string {
	switch s {
	case NotConnected:
		return "not connected"
	case Acquiring:
		return "acquiring"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
