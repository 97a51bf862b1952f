package supervisor

// State of the supervised daemon process.
type State int32

const (
	NotStarted State = iota
	Starting
	Connected
	Degraded
	Terminating
	Terminated
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Starting:
		return "starting"
	case Connected:
		return "connected"
	case Degraded:
		return "degraded"
	case Terminating:
		return "terminating"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type eventKind int

const (
	readyDetected eventKind = iota
	warningLine
	errorLine
	exited
)

// event is one typed message from the reader goroutines to the state
// machine. Readers never touch state directly.
type event struct {
	kind eventKind
	line string
	code int
}
