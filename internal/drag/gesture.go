package drag

// EventKind is the phase of a gesture event.
type EventKind int

const (
	EventStart EventKind = iota
	EventMove
	EventEnd
	EventCancel
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventMove:
		return "move"
	case EventEnd:
		return "end"
	case EventCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Event is an input-library independent gesture event. X and Y are track
// coordinates; DX and DY are the travel since the start event.
type Event struct {
	Kind    EventKind
	Pointer string
	X, Y    float64
	DX, DY  float64
	Target  Target // read on EventStart
	Over    bool   // read on EventEnd
}

// Result is what Handle reports for one event.
type Result struct {
	Ghost   *Ghost
	Outcome *Outcome
}

// Handle feeds one gesture event to the controller.
func (c *Controller) Handle(ev Event) (Result, error) {
	switch ev.Kind {
	case EventStart:
		return Result{}, c.Press(ev.Pointer, ev.X, ev.Y, ev.Target)
	case EventMove:
		g, err := c.Move(ev.Pointer, ev.X, ev.Y)
		return Result{Ghost: g}, err
	case EventEnd:
		out, err := c.Release(ev.Pointer, ev.Over)
		return Result{Outcome: &out}, err
	case EventCancel:
		if err := c.Cancel(ev.Pointer); err != nil {
			return Result{}, err
		}
		return Result{Outcome: &Outcome{State: Cancelled}}, nil
	}
	return Result{}, nil
}
