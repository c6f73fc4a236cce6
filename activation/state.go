package activation

// State is where the sensor sits in its activation cycle. It is derived each frame
// tick from whether the sensor reports itself active and whether any output has demand.
type State int32

const (
	// Idle is an inactive sensor with no demand.
	Idle State = iota
	// PendingActivation is an inactive sensor with demand. Activation has been
	// requested and takes effect from the next frame; this frame is not converted.
	PendingActivation
	// Active is an active sensor with demand. Frames are converted.
	Active
	// PendingDeactivation is an active sensor whose demand has dropped to zero.
	// Deactivation has been requested; this frame is not converted.
	PendingDeactivation
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingActivation:
		return "pending_activation"
	case Active:
		return "active"
	case PendingDeactivation:
		return "pending_deactivation"
	default:
		return "unknown"
	}
}

// Next returns the state a frame tick lands in.
func Next(sensorActive, demand bool) State {
	switch {
	case sensorActive && demand:
		return Active
	case sensorActive:
		return PendingDeactivation
	case demand:
		return PendingActivation
	default:
		return Idle
	}
}

// Converts reports whether frames arriving in s are converted into outputs.
func (s State) Converts() bool {
	return s == Active
}
