package expand

// State is a step of the expansion state machine.
//
//	AwaitRecord -> ResolveFormat -> Emit                   -> AwaitRecord
//	                             -> DecodeArgs -> Substitute -> AwaitRecord
//
// Done and Aborted are terminal.
type State uint8

const (
	StateAwaitRecord State = iota
	StateResolveFormat
	StateEmit
	StateDecodeArgs
	StateSubstitute
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateAwaitRecord:
		return "AwaitRecord"
	case StateResolveFormat:
		return "ResolveFormat"
	case StateEmit:
		return "Emit"
	case StateDecodeArgs:
		return "DecodeArgs"
	case StateSubstitute:
		return "Substitute"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Terminal reports whether s ends the session.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}
