package mirror

import "fmt"

type State uint8

var stateNames = []string{
	"Idle",
	"FetchingSnapshots",
	"Diffing",
	"Guarding",
	"Applying",
	"Reporting",
}

const (
	StateIdle State = iota
	StateFetchingSnapshots
	StateDiffing
	StateGuarding
	StateApplying
	StateReporting
)

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

type OpType uint8

var opTypeNames = []string{
	"Transfer",
	"Delete",
}

const (
	OpTransfer OpType = iota
	OpDelete
)

func (op OpType) String() string {
	if int(op) < len(opTypeNames) {
		return opTypeNames[op]
	}
	return "Unknown"
}

func (op OpType) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

func (op *OpType) UnmarshalText(text []byte) error {
	for i, name := range opTypeNames {
		if name == string(text) {
			*op = OpType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown op type %q", text)
}
