package soft

import (
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
)

// CommandKind classifies a recorded device operation.
type CommandKind int

const (
	CommandCreateBuffer CommandKind = iota
	CommandDeleteBuffer
	CommandReserveBuffer
	CommandWriteBuffer
	CommandClearBuffer
	CommandInvalidateBuffer
	CommandDispatch
	CommandDispatchIndirect
	CommandDrawIndirect
	CommandDrawInstanced
	CommandState
)

var commandKindNames = [...]string{
	CommandCreateBuffer:     "create_buffer",
	CommandDeleteBuffer:     "delete_buffer",
	CommandReserveBuffer:    "reserve_buffer",
	CommandWriteBuffer:      "write_buffer",
	CommandClearBuffer:      "clear_buffer",
	CommandInvalidateBuffer: "invalidate_buffer",
	CommandDispatch:         "dispatch",
	CommandDispatchIndirect: "dispatch_indirect",
	CommandDrawIndirect:     "draw_indirect",
	CommandDrawInstanced:    "draw_instanced",
	CommandState:            "state",
}

// String implements fmt.Stringer.
func (k CommandKind) String() string {
	if int(k) < len(commandKindNames) {
		return commandKindNames[k]
	}
	return "unknown"
}

// Command is one entry of the device command log.
// Label holds the buffer label for buffer operations, the program label for
// dispatches and draws, and the state call for CommandState.
type Command struct {
	Kind      CommandKind
	Label     string
	Buffer    gpu.BufferName
	Offset    int
	Size      int
	Groups    [3]uint32
	Indices   uint32
	Instances uint32
	Bindings  map[uint32]string
	Value     any
}

// Filter returns the commands of the given kinds, in order.
func Filter(cmds []Command, kinds ...CommandKind) []Command {
	var out []Command
	for _, c := range cmds {
		for _, k := range kinds {
			if c.Kind == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Labels returns the Label of every command.
func Labels(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Label
	}
	return out
}
