package core

// Input carries the positional and keyword arguments of a single call.
type Input struct {
	Args   []any          `json:"args" yaml:"args" msgpack:"args"`
	Kwargs map[string]any `json:"kwargs" yaml:"kwargs" msgpack:"kwargs"`
}

// NewInput builds an Input from positional arguments.
func NewInput(args ...any) Input {
	return Input{Args: args, Kwargs: map[string]any{}}
}

// With returns a copy of the input with an additional keyword argument.
func (in Input) With(key string, value any) Input {
	out := in.Clone()
	out.Kwargs[key] = value
	return out
}

// Arg returns the positional argument at index i or nil when absent.
func (in Input) Arg(i int) any {
	if i < 0 || i >= len(in.Args) {
		return nil
	}
	return in.Args[i]
}

// Kwarg returns the keyword argument stored under name.
func (in Input) Kwarg(name string) (any, bool) {
	v, ok := in.Kwargs[name]
	return v, ok
}

// Clone returns a shallow copy whose slice and map can be mutated independently.
func (in Input) Clone() Input {
	out := Input{
		Args:   make([]any, len(in.Args)),
		Kwargs: make(map[string]any, len(in.Kwargs)),
	}
	copy(out.Args, in.Args)
	for k, v := range in.Kwargs {
		out.Kwargs[k] = v
	}
	return out
}

// NodeLog is the record kept for one invocation of a composable, keyed by the
// absolute path of that invocation.
type NodeLog struct {
	Input  Input  `json:"input" yaml:"input" msgpack:"input"`
	Output any    `json:"output" yaml:"output" msgpack:"output"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// AsNodeLog converts a stored value back into a NodeLog. Stores that round-trip
// values through a loose codec return plain maps, which are accepted as well.
func AsNodeLog(v any) (NodeLog, bool) {
	switch t := v.(type) {
	case NodeLog:
		return t, true
	case *NodeLog:
		if t == nil {
			return NodeLog{}, false
		}
		return *t, true
	case map[string]any:
		log := NodeLog{Output: t["output"]}
		if e, ok := t["error"].(string); ok {
			log.Error = e
		}
		if in, ok := t["input"].(map[string]any); ok {
			if args, ok := in["args"].([]any); ok {
				log.Input.Args = args
			}
			if kwargs, ok := in["kwargs"].(map[string]any); ok {
				log.Input.Kwargs = kwargs
			}
		}
		return log, true
	default:
		return NodeLog{}, false
	}
}
