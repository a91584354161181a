package painter

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors returned when decoding commands.
var (
	// ErrUnknownCommand is returned for a tuple whose name is not a command.
	ErrUnknownCommand = errors.New("painter: unknown command")

	// ErrMalformedCommand is returned for a tuple with missing or ill-typed
	// arguments.
	ErrMalformedCommand = errors.New("painter: malformed command")
)

// Batch is an ordered list of commands. It encodes to and decodes from the
// JSON tuple form, an array of [name, args...] arrays.
type Batch []Command

// Decode parses a JSON command array.
func Decode(data []byte) (Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return b, nil
}

// MarshalJSON implements json.Marshaler.
func (b Batch) MarshalJSON() ([]byte, error) {
	tuples := make([][]any, len(b))
	for i, c := range b {
		t, err := encodeCommand(c)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		tuples[i] = t
	}
	return json.Marshal(tuples)
}

// UnmarshalJSON implements json.Unmarshaler. On error the batch is left
// untouched.
func (b *Batch) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	out := make(Batch, 0, len(raws))
	for i, raw := range raws {
		c, err := decodeCommand(raw)
		if err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
		out = append(out, c)
	}
	*b = out
	return nil
}

func encodeCommand(c Command) ([]any, error) {
	name := c.Type().String()
	switch c := c.(type) {
	case SetCommand:
		return []any{name, c.Prop, c.Value}, nil
	case ImageCommand:
		return []any{name, c.Rings, c.Extent, c.Options}, nil
	case InstructionsCommand:
		return []any{name, c.Instructions}, nil
	case SaveCommand, RestoreCommand, ClearCommand, EndTextureCommand:
		return []any{name}, nil
	case TransformCommand:
		m := c.Matrix
		return []any{name, m[0], m[1], m[2], m[3], m[4], m[5]}, nil
	case ClearRectCommand:
		return []any{name, c.Extent}, nil
	case StartTextureCommand:
		return []any{name, c.ID}, nil
	case ApplyTextureCommand:
		return []any{name, c.ID}, nil
	case LineCommand:
		return []any{name, c.Coords}, nil
	case PolygonCommand:
		if c.Ends == nil {
			return []any{name, c.Rings}, nil
		}
		return []any{name, c.Rings, c.Ends}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, c)
}

func decodeCommand(raw json.RawMessage) (Command, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil || len(tuple) == 0 {
		return nil, fmt.Errorf("%w: not a tuple", ErrMalformedCommand)
	}
	var name string
	if err := json.Unmarshal(tuple[0], &name); err != nil {
		return nil, fmt.Errorf("%w: command name: %v", ErrMalformedCommand, err)
	}
	typ, ok := ParseCommandType(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	args := tuple[1:]

	// arg decodes args[i] into v, failing when it is missing.
	arg := func(i int, v any) error {
		if i >= len(args) {
			return fmt.Errorf("%w: %s: missing argument %d", ErrMalformedCommand, name, i)
		}
		if err := json.Unmarshal(args[i], v); err != nil {
			return fmt.Errorf("%w: %s: argument %d: %v", ErrMalformedCommand, name, i, err)
		}
		return nil
	}

	switch typ {
	case CmdSet:
		var c SetCommand
		if err := arg(0, &c.Prop); err != nil {
			return nil, err
		}
		if len(args) > 1 {
			if err := arg(1, &c.Value); err != nil {
				return nil, err
			}
		}
		return c, nil
	case CmdImage:
		var c ImageCommand
		if err := arg(0, &c.Rings); err != nil {
			return nil, err
		}
		if err := arg(1, &c.Extent); err != nil {
			return nil, err
		}
		if err := arg(2, &c.Options); err != nil {
			return nil, err
		}
		return c, nil
	case CmdInstructions:
		var c InstructionsCommand
		if err := arg(0, &c.Instructions); err != nil {
			return nil, err
		}
		return c, nil
	case CmdSave:
		return SaveCommand{}, nil
	case CmdRestore:
		return RestoreCommand{}, nil
	case CmdTransform:
		var c TransformCommand
		for i := range c.Matrix {
			if err := arg(i, &c.Matrix[i]); err != nil {
				return nil, err
			}
		}
		return c, nil
	case CmdClear:
		return ClearCommand{}, nil
	case CmdClearRect:
		var c ClearRectCommand
		if err := arg(0, &c.Extent); err != nil {
			return nil, err
		}
		return c, nil
	case CmdStartTexture:
		var c StartTextureCommand
		if err := arg(0, &c.ID); err != nil {
			return nil, err
		}
		return c, nil
	case CmdEndTexture:
		return EndTextureCommand{}, nil
	case CmdApplyTexture:
		var c ApplyTextureCommand
		if err := arg(0, &c.ID); err != nil {
			return nil, err
		}
		return c, nil
	case CmdLine:
		var c LineCommand
		if err := arg(0, &c.Coords); err != nil {
			return nil, err
		}
		return c, nil
	case CmdPolygon:
		var c PolygonCommand
		if err := arg(0, &c.Rings); err != nil {
			return nil, err
		}
		if len(args) > 1 && string(args[1]) != "null" {
			c.Ends = []PolygonEnd{}
			if err := arg(1, &c.Ends); err != nil {
				return nil, err
			}
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// MarshalJSON implements json.Marshaler.
func (in Instruction) MarshalJSON() ([]byte, error) {
	t := make([]any, 0, len(in.Args)+1)
	t = append(t, in.Op)
	for _, a := range in.Args {
		t = append(t, a)
	}
	return json.Marshal(t)
}

// UnmarshalJSON implements json.Unmarshaler.
func (in *Instruction) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil || len(tuple) == 0 {
		return fmt.Errorf("instruction: not a tuple")
	}
	var op string
	if err := json.Unmarshal(tuple[0], &op); err != nil {
		return fmt.Errorf("instruction: op: %w", err)
	}
	args := make([]float64, len(tuple)-1)
	for i, raw := range tuple[1:] {
		if err := json.Unmarshal(raw, &args[i]); err != nil {
			return fmt.Errorf("instruction %s: argument %d: %w", op, i, err)
		}
	}
	in.Op = op
	in.Args = args
	return nil
}
