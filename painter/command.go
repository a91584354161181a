package painter

import (
	"math"

	"github.com/paulmach/orb"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdSet          CommandType = iota // Set a style property
	CmdImage                           // Place an image inside an extent
	CmdInstructions                    // Replay raw path instructions
	CmdSave                            // Push canvas state
	CmdRestore                         // Pop canvas state
	CmdTransform                       // Replace the transform
	CmdClear                           // Reset painter and surface
	CmdClearRect                       // Clear an extent
	CmdStartTexture                    // Redirect drawing to a texture
	CmdEndTexture                      // Return to the base surface
	CmdApplyTexture                    // Composite a texture onto the active surface
	CmdLine                            // Stroke a line string
	CmdPolygon                         // Build a polygon path and apply its ends
)

// commandTypeNames maps CommandType values to their wire names.
var commandTypeNames = [...]string{
	CmdSet:          "set",
	CmdImage:        "image",
	CmdInstructions: "instructions",
	CmdSave:         "save",
	CmdRestore:      "restore",
	CmdTransform:    "transform",
	CmdClear:        "clear",
	CmdClearRect:    "clearRect",
	CmdStartTexture: "startTexture",
	CmdEndTexture:   "endTexture",
	CmdApplyTexture: "applyTexture",
	CmdLine:         "line",
	CmdPolygon:      "polygon",
}

// String returns the wire name of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "unknown"
}

// ParseCommandType returns the CommandType for a wire name.
func ParseCommandType(name string) (CommandType, bool) {
	for i, n := range commandTypeNames {
		if n == name {
			return CommandType(i), true
		}
	}
	return 0, false
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// Extent is a rectangle as minX, minY, maxX, maxY.
type Extent [4]float64

// Width returns the horizontal size of the extent.
func (e Extent) Width() float64 { return math.Abs(e[2] - e[0]) }

// Height returns the vertical size of the extent.
func (e Extent) Height() float64 { return math.Abs(e[3] - e[1]) }

// BottomLeft returns the corner with the smallest coordinates.
func (e Extent) BottomLeft() orb.Point {
	return orb.Point{math.Min(e[0], e[2]), math.Min(e[1], e[3])}
}

// Bound returns the extent as an orb.Bound.
func (e Extent) Bound() orb.Bound {
	return orb.Bound{Min: e.BottomLeft(), Max: orb.Point{math.Max(e[0], e[2]), math.Max(e[1], e[3])}}
}

// ExtentFromBound converts an orb.Bound.
func ExtentFromBound(b orb.Bound) Extent {
	return Extent{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}

// PolygonEnd is an operation applied to a polygon path once it is built.
type PolygonEnd string

const (
	EndClosePath PolygonEnd = "closePath"
	EndStroke    PolygonEnd = "stroke"
	EndFill      PolygonEnd = "fill"
	EndClip      PolygonEnd = "clip"
)

// DefaultEnds are applied when a polygon command carries no ends.
var DefaultEnds = []PolygonEnd{EndClosePath, EndStroke}

// ImageOptions controls how an image is placed inside its extent.
type ImageOptions struct {
	// Image is the asset name, relative to the media URL.
	Image string `json:"image"`

	Adjust Adjust `json:"adjust,omitempty"`

	// Clip restricts drawing to the target polygon.
	Clip bool `json:"clip,omitempty"`

	// Rotation in degrees around the center of the placed image.
	Rotation float64 `json:"rotation,omitempty"`
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

// SetCommand sets a style property. Value is whatever the JSON decoder
// produced: string, float64, bool or []any.
type SetCommand struct {
	Prop  string
	Value any
}

// Type implements Command.
func (SetCommand) Type() CommandType { return CmdSet }

// ImageCommand places an image inside Extent, optionally clipped to Rings.
type ImageCommand struct {
	Rings   orb.Polygon
	Extent  Extent
	Options ImageOptions
}

// Type implements Command.
func (ImageCommand) Type() CommandType { return CmdImage }

// InstructionsCommand replays raw path instructions.
type InstructionsCommand struct {
	Instructions []Instruction
}

// Type implements Command.
func (InstructionsCommand) Type() CommandType { return CmdInstructions }

// SaveCommand pushes the canvas state.
type SaveCommand struct{}

// Type implements Command.
func (SaveCommand) Type() CommandType { return CmdSave }

// RestoreCommand pops the canvas state.
type RestoreCommand struct{}

// Type implements Command.
func (RestoreCommand) Type() CommandType { return CmdRestore }

// TransformCommand replaces the transform with a b c d e f.
type TransformCommand struct {
	Matrix [6]float64
}

// Type implements Command.
func (TransformCommand) Type() CommandType { return CmdTransform }

// ClearCommand resets the painter.
type ClearCommand struct{}

// Type implements Command.
func (ClearCommand) Type() CommandType { return CmdClear }

// ClearRectCommand clears an extent.
type ClearRectCommand struct {
	Extent Extent
}

// Type implements Command.
func (ClearRectCommand) Type() CommandType { return CmdClearRect }

// StartTextureCommand creates a texture and makes it the drawing target.
type StartTextureCommand struct {
	ID string
}

// Type implements Command.
func (StartTextureCommand) Type() CommandType { return CmdStartTexture }

// EndTextureCommand makes the base surface the drawing target again.
type EndTextureCommand struct{}

// Type implements Command.
func (EndTextureCommand) Type() CommandType { return CmdEndTexture }

// ApplyTextureCommand composites a texture at the origin.
type ApplyTextureCommand struct {
	ID string
}

// Type implements Command.
func (ApplyTextureCommand) Type() CommandType { return CmdApplyTexture }

// LineCommand strokes an open path.
type LineCommand struct {
	Coords orb.LineString
}

// Type implements Command.
func (LineCommand) Type() CommandType { return CmdLine }

// PolygonCommand builds a path from Rings and applies Ends in order.
// A nil Ends means DefaultEnds; an empty non-nil slice applies nothing.
type PolygonCommand struct {
	Rings orb.Polygon
	Ends  []PolygonEnd
}

// Type implements Command.
func (PolygonCommand) Type() CommandType { return CmdPolygon }

// --------------------------------------------------------------------------
// Instructions
// --------------------------------------------------------------------------

// Instruction operations.
const (
	OpBeginPath        = "beginPath"
	OpMoveTo           = "moveTo"
	OpLineTo           = "lineTo"
	OpBezierCurveTo    = "bezierCurveTo"
	OpQuadraticCurveTo = "quadraticCurveTo"
	OpClosePath        = "closePath"
	OpStroke           = "stroke"
	OpFill             = "fill"
)

// Instruction is one low-level path operation with positional arguments.
// Its wire form is [op, n...].
type Instruction struct {
	Op   string
	Args []float64
}

// arg returns Args[i], or 0 when the instruction is short.
func (in Instruction) arg(i int) float64 {
	if i < len(in.Args) {
		return in.Args[i]
	}
	return 0
}
