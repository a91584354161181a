package painter

import (
	"encoding/json"
	"math"

	"github.com/gogpu/gg"

	"github.com/gogpu/ggmap/surface"
)

var lineCaps = map[string]gg.LineCap{
	"butt":   gg.LineCapButt,
	"round":  gg.LineCapRound,
	"square": gg.LineCapSquare,
}

var lineJoins = map[string]gg.LineJoin{
	"miter": gg.LineJoinMiter,
	"round": gg.LineJoinRound,
	"bevel": gg.LineJoinBevel,
}

var fillRules = map[string]gg.FillRule{
	"nonzero": gg.FillRuleNonZero,
	"evenodd": gg.FillRuleEvenOdd,
}

var textAligns = map[string]bool{
	"start": true, "end": true, "left": true, "right": true, "center": true,
}

var textBaselines = map[string]bool{
	"top": true, "hanging": true, "middle": true, "alphabetic": true,
	"ideographic": true, "bottom": true,
}

// Set maps a canvas style property onto the active canvas. Unknown
// properties and values of the wrong type or range are ignored, the way a
// canvas ignores invalid assignments.
func (p *Painter) Set(prop string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(prop, value)
}

func (p *Painter) set(prop string, value any) {
	s := p.active.Style()
	switch prop {
	case "fillStyle":
		if c, ok := colorValue(value); ok {
			s.Fill = c
		}
	case "strokeStyle":
		if c, ok := colorValue(value); ok {
			s.Stroke = c
		}
	case "lineWidth":
		if v, ok := number(value); ok && v > 0 {
			s.LineWidth = v
		}
	case "lineCap":
		if v, ok := lineCaps[str(value)]; ok {
			s.LineCap = v
		}
	case "lineJoin":
		if v, ok := lineJoins[str(value)]; ok {
			s.LineJoin = v
		}
	case "lineDash":
		if d, ok := dashValue(value); ok {
			s.Dash = d
		}
	case "lineDashOffset":
		if v, ok := number(value); ok {
			s.DashOffset = v
		}
	case "miterLimit":
		if v, ok := number(value); ok && v > 0 {
			s.MiterLimit = v
		}
	case "font":
		if v, ok := value.(string); ok && v != "" {
			s.Font = v
		}
	case "globalAlpha":
		if v, ok := number(value); ok && v >= 0 && v <= 1 {
			s.Alpha = v
		}
	case "globalCompositeOperation":
		if op, ok := surface.ParseCompositeOp(str(value)); ok {
			s.Composite = op
		}
	case "imageSmoothingEnabled":
		if v, ok := value.(bool); ok {
			s.ImageSmoothing = v
		}
	case "shadowBlur":
		if v, ok := number(value); ok && v >= 0 {
			s.ShadowBlur = v
		}
	case "shadowColor":
		if c, ok := colorValue(value); ok {
			s.ShadowColor = c
		}
	case "shadowOffsetX":
		if v, ok := number(value); ok {
			s.ShadowOffsetX = v
		}
	case "shadowOffsetY":
		if v, ok := number(value); ok {
			s.ShadowOffsetY = v
		}
	case "textAlign":
		if v := str(value); textAligns[v] {
			s.TextAlign = v
		}
	case "textBaseline":
		if v := str(value); textBaselines[v] {
			s.TextBaseline = v
		}
	case "msFillRule", "fillRule":
		if v, ok := fillRules[str(value)]; ok {
			s.FillRule = v
		}
	default:
		Logger().Debug("painter: unknown property", "prop", prop)
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func colorValue(v any) (gg.RGBA, bool) {
	s, ok := v.(string)
	if !ok {
		return gg.RGBA{}, false
	}
	return surface.ParseColor(s)
}

// number accepts the numeric types a decoder or a Go caller may produce.
// Non-finite values are rejected.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// dashValue converts a dash list. Like setLineDash, a list with a negative
// entry is rejected and an odd-length list is repeated once.
func dashValue(v any) ([]float64, bool) {
	var out []float64
	switch list := v.(type) {
	case []float64:
		out = append(out, list...)
	case []any:
		out = make([]float64, 0, len(list))
		for _, e := range list {
			f, ok := number(e)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
	case nil:
		return nil, true
	default:
		return nil, false
	}
	for _, f := range out {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
	}
	if len(out) == 0 {
		return nil, true
	}
	if len(out)%2 == 1 {
		out = append(out, out...)
	}
	return out, true
}
