// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"strconv"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"
)

// ParseColor parses a CSS color string: hex forms (#rgb, #rgba, #rrggbb,
// #rrggbbaa), rgb()/rgba() functional notation with numbers or percentages,
// "transparent" and the SVG 1.1 color keywords.
func ParseColor(s string) (gg.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return gg.RGBA{}, false
	case s == "transparent":
		return gg.Transparent, true
	case strings.HasPrefix(s, "#"):
		return parseHexColor(s[1:])
	case strings.HasPrefix(s, "rgb"):
		return parseFuncColor(s)
	}
	if c, ok := colornames.Map[s]; ok {
		return gg.FromColor(c), true
	}
	return gg.RGBA{}, false
}

func parseHexColor(h string) (gg.RGBA, bool) {
	switch len(h) {
	case 3, 4, 6, 8:
	default:
		return gg.RGBA{}, false
	}
	if _, err := strconv.ParseUint(h, 16, 32); err != nil {
		return gg.RGBA{}, false
	}
	return gg.Hex(h), true
}

func parseFuncColor(s string) (gg.RGBA, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return gg.RGBA{}, false
	}
	name := s[:open]
	if name != "rgb" && name != "rgba" {
		return gg.RGBA{}, false
	}
	body := s[open+1 : len(s)-1]
	body = strings.ReplaceAll(body, "/", " ")
	fields := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 3 && len(fields) != 4 {
		return gg.RGBA{}, false
	}

	var ch [4]float64
	ch[3] = 1
	for i, f := range fields {
		v, pct, err := parseComponent(f)
		if err != nil {
			return gg.RGBA{}, false
		}
		switch {
		case i == 3 && pct:
			ch[i] = v / 100
		case i == 3:
			ch[i] = v
		case pct:
			ch[i] = v / 100
		default:
			ch[i] = v / 255
		}
		ch[i] = clamp01(ch[i])
	}
	return gg.RGBA2(ch[0], ch[1], ch[2], ch[3]), true
}

func parseComponent(f string) (float64, bool, error) {
	pct := strings.HasSuffix(f, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
	return v, pct, err
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
