package bootanim

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minDimension = 100
	maxDimension = 3840
	minFPS       = 1
	maxFPS       = 120
	maxNameRunes = 64

	fallbackName = "CustomBootAnimation"
)

// Params are the user-facing build options.
type Params struct {
	Width  int
	Height int
	FPS    int
	// Loop is the number of times the animation plays; 0 loops until boot completes.
	Loop int
	Name string
}

// Resolution renders the frame size as WxH.
func (p Params) Resolution() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Normalize fills zero values from defaults and clamps everything into the
// supported range. The package name loses line breaks so it cannot add keys
// to module.prop.
func (p Params) Normalize(defaults Params) Params {
	out := p
	if out.Width == 0 {
		out.Width = defaults.Width
	}
	if out.Height == 0 {
		out.Height = defaults.Height
	}
	if out.FPS == 0 {
		out.FPS = defaults.FPS
	}
	out.Width = clamp(out.Width, minDimension, maxDimension)
	out.Height = clamp(out.Height, minDimension, maxDimension)
	out.FPS = clamp(out.FPS, minFPS, maxFPS)
	if out.Loop < 0 {
		out.Loop = 0
	}
	out.Name = sanitizeName(out.Name)
	if out.Name == "" {
		out.Name = sanitizeName(defaults.Name)
	}
	if out.Name == "" {
		out.Name = fallbackName
	}
	return out
}

func clamp(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '\n', r == '\r', r == '\t':
			return ' '
		case r < ' ', r == 0x7f:
			return -1
		default:
			return r
		}
	}, name)
	name = strings.Join(strings.Fields(name), " ")
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = string([]rune(name)[:maxNameRunes])
		name = strings.TrimSpace(name)
	}
	return name
}
