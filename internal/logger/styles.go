package logger

import (
	"strings"

	"github.com/fatih/color"
)

// levelColors maps each level to the color of its side block and tag.
// Info is cyan, warnings yellow, errors red; level-less text gets a white block.
var levelColors = map[Level]color.Attribute{
	LevelText:    color.FgWhite,
	LevelVerbose: color.FgBlue,
	LevelDebug:   color.FgWhite,
	LevelInfo:    color.FgCyan,
	LevelWarn:    color.FgYellow,
	LevelError:   color.FgRed,
	LevelFatal:   color.FgRed,
}

// background turns a foreground color attribute into the matching background one.
func background(fg color.Attribute) color.Attribute {
	return fg - color.FgBlack + color.BgBlack
}

type styles struct {
	block  map[Level]*color.Color
	tag    map[Level]*color.Color
	text   *color.Color
	muted  *color.Color
	prompt *color.Color
}

// newStyles builds the color set. With enabled false every style prints plain text.
func newStyles(enabled bool) styles {
	s := styles{
		block:  make(map[Level]*color.Color, len(levelColors)),
		tag:    make(map[Level]*color.Color, len(levelColors)),
		text:   color.New(color.FgHiWhite, color.Bold),
		muted:  color.New(color.FgHiBlack),
		prompt: color.New(color.FgCyan, color.Bold),
	}
	for level, fg := range levelColors {
		s.block[level] = color.New(color.FgBlack, background(fg))
		s.tag[level] = color.New(fg, color.BgBlack, color.Bold)
	}

	for _, c := range s.all() {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func (s styles) all() []*color.Color {
	all := []*color.Color{s.text, s.muted, s.prompt}
	for _, c := range s.block {
		all = append(all, c)
	}
	for _, c := range s.tag {
		all = append(all, c)
	}
	return all
}

// format renders one physical line: "<block> [ level ] -- message".
func (s styles) format(level Level, msg string) string {
	tag := strings.Repeat(" ", tagWidth+2)
	if level != LevelText {
		tag = s.tag[level].Sprint("[" + centerText(level.String(), tagWidth) + "]")
	} else {
		msg = s.text.Sprint(msg)
	}
	return s.block[level].Sprint("  ") + " " + tag + " -- " + msg
}

// continuation renders a wrapped remainder of a line, muted and without a tag.
func (s styles) continuation(level Level, msg string) string {
	return s.block[level].Sprint("  ") + " " + strings.Repeat(" ", tagWidth+2) + "    " + s.muted.Sprint(msg)
}

// centerText pads text to width, putting the odd blank on the right.
func centerText(text string, width int) string {
	pad := width - len(text)
	if pad <= 0 {
		return text
	}
	left := pad / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", pad-left)
}
