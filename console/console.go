// Package console implements the in-window command console: the logical
// text buffer, the glyph atlas and the text mesh drawn from them.
package console

import (
	"strings"
	"unicode/utf8"
)

const (
	Prompt = ">"
	// MaxLines bounds both the input history and the output log.
	MaxLines = 100
	// MaxChars caps the characters drawn; the oldest lines go first.
	MaxChars = 10000
)

// Console is the logical buffer: output log, input history and the line
// being typed. Everything drawn on screen derives from it.
type Console struct {
	history  *Ring[string]
	output   *Ring[string]
	current  string
	revision uint64
}

func New() *Console {
	return &Console{
		history: NewRing[string](MaxLines),
		output:  NewRing[string](MaxLines),
	}
}

// ParseInput appends typed text to the current line. Every newline ends a
// line: it is recorded in history, echoed to the output after the prompt
// and returned as a command. Backticks are dropped because the key that
// toggles the console also arrives as text.
func (c *Console) ParseInput(text string) []string {
	text = strings.ReplaceAll(text, "`", "")
	text = strings.ReplaceAll(text, "\r", "")
	if text == "" {
		return nil
	}

	var commands []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			break
		}
		line := c.current + text[:i]
		c.history.Push(line)
		c.output.Push(Prompt + line)
		commands = append(commands, line)
		c.current = ""
		text = text[i+1:]
	}
	c.current += text
	c.revision++
	return commands
}

// Backspace removes the last character of the current line.
func (c *Console) Backspace() {
	if c.current == "" {
		return
	}
	_, n := utf8.DecodeLastRuneInString(c.current)
	c.current = c.current[:len(c.current)-n]
	c.revision++
}

// AddOutput appends text to the log, one entry per line. Trailing newlines
// do not add empty entries.
func (c *Console) AddOutput(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\r\n"), "\n") {
		c.output.Push(line)
	}
	c.revision++
}

// Clear empties the output log. History and the current line survive.
func (c *Console) Clear() {
	c.output.Clear()
	c.revision++
}

// Input is the prompt followed by the current line.
func (c *Console) Input() string { return Prompt + c.current }

func (c *Console) Current() string { return c.current }

// Output returns the log, oldest first.
func (c *Console) Output() []string { return c.output.Items() }

// History returns entered lines, oldest first.
func (c *Console) History() []string { return c.history.Items() }

// Revision changes whenever the visible text may have changed.
func (c *Console) Revision() uint64 { return c.revision }

// Lines is the text to draw, top to bottom: the log followed by the input
// line. Whole lines are dropped from the top while the total exceeds
// MaxChars; the input line is always kept.
func (c *Console) Lines() []string {
	lines := append(c.output.Items(), c.Input())
	total := 0
	for _, l := range lines {
		total += utf8.RuneCountInString(l)
	}
	start := 0
	for total > MaxChars && start < len(lines)-1 {
		total -= utf8.RuneCountInString(lines[start])
		start++
	}
	return lines[start:]
}
