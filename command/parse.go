package command

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a command line that could not be understood.
type ParseError struct {
	Input string
	// Kind is what was expected: "command", "int" or "number".
	Kind string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse %s %q: %v", e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("failed to parse %s %q", e.Kind, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Command is a parsed line: the verb and the rest of the line.
type Command struct {
	Name string
	Arg  string
}

var verbs = map[string]bool{
	"":           true,
	"add":        true,
	"all":        true,
	"clear":      true,
	"echo":       true,
	"encode":     true,
	"fps":        true,
	"help":       true,
	"list":       true,
	"load":       true,
	"mov":        true,
	"next":       true,
	"play":       true,
	"record":     true,
	"reload":     true,
	"rem":        true,
	"reset":      true,
	"run":        true,
	"screenshot": true,
	"shuffle":    true,
	"stop":       true,
}

// Parse splits line into a verb and its argument. Surrounding whitespace is
// ignored; the argument keeps inner spacing so echo and paths survive.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	name, arg, _ := strings.Cut(line, " ")
	if !verbs[name] {
		return Command{}, &ParseError{Input: line, Kind: "command"}
	}
	return Command{Name: name, Arg: strings.TrimLeft(arg, " ")}, nil
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ParseError{Input: s, Kind: "int", Err: err}
	}
	return n, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ParseError{Input: s, Kind: "number", Err: err}
	}
	return f, nil
}

// helpText lists the verbs in the order users reach for them.
const helpText = `You are on your own ;(
add <filter>    append a filter
rem <i>|<id>|all remove a filter or all of them
mov <i> <j>     swap two filters
list [ids]      show the chain
all             show every filter
shuffle         shuffle the chain
next            render one frame
play / stop     start or stop playback
fps <n>         set the playback rate
record <n>|stop save the next n frames
encode <file>   encode recorded frames to video
screenshot      save the current image
load <path>     open another image
reload          recompile filters from the filter directory
run <file.lua>  run a script of commands
reset           reset pan and zoom
echo <text>     print text
clear           clear the console`
