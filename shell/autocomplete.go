package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/heuristic"
)

// ShellCompleter completes command names, options and option values.
type ShellCompleter struct{}

func NewShellCompleter() *ShellCompleter {
	return &ShellCompleter{}
}

type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"new":      {Options: []string{"-turns"}, Args: board.LayoutNames()},
	"ai":       {Options: []string{"-time", "-depth", "-heuristic"}},
	"hint":     {Options: []string{"-time", "-depth", "-heuristic"}},
	"bot":      {Options: []string{"-heuristic"}},
	"show":     {Args: []string{"moves"}},
	"cache":    {Args: []string{"save", "load", "stats", "clear"}},
	"set":      {Args: optionKeys},
	"help":     {Args: []string{"autoplay", "cache", "notation", "set"}},
	"autoplay": {
		Options: []string{"-rounds", "-threads", "-turns", "-time", "-depth",
			"-layout", "-random", "-seeds", "-file"},
		Args: append([]string{"stop"}, heuristic.Names()...),
	},
}

var commandNames = []string{
	"new", "show", "s", "gen", "play", "p", "undo", "u", "ai", "hint", "bot",
	"autoplay", "analyze", "cache", "set", "script", "help", "exit",
}

// Do implements readline.AutoCompleter.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}
		switch lastCompleteField {
		case "-layout":
			completions = board.LayoutNames()
		case "-heuristic":
			completions = heuristic.Names()
		case "heuristic":
			if cmdName == "set" {
				completions = heuristic.Names()
			}
		case "layout":
			if cmdName == "set" {
				completions = board.LayoutNames()
			}
		}
		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
