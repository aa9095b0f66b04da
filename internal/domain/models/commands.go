package models

import "strings"

// CommandType enumerates the chat commands understood by the pantry bot.
type CommandType string

const (
	CommandAdd     CommandType = "add"
	CommandRemove  CommandType = "remove"
	CommandSet     CommandType = "set"
	CommandList    CommandType = "list"
	CommandSearch  CommandType = "search"
	CommandShow    CommandType = "show"
	CommandSummary CommandType = "summary"
	CommandConfirm CommandType = "confirm"
	CommandCancel  CommandType = "cancel"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"add":     CommandAdd,
	"remove":  CommandRemove,
	"rm":      CommandRemove,
	"set":     CommandSet,
	"list":    CommandList,
	"ls":      CommandList,
	"search":  CommandSearch,
	"find":    CommandSearch,
	"show":    CommandShow,
	"details": CommandShow,
	"summary": CommandSummary,
	"confirm": CommandConfirm,
	"yes":     CommandConfirm,
	"cancel":  CommandCancel,
	"no":      CommandCancel,
	"help":    CommandHelp,
}

// Command represents a parsed instruction extracted from chat text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. Only the command word is
// case-folded; arguments keep their case because item names are case-sensitive.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(message)
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	if t, ok := commandAliases[head]; ok {
		cmd.Type = t
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}

// IsSlash reports whether the text was written as an explicit slash command.
func IsSlash(message string) bool {
	return strings.HasPrefix(strings.TrimSpace(message), "/")
}
