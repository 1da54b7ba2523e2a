package models

import "strings"

// CommandType enumerates the WhatsApp commands field staff can send.
type CommandType string

const (
	CommandMilk    CommandType = "milk"
	CommandMeat    CommandType = "meat"
	CommandDoses   CommandType = "doses"
	CommandSummary CommandType = "summary"
	CommandUnknown CommandType = "unknown"
)

// Command is a parsed staff instruction.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text such as "/milk A-12 14.5 morning".
func ParseCommand(message string) Command {
	tokens := strings.Fields(strings.TrimSpace(message))
	cmd := Command{Type: CommandUnknown, Raw: message}
	if len(tokens) == 0 {
		return cmd
	}

	switch CommandType(strings.ToLower(strings.TrimPrefix(tokens[0], "/"))) {
	case CommandMilk:
		cmd.Type = CommandMilk
	case CommandMeat:
		cmd.Type = CommandMeat
	case CommandDoses:
		cmd.Type = CommandDoses
	case CommandSummary:
		cmd.Type = CommandSummary
	}

	// Tags are case sensitive, so arguments keep their original spelling.
	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd
}
