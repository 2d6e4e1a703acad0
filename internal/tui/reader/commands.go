package reader

import (
	"strings"

	"github.com/vstratful/searchthatterm/internal/popup"
)

// Slash commands understood by the follow-up input.
const (
	CmdSimplify = "/simplify"
	CmdExample  = "/example"
	CmdWhy      = "/why"
	CmdClose    = "/close"
)

// Command is a slash command offered by autocomplete. Prompt, when set, is
// the follow-up question the command sends.
type Command struct {
	Name        string
	Description string
	Prompt      string
}

// AvailableCommands returns every slash command in display order.
func AvailableCommands() []Command {
	return []Command{
		{Name: CmdClose, Description: "Close this conversation"},
		{Name: CmdExample, Description: popup.QuickPrompts[1], Prompt: popup.QuickPrompts[1]},
		{Name: CmdSimplify, Description: popup.QuickPrompts[0], Prompt: popup.QuickPrompts[0]},
		{Name: CmdWhy, Description: popup.QuickPrompts[2], Prompt: popup.QuickPrompts[2]},
	}
}

// LookupCommand finds a command by exact name, ignoring case.
func LookupCommand(name string) (Command, bool) {
	for _, cmd := range AvailableCommands() {
		if strings.EqualFold(cmd.Name, name) {
			return cmd, true
		}
	}
	return Command{}, false
}

// FilterCommands returns commands matching the given prefix.
func FilterCommands(prefix string) []Command {
	if prefix == "" || prefix[0] != '/' {
		return nil
	}
	all := AvailableCommands()
	if prefix == "/" {
		return all
	}
	var filtered []Command
	lowerPrefix := strings.ToLower(prefix)
	for _, cmd := range all {
		if strings.HasPrefix(strings.ToLower(cmd.Name), lowerPrefix) {
			filtered = append(filtered, cmd)
		}
	}
	return filtered
}
