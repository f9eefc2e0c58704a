// Package input interprets what is typed into the TUI prompt.
package input

import "strings"

// PromptCommand describes a command suggestion entry.
type PromptCommand struct {
	Name        string
	Description string
}

// PromptMatchingCommands returns commands that match the current input prefix.
func PromptMatchingCommands(input string, commands []PromptCommand) []PromptCommand {
	if !strings.HasPrefix(strings.TrimSpace(input), "/") {
		return nil
	}
	if strings.Contains(input, " ") {
		return nil
	}

	prefix := strings.ToLower(strings.TrimSpace(input))
	matches := make([]PromptCommand, 0, len(commands))
	for _, cmd := range commands {
		if strings.HasPrefix(strings.ToLower(cmd.Name), prefix) {
			matches = append(matches, cmd)
		}
	}
	return matches
}

// PromptAutocomplete returns the first matching command and whether it exists.
func PromptAutocomplete(input string, commands []PromptCommand) (string, bool) {
	matches := PromptMatchingCommands(input, commands)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Name + " ", true
}

// Parse splits prompt text into a slash command and its argument. Text that
// does not start with "/" is a quick-add line and comes back as the argument
// with an empty command.
func Parse(value string) (cmd, arg string) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "/") {
		return "", value
	}
	cmd, arg, _ = strings.Cut(value, " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}
