package client

import "strings"

// handleTabCompletion extends the command under the cursor, or its first
// argument, to the longest prefix shared by every candidate.
func (a *App) handleTabCompletion() bool {
	value := a.input.Value()
	if value == "" || !a.isCommand(value) {
		return false
	}
	if a.input.Position() != len([]rune(value)) {
		return false
	}

	fields := strings.Fields(value)
	trailingSpace := strings.HasSuffix(value, " ")
	var (
		head       string
		segment    string
		candidates []string
	)
	switch {
	case len(fields) == 1 && !trailingSpace:
		segment = fields[0]
		for _, cmd := range a.commands {
			candidates = append(candidates, cmd.trigger)
		}
	case len(fields) == 1 && trailingSpace, len(fields) == 2 && !trailingSpace:
		cmd, ok := a.lookupCommand(fields[0])
		if !ok {
			return false
		}
		head = fields[0] + " "
		if len(fields) == 2 {
			segment = fields[1]
		}
		candidates = cmd.args
	default:
		return false
	}

	matches := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c, segment) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return false
	}

	prefix := longestCommonPrefix(matches)
	if len(matches) == 1 {
		prefix += " "
	}
	if len(prefix) <= len(segment) {
		return false
	}

	a.input.SetValue(head + prefix)
	a.input.CursorEnd()
	return true
}

func (a *App) lookupCommand(trigger string) (commandSpec, bool) {
	trigger = strings.ToLower(trigger)
	for _, cmd := range a.commands {
		if cmd.trigger == trigger {
			return cmd, true
		}
	}
	return commandSpec{}, false
}

func longestCommonPrefix(values []string) string {
	if len(values) == 0 {
		return ""
	}
	prefix := values[0]
	for _, s := range values[1:] {
		for !strings.HasPrefix(s, prefix) {
			if prefix == "" {
				return ""
			}
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
