package debugger

// CommandHistory keeps a bounded list of executed commands for recall in the
// TUI input field
type CommandHistory struct {
	commands []string
	maxSize  int
	position int // current recall position, len(commands) = not recalling
}

// NewCommandHistory creates a command history with the default capacity
func NewCommandHistory() *CommandHistory {
	return &CommandHistory{
		commands: make([]string, 0, 100),
		maxSize:  1000,
	}
}

// Add appends a command; consecutive duplicates are collapsed
func (h *CommandHistory) Add(cmd string) {
	if n := len(h.commands); n > 0 && h.commands[n-1] == cmd {
		h.position = len(h.commands)
		return
	}
	h.commands = append(h.commands, cmd)
	if len(h.commands) > h.maxSize {
		h.commands = h.commands[len(h.commands)-h.maxSize:]
	}
	h.position = len(h.commands)
}

// Previous moves back through the history and returns the command there;
// returns "" when the history is empty
func (h *CommandHistory) Previous() string {
	if len(h.commands) == 0 {
		return ""
	}
	if h.position > 0 {
		h.position--
	}
	return h.commands[h.position]
}

// Next moves forward through the history; returns "" past the newest entry
func (h *CommandHistory) Next() string {
	if h.position < len(h.commands) {
		h.position++
	}
	if h.position == len(h.commands) {
		return ""
	}
	return h.commands[h.position]
}

// All returns the stored commands, oldest first
func (h *CommandHistory) All() []string {
	return h.commands
}
