package command

import (
	"sort"
	"sync"
)

var (
	mu       sync.Mutex
	registry = map[string]Command{}
)

// RegisterCommand adds a top-level command to the registry
func RegisterCommand(cmd Command) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[cmd.Name()]; dup {
		panic("command: duplicate registration of " + cmd.Name())
	}
	registry[cmd.Name()] = cmd
}

// GetCommand returns a top-level command by name or alias
func GetCommand(name string) (Command, bool) {
	mu.Lock()
	defer mu.Unlock()
	if cmd, ok := registry[name]; ok {
		return cmd, true
	}
	for _, cmd := range registry {
		for _, a := range cmd.Aliases() {
			if a == name {
				return cmd, true
			}
		}
	}
	return nil, false
}

// AllCommands returns the registered top-level commands sorted by name.
func AllCommands() []Command {
	mu.Lock()
	defer mu.Unlock()
	cmds := make([]Command, 0, len(registry))
	for _, cmd := range registry {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Name() < cmds[j].Name()
	})
	return cmds
}
