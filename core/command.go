package core

import (
	"errors"
	"sync"
)

var (
	// ErrUnknownCommand is returned by Dispatch for codes without a handler
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUnsupportedCommand marks codes that are recognised but not implemented
	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrShortPayload is returned by decoders when a payload is truncated
	ErrShortPayload = errors.New("payload too short")
)

// CommandHandler handles one inbound message payload.
// The handler decodes its own arguments from the payload.
type CommandHandler func(payload []byte) error

// Command is a registered inbound message type
type Command struct {
	Code    uint8
	Name    string
	Handler CommandHandler
}

// CommandRegistry maps one-byte message codes to handlers
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[uint8]*Command
}

var globalRegistry = NewCommandRegistry()

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[uint8]*Command),
	}
}

// Register adds or replaces the handler for code
func (r *CommandRegistry) Register(code uint8, name string, handler CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands[code] = &Command{
		Code:    code,
		Name:    name,
		Handler: handler,
	}
}

// GetCommand retrieves a command by code
func (r *CommandRegistry) GetCommand(code uint8) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[code]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler registered for code
func (r *CommandRegistry) Dispatch(code uint8, payload []byte) error {
	cmd, ok := r.GetCommand(code)
	if !ok || cmd.Handler == nil {
		return ErrUnknownCommand
	}

	return cmd.Handler(payload)
}

// Name returns the registered name for code, or "?"
func (r *CommandRegistry) Name(code uint8) string {
	if cmd, ok := r.GetCommand(code); ok {
		return cmd.Name
	}
	return "?"
}

// GetGlobalRegistry returns the global command registry
func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}
