package cli

import (
	"errors"
	"fmt"

	"github.com/rockets-cn/allsky/pkg/config"
	"github.com/rockets-cn/allsky/pkg/errpolicy"
)

// Exit codes returned by the allsky binary.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps err to the process exit status. Configuration problems
// exit with ExitConfig so service managers can tell them apart.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cerr *ConfigError
	var verr config.ValidationError
	switch {
	case errors.As(err, &cerr), errors.As(err, &verr):
		return ExitConfig
	case errpolicy.KindOf(err) == errpolicy.KindConfiguration:
		return ExitConfig
	default:
		return ExitFailure
	}
}
