package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DRegan-dev/downward/internal/model"
)

// ── shared business errors ──

var (
	// ErrInvalidReference the referenced descent type is missing, deleted or inactive
	ErrInvalidReference = errors.New("descent type is not available")
	// ErrPermissionDenied the actor does not own the resource or lacks a capability
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAlreadyTerminal the session is finished; lifecycle calls report it as a warning
	ErrAlreadyTerminal = model.ErrAlreadyTerminal
	// ErrConcurrentModification another request changed the session first
	ErrConcurrentModification = errors.New("session was modified by another request")
)

// ValidationError field-level input errors
type ValidationError struct {
	Fields map[string]string
}

// Add records msg for field, keeping the first message per field
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns e as an error when any field failed, nil otherwise
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func alreadyTerminalWarning(status model.SessionStatus) string {
	return fmt.Sprintf("session is already %s; nothing was changed", strings.ToLower(string(status)))
}
