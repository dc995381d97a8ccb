package permission

import (
	"errors"
	"sync"
)

var (
	// ErrForbidden is returned when a principal fails the role or ownership check.
	ErrForbidden = errors.New("forbidden")
	// ErrUnknownOperation is returned for operations never registered on the gate.
	ErrUnknownOperation = errors.New("unknown operation")
)

// Principal is the subset of an authenticated identity the gate inspects.
type Principal struct {
	Role       Role
	ProviderID string
}

// Gate maps operation names to the role they require.
//
// Register all operations during initialization and call [Gate.Freeze] before
// serving; a frozen gate is safe for concurrent use.
type Gate struct {
	mu         sync.RWMutex
	operations map[string]Role
	frozen     bool
}

// NewGate returns an empty, unfrozen gate.
func NewGate() *Gate {
	return &Gate{operations: make(map[string]Role)}
}

// Register binds operation to the role callers must hold.
func (g *Gate) Register(operation string, required Role) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen {
		return errors.New("gate frozen")
	}
	if operation == "" {
		return errors.New("operation name cannot be empty")
	}
	if !required.Valid() {
		return ErrUnknownRole
	}
	if _, exists := g.operations[operation]; exists {
		return errors.New("operation already registered")
	}

	g.operations[operation] = required
	return nil
}

// Freeze prevents further registrations.
func (g *Gate) Freeze() {
	g.mu.Lock()
	g.frozen = true
	g.mu.Unlock()
}

// Required returns the role bound to operation.
func (g *Gate) Required(operation string) (Role, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.operations[operation]
	return r, ok
}

// Count returns the number of registered operations.
func (g *Gate) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.operations)
}

// Authorize permits p only when p.Role equals required and, when ownerID is
// non-empty, p.ProviderID equals ownerID.
func Authorize(p Principal, required Role, ownerID string) error {
	if p.Role != required {
		return ErrForbidden
	}
	if ownerID != "" && p.ProviderID != ownerID {
		return ErrForbidden
	}
	return nil
}

// AuthorizeOperation looks up the role operation requires and applies Authorize.
func (g *Gate) AuthorizeOperation(p Principal, operation, ownerID string) error {
	required, ok := g.Required(operation)
	if !ok {
		return ErrUnknownOperation
	}
	return Authorize(p, required, ownerID)
}
