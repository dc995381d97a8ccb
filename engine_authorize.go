package careauth

import (
	"context"
	"errors"

	"github.com/techcare/careauth/permission"
)

// Operations guarded by the authorization gate.
const (
	OperationDependentAdd    = "dependents.add"
	OperationDependentUpdate = "dependents.update"
	OperationDependentDelete = "dependents.delete"
	OperationDependentList   = "dependents.list"
)

var gatedOperations = map[string]Role{
	OperationDependentAdd:    RoleProvider,
	OperationDependentUpdate: RoleProvider,
	OperationDependentDelete: RoleProvider,
	OperationDependentList:   RoleProvider,
}

// Authorize permits identity only when its role equals required and, when
// ownerID is non-empty, its provider ID equals ownerID. Any other combination
// yields ErrForbidden.
//
// Authorize does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Authorize(identity Identity, required Role, ownerID string) error {
	err := permission.Authorize(principalOf(identity), required, ownerID)
	if err != nil {
		e.denied(identity, string(required), ownerID)
	}
	return err
}

// AuthorizeOperation applies Authorize with the role registered for operation.
// Unregistered operations are refused.
func (e *Engine) AuthorizeOperation(identity Identity, operation, ownerID string) error {
	if e == nil || e.gate == nil {
		return ErrEngineNotReady
	}
	err := e.gate.AuthorizeOperation(principalOf(identity), operation, ownerID)
	if errors.Is(err, permission.ErrUnknownOperation) {
		e.denied(identity, operation, ownerID)
		return ErrForbidden
	}
	if err != nil {
		e.denied(identity, operation, ownerID)
	}
	return err
}

func (e *Engine) denied(identity Identity, required, ownerID string) {
	e.metricInc(MetricAuthorizationDenied)
	if e == nil {
		return
	}
	e.emitAudit(context.Background(), auditEventAuthorizationDenied, false, identity.AccountID, identity.Mobile, ErrForbidden, func() map[string]string {
		return map[string]string{
			"required": required,
			"owner_id": ownerID,
			"role":     string(identity.Role),
		}
	})
}

func principalOf(identity Identity) permission.Principal {
	return permission.Principal{
		Role:       identity.Role,
		ProviderID: identity.ProviderID,
	}
}
