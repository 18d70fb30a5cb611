// Package security provides authorization and access control.
package security

import (
	"context"
	"fmt"

	"procura/internal/core/apperror"
	appctx "procura/internal/core/context"
)

// Permission defines available permissions in the system.
type Permission string

const (
	// CRUD permissions
	PermissionRead   Permission = "read"
	PermissionCreate Permission = "create"
	PermissionUpdate Permission = "update"
	PermissionDelete Permission = "delete"

	// Document-specific permissions
	PermissionTransition Permission = "transition"
	PermissionDistribute Permission = "distribute"
	PermissionConfirm    Permission = "confirm"

	// Admin permissions
	PermissionAdmin Permission = "admin"
	PermissionAudit Permission = "audit"
)

// Role defines a set of permissions.
type Role string

const (
	RoleAdmin    Role = "admin"
	RolePlanner  Role = "planner"
	RoleCustomer Role = "customer"
	RoleSupplier Role = "supplier"
	RoleViewer   Role = "viewer"
)

// AccessScope defines the boundaries of data visibility for current request.
// Party bindings narrow a customer user to their own orders and a supplier
// user to their own purchase orders.
type AccessScope struct {
	// UserID is the authenticated user
	UserID string

	// IsAdmin bypasses permission and party checks
	IsAdmin bool

	// SupplierID limits supplier-portal users to their own purchase orders
	SupplierID string

	// CustomerID limits customer users to their own orders
	CustomerID string

	// Permissions available to user
	Permissions map[string][]Permission
}

// NewAccessScope creates AccessScope from context.
func NewAccessScope(ctx context.Context) *AccessScope {
	user := appctx.GetUser(ctx)
	if user == nil {
		return &AccessScope{}
	}

	return &AccessScope{
		UserID:     user.UserID,
		IsAdmin:    user.IsAdmin,
		SupplierID: user.SupplierID,
		CustomerID: user.CustomerID,
	}
}

// CanActForSupplier checks if user may act on behalf of the supplier.
func (s *AccessScope) CanActForSupplier(supplierID string) bool {
	if s.IsAdmin {
		return true
	}
	return s.SupplierID != "" && s.SupplierID == supplierID
}

// CanActForCustomer checks if user may act on behalf of the customer.
func (s *AccessScope) CanActForCustomer(customerID string) bool {
	if s.IsAdmin {
		return true
	}
	return s.CustomerID != "" && s.CustomerID == customerID
}

// HasPermission checks if user has permission on entity.
func (s *AccessScope) HasPermission(entity string, perm Permission) bool {
	if s.IsAdmin {
		return true
	}
	if perms, ok := s.Permissions[entity]; ok {
		for _, p := range perms {
			if p == perm {
				return true
			}
		}
	}
	return false
}

// RequirePermission returns error if permission is missing.
func (s *AccessScope) RequirePermission(entity string, perm Permission) error {
	if !s.HasPermission(entity, perm) {
		return apperror.NewForbidden(
			fmt.Sprintf("permission %s on %s required", perm, entity),
		).WithDetail("entity", entity).WithDetail("permission", perm)
	}
	return nil
}

// RequireSupplier returns error unless the scope may act for the supplier.
func (s *AccessScope) RequireSupplier(supplierID string) error {
	if !s.CanActForSupplier(supplierID) {
		return apperror.NewForbidden("purchase order belongs to another supplier").
			WithDetail("supplier_id", supplierID)
	}
	return nil
}

// --- Context-based scope access ---

type scopeKey struct{}

// WithScope adds AccessScope to context.
func WithScope(ctx context.Context, scope *AccessScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// GetScope returns AccessScope from context.
func GetScope(ctx context.Context) *AccessScope {
	if v, ok := ctx.Value(scopeKey{}).(*AccessScope); ok {
		return v
	}
	return NewAccessScope(ctx)
}
