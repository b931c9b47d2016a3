// Package auth provides the tenant authorization gate. Authentication itself is
// external: callers arrive with an already-validated identity, and this package
// only answers whether that identity may act on a tenant.
package auth

import (
	"context"
	"errors"
	"sync"
)

// Role is a caller's role within a tenant.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

var (
	// ErrPermissionDenied indicates the caller is known but lacks a sufficient
	// role on the tenant. Deliberately distinct from a not-found condition.
	ErrPermissionDenied = errors.New("permission denied")
)

// IsPermissionDenied checks if an error is a permission denial.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// Authorizer checks that a caller may run agents on a tenant. Owners, admins
// and platform admins pass; everyone else is denied before any work happens.
type Authorizer interface {
	Authorize(ctx context.Context, callerID, tenantID string) error
}

// StaticAuthorizer is an in-memory membership table. Deployments that keep
// memberships elsewhere provide their own Authorizer.
type StaticAuthorizer struct {
	mu             sync.RWMutex
	memberships    map[string]map[string]Role // tenantID -> callerID -> role
	platformAdmins map[string]bool
}

// NewStaticAuthorizer creates an empty membership table.
func NewStaticAuthorizer() *StaticAuthorizer {
	return &StaticAuthorizer{
		memberships:    make(map[string]map[string]Role),
		platformAdmins: make(map[string]bool),
	}
}

// Grant records a caller's role within a tenant.
func (a *StaticAuthorizer) Grant(tenantID, callerID string, role Role) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tenant, ok := a.memberships[tenantID]
	if !ok {
		tenant = make(map[string]Role)
		a.memberships[tenantID] = tenant
	}

	tenant[callerID] = role
}

// GrantPlatformAdmin marks a caller as a platform-level admin with access to
// every tenant.
func (a *StaticAuthorizer) GrantPlatformAdmin(callerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.platformAdmins[callerID] = true
}

// Authorize allows tenant owners/admins and platform admins.
func (a *StaticAuthorizer) Authorize(_ context.Context, callerID, tenantID string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.platformAdmins[callerID] {
		return nil
	}

	role, ok := a.memberships[tenantID][callerID]
	if !ok {
		return ErrPermissionDenied
	}

	if role != RoleOwner && role != RoleAdmin {
		return ErrPermissionDenied
	}

	return nil
}
