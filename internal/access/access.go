// Package access decides whether a user may read or write a project, a
// transaction, or the transaction edit path. It only reads.
package access

import (
	"context"
	"log/slog"

	userDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/user"
)

// Repository is the read side the gate needs from the entity store.
type Repository interface {
	// GetUser returns nil, nil when the user does not exist.
	GetUser(ctx context.Context, userID int64) (*userDatamodel.User, error)
	IsAssigned(ctx context.Context, userID, projectID int64) (bool, error)
	AssignedProjectIDs(ctx context.Context, userID int64) ([]int64, error)
	// TransactionProjectID reports the project of a transaction; found is
	// false when the transaction does not exist.
	TransactionProjectID(ctx context.Context, transactionID int64) (projectID *int64, found bool, err error)
}

// GrantChecker reports whether an active, unexpired edit permission covers
// the user directly or the given project.
type GrantChecker interface {
	HasActiveGrant(ctx context.Context, userID int64, projectID *int64) (bool, error)
}

type Options struct {
	ManagersCanGrantEdit bool
}

type Gate struct {
	repo    Repository
	grants  GrantChecker
	options Options
	logger  *slog.Logger
}

func NewGate(repo Repository, grants GrantChecker, options Options, logger *slog.Logger) *Gate {
	return &Gate{
		repo:    repo,
		grants:  grants,
		options: options,
		logger:  logger,
	}
}

// activeUser returns nil for unknown or deactivated users.
func (g *Gate) activeUser(ctx context.Context, userID int64) (*userDatamodel.User, error) {
	u, err := g.repo.GetUser(ctx, userID)
	if err != nil {
		g.logger.Error("failed to load user for access check", "error", err, "user_id", userID)
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, nil
	}
	return u, nil
}

func (g *Gate) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	u, err := g.activeUser(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	return u.Role == userDatamodel.RoleAdmin, nil
}

func (g *Gate) CanAccessProject(ctx context.Context, userID, projectID int64) (bool, error) {
	u, err := g.activeUser(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	if u.Role == userDatamodel.RoleAdmin {
		return true, nil
	}
	return g.repo.IsAssigned(ctx, userID, projectID)
}

// CanWriteProject is CanAccessProject minus read-only viewers.
func (g *Gate) CanWriteProject(ctx context.Context, userID, projectID int64) (bool, error) {
	u, err := g.activeUser(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	switch u.Role {
	case userDatamodel.RoleAdmin:
		return true, nil
	case userDatamodel.RoleViewer:
		return false, nil
	}
	return g.repo.IsAssigned(ctx, userID, projectID)
}

// CanAccessTransaction denies non-admins on transactions without a project.
// An unknown transaction is denied for everyone but admins.
func (g *Gate) CanAccessTransaction(ctx context.Context, userID, transactionID int64) (bool, error) {
	u, err := g.activeUser(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	if u.Role == userDatamodel.RoleAdmin {
		return true, nil
	}

	projectID, found, err := g.repo.TransactionProjectID(ctx, transactionID)
	if err != nil {
		return false, err
	}
	if !found || projectID == nil {
		return false, nil
	}
	return g.repo.IsAssigned(ctx, userID, *projectID)
}

func (g *Gate) CanEditTransactions(ctx context.Context, userID int64, projectID *int64) (bool, error) {
	u, err := g.activeUser(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	if u.Role == userDatamodel.RoleAdmin {
		return true, nil
	}
	return g.grants.HasActiveGrant(ctx, userID, projectID)
}

func (g *Gate) CanGrantEditPermissions(ctx context.Context, userID int64) (bool, error) {
	u, err := g.activeUser(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	switch u.Role {
	case userDatamodel.RoleAdmin:
		return true, nil
	case userDatamodel.RoleManager:
		return g.options.ManagersCanGrantEdit, nil
	}
	return false, nil
}

// CanManageAssignments lets admins staff any project and managers staff the
// projects they are assigned to.
func (g *Gate) CanManageAssignments(ctx context.Context, userID, projectID int64) (bool, error) {
	u, err := g.activeUser(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	switch u.Role {
	case userDatamodel.RoleAdmin:
		return true, nil
	case userDatamodel.RoleManager:
		return g.repo.IsAssigned(ctx, userID, projectID)
	}
	return false, nil
}

// AccessibleProjectIDs returns all=true for admins, otherwise the assigned
// project ids.
func (g *Gate) AccessibleProjectIDs(ctx context.Context, userID int64) (ids []int64, all bool, err error) {
	u, err := g.activeUser(ctx, userID)
	if err != nil || u == nil {
		return nil, false, err
	}
	if u.Role == userDatamodel.RoleAdmin {
		return nil, true, nil
	}
	ids, err = g.repo.AssignedProjectIDs(ctx, userID)
	return ids, false, err
}
