// Package authz decides who may read or change templates, form responses
// and accounts.
package authz

import (
	"context"
	"errors"

	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"
	"Backend-Forms-Builder/src/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OperationClass int

const (
	ReadPublic OperationClass = iota
	ReadPrivate
	MutateOwn
	// MutateAny covers the admin-only account operations.
	MutateAny
)

type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
	DenyNotFound
)

// Facts is everything Decide looks at.
type Facts struct {
	Authenticated  bool
	ResourceExists bool
	IsCreator      bool
	IsAllowedUser  bool
	IsOwner        bool
	IsAdmin        bool
}

// Decide is total over (class, facts). A missing resource is reported as not
// found before any permission check so 404 and 403 never overlap.
func Decide(class OperationClass, f Facts) Decision {
	if class == MutateAny {
		switch {
		case !f.Authenticated:
			return DenyUnauthenticated
		case f.IsAdmin:
			return Allow
		default:
			return DenyForbidden
		}
	}

	if !f.ResourceExists {
		return DenyNotFound
	}

	switch class {
	case ReadPublic:
		return Allow
	case ReadPrivate:
		if f.Authenticated && (f.IsCreator || f.IsAllowedUser || f.IsAdmin) {
			return Allow
		}
		return DenyForbidden
	case MutateOwn:
		if !f.Authenticated {
			return DenyUnauthenticated
		}
		if f.IsCreator || f.IsOwner || f.IsAdmin {
			return Allow
		}
		return DenyForbidden
	}
	return DenyForbidden
}

// Err converts a decision into the error returned to the caller; Allow is nil.
func (d Decision) Err(resource, forbidden string) error {
	switch d {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return utils.NewUnauthenticatedError("Unauthorized")
	case DenyNotFound:
		return utils.NewNotFoundError(resource + " not found")
	default:
		return utils.NewForbiddenError(forbidden)
	}
}

// UserLookup loads the current state of an account.
type UserLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Gate applies Decide with live privilege: the role in a token claim is
// never trusted, admin rights are read from the users collection at the
// moment they would change the outcome.
type Gate struct {
	users UserLookup
}

func NewGate(users UserLookup) *Gate {
	return &Gate{users: users}
}

// Caller binds a principal (nil when anonymous) to the gate for one request.
// The live admin lookup happens at most once per Caller.
func (g *Gate) Caller(p *models.Principal) *Caller {
	return &Caller{gate: g, principal: p}
}

type Caller struct {
	gate        *Gate
	principal   *models.Principal
	adminLoaded bool
	admin       bool
}

func (c *Caller) Principal() *models.Principal { return c.principal }

func (c *Caller) Authenticated() bool { return c.principal != nil }

// IsAdmin reports whether the caller is, right now, an active admin.
func (c *Caller) IsAdmin(ctx context.Context) (bool, error) {
	if c.principal == nil {
		return false, nil
	}
	if c.adminLoaded {
		return c.admin, nil
	}

	user, err := c.gate.users.FindByID(ctx, c.principal.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.admin = false
	case err != nil:
		return false, utils.NewInternalError("Error checking permissions", err)
	default:
		c.admin = user.IsAdmin() && !user.IsBlocked()
	}
	c.adminLoaded = true
	return c.admin, nil
}

// decide runs Decide without admin rights first and only consults the live
// role when that would turn a 403 into an allow.
func (c *Caller) decide(ctx context.Context, class OperationClass, f Facts) (Decision, error) {
	f.Authenticated = c.principal != nil
	f.IsAdmin = false
	d := Decide(class, f)
	if d != DenyForbidden || c.principal == nil {
		return d, nil
	}

	admin, err := c.IsAdmin(ctx)
	if err != nil {
		return d, err
	}
	if admin {
		f.IsAdmin = true
		d = Decide(class, f)
	}
	return d, nil
}

func templateFacts(p *models.Principal, t *models.Template) Facts {
	o := ResolveTemplateOwnership(p, t)
	return Facts{
		ResourceExists: t != nil,
		IsCreator:      o.IsCreator,
		IsAllowedUser:  o.IsAllowedUser,
	}
}

// CanReadTemplate allows the read and reports whether the caller would be
// refused a mutation, which every anonymous caller is.
func (c *Caller) CanReadTemplate(ctx context.Context, t *models.Template) (readOnly bool, err error) {
	class := ReadPrivate
	if t != nil && t.IsPublic {
		class = ReadPublic
	}
	d, err := c.decide(ctx, class, templateFacts(c.principal, t))
	if err != nil {
		return true, err
	}
	if err := d.Err("Template", "You do not have permission to view this template"); err != nil {
		return true, err
	}

	if c.principal == nil {
		return true, nil
	}
	if t.CreatedBy == c.principal.ID {
		return false, nil
	}
	admin, err := c.IsAdmin(ctx)
	if err != nil {
		return true, err
	}
	return !admin, nil
}

func (c *Caller) CanMutateTemplate(ctx context.Context, t *models.Template) error {
	d, err := c.decide(ctx, MutateOwn, templateFacts(c.principal, t))
	if err != nil {
		return err
	}
	return d.Err("Template", "You do not have permission to edit this template")
}

func (c *Caller) CanMutateForm(ctx context.Context, f *models.FormResponse) error {
	o := ResolveFormOwnership(c.principal, f)
	d, err := c.decide(ctx, MutateOwn, Facts{ResourceExists: f != nil, IsOwner: o.IsOwner})
	if err != nil {
		return err
	}
	return d.Err("Form response", "You do not have permission to access this form response")
}

func (c *Caller) RequireAdmin(ctx context.Context) error {
	d, err := c.decide(ctx, MutateAny, Facts{})
	if err != nil {
		return err
	}
	return d.Err("User", "Admin privileges required")
}
