// Package policy decides who may read or mutate work tickets and rollups.
//
// Every read and write in the service layer passes through Policy, so role
// checks live here and nowhere else.
package policy

import (
	"context"

	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/repository"
)

// Policy is the capability check consumed by the services.
type Policy interface {
	CanView(ctx context.Context, actorID string, ticket *domain.WorkTicket) bool
	CanDecide(ctx context.Context, actorID string, ticket *domain.WorkTicket) bool
	CanCreateFor(ctx context.Context, actorID, employeeID string) bool
	CanViewEmployee(ctx context.Context, actorID, employeeID string) bool
	CanViewTeam(ctx context.Context, actorID, managerID string) bool
}

// AccessPolicy resolves actors and owners through the employee directory.
// Unknown actors or owners are denied.
type AccessPolicy struct {
	directory repository.EmployeeDirectory
}

// NewAccessPolicy builds the policy.
func NewAccessPolicy(directory repository.EmployeeDirectory) *AccessPolicy {
	return &AccessPolicy{directory: directory}
}

func (p *AccessPolicy) CanView(ctx context.Context, actorID string, ticket *domain.WorkTicket) bool {
	if ticket == nil {
		return false
	}
	return p.CanViewEmployee(ctx, actorID, ticket.EmployeeID)
}

func (p *AccessPolicy) CanDecide(ctx context.Context, actorID string, ticket *domain.WorkTicket) bool {
	if ticket == nil || actorID == ticket.EmployeeID {
		return false
	}
	actor, owner, ok := p.resolvePair(ctx, actorID, ticket.EmployeeID)
	return ok && MayDecide(actor, owner)
}

func (p *AccessPolicy) CanCreateFor(ctx context.Context, actorID, employeeID string) bool {
	actor, owner, ok := p.resolvePair(ctx, actorID, employeeID)
	return ok && MayCreateFor(actor, owner)
}

func (p *AccessPolicy) CanViewEmployee(ctx context.Context, actorID, employeeID string) bool {
	actor, owner, ok := p.resolvePair(ctx, actorID, employeeID)
	return ok && MayView(actor, owner)
}

func (p *AccessPolicy) CanViewTeam(ctx context.Context, actorID, managerID string) bool {
	actor, manager, ok := p.resolvePair(ctx, actorID, managerID)
	return ok && MayViewTeam(actor, manager)
}

func (p *AccessPolicy) resolvePair(ctx context.Context, actorID, subjectID string) (*domain.Employee, *domain.Employee, bool) {
	if actorID == "" || subjectID == "" {
		return nil, nil, false
	}
	actor, err := p.directory.GetByID(ctx, actorID)
	if err != nil {
		return nil, nil, false
	}
	if actorID == subjectID {
		return actor, actor, true
	}
	subject, err := p.directory.GetByID(ctx, subjectID)
	if err != nil {
		return nil, nil, false
	}
	return actor, subject, true
}

// MayView: the owner, the manager supervising the owner's department, or an admin.
func MayView(actor, owner *domain.Employee) bool {
	if actor == nil || owner == nil {
		return false
	}
	return actor.ID == owner.ID || actor.Supervises(owner.Department) || actor.Role == domain.RoleAdmin
}

// MayDecide: an active supervising manager or admin who is not the owner.
// Self-decision is refused for every role.
func MayDecide(actor, owner *domain.Employee) bool {
	if actor == nil || owner == nil || actor.ID == owner.ID || !actor.Active {
		return false
	}
	return actor.Supervises(owner.Department) || actor.Role == domain.RoleAdmin
}

// MayCreateFor: an active employee for themself, or an active admin for anyone.
func MayCreateFor(actor, owner *domain.Employee) bool {
	if actor == nil || owner == nil || !actor.Active {
		return false
	}
	return actor.ID == owner.ID || actor.Role == domain.RoleAdmin
}

// MayViewTeam: the manager themself or an admin, and the subject must be a manager.
func MayViewTeam(actor, manager *domain.Employee) bool {
	if actor == nil || manager == nil || manager.Role != domain.RoleManager {
		return false
	}
	return actor.ID == manager.ID || actor.Role == domain.RoleAdmin
}
