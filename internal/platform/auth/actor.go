package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

type ActorKind int

const (
	ActorUser ActorKind = iota
	ActorApplication
)

type Role string

const (
	RoleEnroller             Role = "enroller"
	RolePublicHealth         Role = "public_health"
	RolePublicHealthEnroller Role = "public_health_enroller"
	RoleContactTracer        Role = "contact_tracer"
	RoleSuperUser            Role = "super_user"
	RoleAdmin                Role = "admin"
	RoleAnalyst              Role = "analyst"
)

// Actor is the identity a FHIR request acts as. For client applications
// UserID is the application's proxy user.
type Actor struct {
	Kind           ActorKind
	UserID         int64
	ApplicationID  int64
	JurisdictionID int64
	Role           Role
	// Label names the actor in audit records.
	Label string
	// Subtree is the actor's jurisdiction and all of its descendants.
	Subtree []int64
}

// PatientScope restricts queries to the patients an actor may see. An
// empty JurisdictionIDs matches nothing.
type PatientScope struct {
	JurisdictionIDs []int64
	CreatorID       *int64
}

func (a *Actor) PatientScope() PatientScope {
	if a.Kind == ActorApplication {
		return PatientScope{JurisdictionIDs: a.Subtree}
	}
	switch a.Role {
	case RoleEnroller:
		id := a.UserID
		return PatientScope{JurisdictionIDs: a.Subtree, CreatorID: &id}
	case RolePublicHealth, RolePublicHealthEnroller, RoleContactTracer, RoleSuperUser:
		return PatientScope{JurisdictionIDs: a.Subtree}
	}
	return PatientScope{}
}

// InSubtree reports whether jurisdictionID is the actor's jurisdiction or
// one of its descendants.
func (a *Actor) InSubtree(jurisdictionID int64) bool {
	for _, id := range a.Subtree {
		if id == jurisdictionID {
			return true
		}
	}
	return false
}

type User struct {
	ID             int64
	Email          string
	Role           Role
	JurisdictionID int64
	APIEnabled     bool
	Locked         bool
}

type Application struct {
	ID             int64
	UID            string
	Name           string
	JurisdictionID *int64
	UserID         *int64
}

// ActorStore loads the identities a token can refer to. Lookups that find
// nothing return ErrUnauthorized.
type ActorStore interface {
	UserByID(ctx context.Context, id int64) (*User, error)
	ApplicationByUID(ctx context.Context, uid string) (*Application, error)
}

// SubtreeLoader returns a jurisdiction and all of its descendants.
type SubtreeLoader interface {
	Subtree(ctx context.Context, jurisdictionID int64) ([]int64, error)
}

type Resolver struct {
	store ActorStore
	tree  SubtreeLoader
}

func NewResolver(store ActorStore, tree SubtreeLoader) *Resolver {
	return &Resolver{store: store, tree: tree}
}

// Resolve maps a verified token to an Actor. Tokens with a resource owner
// act as that user; client-credentials tokens act as the application's
// proxy user within the application's jurisdiction.
func (r *Resolver) Resolve(ctx context.Context, tok *Token) (*Actor, error) {
	if tok.Subject != "" {
		return r.resolveUser(ctx, tok.Subject)
	}
	return r.resolveApplication(ctx, tok.ClientID)
}

func (r *Resolver) resolveUser(ctx context.Context, subject string) (*Actor, error) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject %q", ErrUnauthorized, subject)
	}
	u, err := r.store.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Locked {
		return nil, fmt.Errorf("%w: user %d is locked", ErrUnauthorized, id)
	}
	if !u.APIEnabled {
		return nil, ErrAPIDisabled
	}
	subtree, err := r.tree.Subtree(ctx, u.JurisdictionID)
	if err != nil {
		return nil, fmt.Errorf("load jurisdiction subtree: %w", err)
	}
	return &Actor{
		Kind:           ActorUser,
		UserID:         u.ID,
		JurisdictionID: u.JurisdictionID,
		Role:           u.Role,
		Label:          u.Email,
		Subtree:        subtree,
	}, nil
}

func (r *Resolver) resolveApplication(ctx context.Context, clientID string) (*Actor, error) {
	app, err := r.store.ApplicationByUID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if app.UserID == nil {
		return nil, ErrNoProxyUser
	}
	proxy, err := r.store.UserByID(ctx, *app.UserID)
	if errors.Is(err, ErrUnauthorized) {
		return nil, ErrNoProxyUser
	}
	if err != nil {
		return nil, err
	}

	jurisdictionID := proxy.JurisdictionID
	if app.JurisdictionID != nil {
		jurisdictionID = *app.JurisdictionID
	}
	subtree, err := r.tree.Subtree(ctx, jurisdictionID)
	if err != nil {
		return nil, fmt.Errorf("load jurisdiction subtree: %w", err)
	}
	return &Actor{
		Kind:           ActorApplication,
		UserID:         proxy.ID,
		ApplicationID:  app.ID,
		JurisdictionID: jurisdictionID,
		Role:           proxy.Role,
		Label:          app.Name + " (API)",
		Subtree:        subtree,
	}, nil
}
