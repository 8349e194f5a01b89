package service

// Actor the authenticated caller of a service operation
type Actor struct {
	UserID      string
	Username    string
	IsSuperuser bool
}

// Capability an elevated privilege
type Capability string

const (
	CapCatalogAdmin Capability = "catalog_admin" // manage descent types and rituals
	CapViewStats    Capability = "view_stats"    // admin dashboard, bulk listings, exports
	CapUserAdmin    Capability = "user_admin"    // list, edit and delete accounts
)

// Authorizer decides whether an actor holds a capability.
// Require returns ErrPermissionDenied when it does not.
type Authorizer interface {
	Require(actor Actor, capability Capability) error
}

type superuserPolicy struct{}

// NewSuperuserPolicy grants every capability to superusers and none to anyone else
func NewSuperuserPolicy() Authorizer {
	return superuserPolicy{}
}

func (superuserPolicy) Require(actor Actor, capability Capability) error {
	if actor.UserID == "" || !actor.IsSuperuser {
		return ErrPermissionDenied
	}
	switch capability {
	case CapCatalogAdmin, CapViewStats, CapUserAdmin:
		return nil
	}
	return ErrPermissionDenied
}
