package models

import "time"

// Roles known to the directory. Only the elevated ones matter to the chat subsystem.
const (
	RoleSuperAdmin  = "super-admin"
	RoleAdmin       = "admin"
	RoleResponsable = "responsable"
	RoleUser        = "utilisateur"
)

// IsElevatedRole reports whether role grants participant management by default.
func IsElevatedRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleResponsable:
		return true
	}
	return false
}

// Permissions are the per-participant capability flags.
type Permissions struct {
	CanAddParticipants    bool `bson:"canAddParticipants" json:"canAddParticipants"`
	CanRemoveParticipants bool `bson:"canRemoveParticipants" json:"canRemoveParticipants"`
	CanSendMessages       bool `bson:"canSendMessages" json:"canSendMessages"`
}

// DefaultPermissions derives the add-time defaults from the snapshotted role.
func DefaultPermissions(role string) Permissions {
	elevated := IsElevatedRole(role)
	return Permissions{
		CanAddParticipants:    elevated,
		CanRemoveParticipants: elevated,
		CanSendMessages:       true,
	}
}

// PermissionsPatch is a partial permissions update; nil fields are left untouched.
type PermissionsPatch struct {
	CanAddParticipants    *bool `json:"canAddParticipants,omitempty"`
	CanRemoveParticipants *bool `json:"canRemoveParticipants,omitempty"`
	CanSendMessages       *bool `json:"canSendMessages,omitempty"`
}

// Empty reports whether the patch sets no field.
func (p PermissionsPatch) Empty() bool {
	return p.CanAddParticipants == nil && p.CanRemoveParticipants == nil && p.CanSendMessages == nil
}

// Apply merges the patch into perms field by field.
func (p PermissionsPatch) Apply(perms Permissions) Permissions {
	if p.CanAddParticipants != nil {
		perms.CanAddParticipants = *p.CanAddParticipants
	}
	if p.CanRemoveParticipants != nil {
		perms.CanRemoveParticipants = *p.CanRemoveParticipants
	}
	if p.CanSendMessages != nil {
		perms.CanSendMessages = *p.CanSendMessages
	}
	return perms
}

// Participant is embedded in the chat document.
type Participant struct {
	User string `bson:"user" json:"user"`
	// Role is a snapshot of the user's directory role taken when the participant
	// was added. It is never resynchronized with the directory.
	Role        string      `bson:"role" json:"role"`
	JoinedAt    time.Time   `bson:"joinedAt" json:"joinedAt"`
	AddedBy     string      `bson:"addedBy" json:"addedBy"`
	Permissions Permissions `bson:"permissions" json:"permissions"`
}

// Elevated reports whether the snapshotted role is elevated.
func (p *Participant) Elevated() bool {
	return IsElevatedRole(p.Role)
}
