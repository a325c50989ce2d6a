package participant

import (
	"strings"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/entity"
)

// EntityName is used in errors and logs.
const EntityName = "participant"

// Role represents a participant's dataspace role.
type Role string

const (
	RoleDataProvider    Role = "DataProvider"
	RoleDataConsumer    Role = "DataConsumer"
	RoleServiceProvider Role = "ServiceProvider"
)

// Status represents participant membership status.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusRevoked   Status = "REVOKED"
)

// Address is an optional postal address.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Participant is a member of the dataspace.
type Participant struct {
	entity.Base
	DID         string   `json:"did"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	HomepageURL *string  `json:"homepageUrl,omitempty"`
	Roles       []Role   `json:"roles"`
	Status      Status   `json:"status"`
	Address     *Address `json:"address,omitempty"`
	TrustLevel  int      `json:"trustLevel"`
}

// Props are the caller-supplied fields of a participant.
type Props struct {
	DID         string
	Name        string
	Description *string
	HomepageURL *string
	Roles       []Role
	Status      Status
	Address     *Address
	TrustLevel  int
}

// New creates a participant. Status defaults to ACTIVE.
func New(p Props) *Participant {
	pt := &Participant{
		Base:        entity.NewBase(),
		DID:         p.DID,
		Name:        p.Name,
		Description: cloneString(p.Description),
		HomepageURL: cloneString(p.HomepageURL),
		Roles:       cloneRoles(p.Roles),
		Status:      p.Status,
		Address:     cloneAddress(p.Address),
		TrustLevel:  p.TrustLevel,
	}
	if pt.Status == "" {
		pt.Status = StatusActive
	}
	return pt
}

// Clone returns a deep copy.
func (p *Participant) Clone() *Participant {
	if p == nil {
		return nil
	}
	c := *p
	c.Description = cloneString(p.Description)
	c.HomepageURL = cloneString(p.HomepageURL)
	c.Roles = cloneRoles(p.Roles)
	c.Address = cloneAddress(p.Address)
	return &c
}

func (p *Participant) IsActive() bool {
	return p.Status == StatusActive
}

// HasRole reports whether the participant holds role.
func (p *Participant) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Validate checks required fields and enum values.
func Validate(p *Participant) error {
	var violations []apperr.Violation
	if !strings.HasPrefix(p.DID, "did:") || len(p.DID) <= len("did:") {
		violations = append(violations, apperr.Violation{Path: "/did", Description: "must be a decentralized identifier (did:...)"})
	}
	if strings.TrimSpace(p.Name) == "" {
		violations = append(violations, apperr.Violation{Path: "/name", Description: "required"})
	}
	for _, r := range p.Roles {
		if err := ValidateRole(r); err != nil {
			violations = append(violations, apperr.Violation{Path: "/roles", Description: err.Error()})
			break
		}
	}
	if err := ValidateStatus(p.Status); err != nil {
		violations = append(violations, apperr.Violation{Path: "/status", Description: err.Error()})
	}
	if p.TrustLevel < 0 {
		violations = append(violations, apperr.Violation{Path: "/trustLevel", Description: "must not be negative"})
	}
	if len(violations) > 0 {
		return apperr.ValidationFailed("invalid participant", violations...)
	}
	return nil
}

func ValidateRole(r Role) error {
	switch r {
	case RoleDataProvider, RoleDataConsumer, RoleServiceProvider:
		return nil
	default:
		return apperr.ValidationFailed("unknown role " + string(r))
	}
}

func ValidateStatus(s Status) error {
	switch s {
	case StatusActive, StatusSuspended, StatusRevoked:
		return nil
	default:
		return apperr.ValidationFailed("participant status must be ACTIVE, SUSPENDED or REVOKED")
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneRoles(roles []Role) []Role {
	if roles == nil {
		return []Role{}
	}
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

func cloneAddress(a *Address) *Address {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
