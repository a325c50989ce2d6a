package asset

import (
	"regexp"
	"strings"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/entity"
)

// EntityName is used in errors and logs.
const EntityName = "asset"

// DefaultVersion is applied when no version is given.
const DefaultVersion = "1.0.0"

// Type represents the kind of offering.
type Type string

const (
	TypeDataset Type = "DATASET"
	TypeService Type = "SERVICE"
)

// Status represents asset publication status.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusPublished  Status = "PUBLISHED"
	StatusDeprecated Status = "DEPRECATED"
	StatusArchived   Status = "ARCHIVED"
)

// Asset describes a dataset or service offered in the dataspace.
type Asset struct {
	entity.Base
	ExternalID    string  `json:"externalId"`
	ParticipantID string  `json:"participantId"`
	AssetType     Type    `json:"assetType"`
	Title         string  `json:"title"`
	Description   *string `json:"description,omitempty"`
	Version       string  `json:"version"`
	Status        Status  `json:"status"`
}

// Props are the caller-supplied fields of an asset.
type Props struct {
	ExternalID    string
	ParticipantID string
	AssetType     Type
	Title         string
	Description   *string
	Version       string
	Status        Status
}

// New creates an asset, applying the default version and status.
func New(p Props) *Asset {
	a := &Asset{
		Base:          entity.NewBase(),
		ExternalID:    p.ExternalID,
		ParticipantID: p.ParticipantID,
		AssetType:     p.AssetType,
		Title:         p.Title,
		Description:   cloneString(p.Description),
		Version:       p.Version,
		Status:        p.Status,
	}
	if a.Version == "" {
		a.Version = DefaultVersion
	}
	if a.Status == "" {
		a.Status = StatusDraft
	}
	return a
}

// Clone returns a deep copy.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	c := *a
	c.Description = cloneString(a.Description)
	return &c
}

// DescriptionOrEmpty returns the description or "".
func (a *Asset) DescriptionOrEmpty() string {
	if a.Description == nil {
		return ""
	}
	return *a.Description
}

var semverPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)

// Validate checks required fields and enum values.
func Validate(a *Asset) error {
	var violations []apperr.Violation
	if strings.TrimSpace(a.ExternalID) == "" {
		violations = append(violations, apperr.Violation{Path: "/externalId", Description: "required"})
	}
	if strings.TrimSpace(a.ParticipantID) == "" {
		violations = append(violations, apperr.Violation{Path: "/participantId", Description: "required"})
	}
	if strings.TrimSpace(a.Title) == "" {
		violations = append(violations, apperr.Violation{Path: "/title", Description: "required"})
	}
	if err := ValidateType(a.AssetType); err != nil {
		violations = append(violations, apperr.Violation{Path: "/assetType", Description: err.Error()})
	}
	if err := ValidateStatus(a.Status); err != nil {
		violations = append(violations, apperr.Violation{Path: "/status", Description: err.Error()})
	}
	if !semverPattern.MatchString(a.Version) {
		violations = append(violations, apperr.Violation{Path: "/version", Description: "must be a semantic version"})
	}
	if len(violations) > 0 {
		return apperr.ValidationFailed("invalid asset", violations...)
	}
	return nil
}

func ValidateType(t Type) error {
	switch t {
	case TypeDataset, TypeService:
		return nil
	default:
		return apperr.ValidationFailed("asset type must be DATASET or SERVICE")
	}
}

func ValidateStatus(s Status) error {
	switch s {
	case StatusDraft, StatusPublished, StatusDeprecated, StatusArchived:
		return nil
	default:
		return apperr.ValidationFailed("asset status must be DRAFT, PUBLISHED, DEPRECATED or ARCHIVED")
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
