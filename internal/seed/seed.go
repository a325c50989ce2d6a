// Package seed loads participants and assets from a YAML document.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dataspace-connector/connector/internal/domain/asset"
	"github.com/dataspace-connector/connector/internal/domain/participant"
)

// Document is the seed file layout.
type Document struct {
	Participants []Participant `yaml:"participants"`
	Assets       []Asset       `yaml:"assets"`
}

type Participant struct {
	DID         string               `yaml:"did"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	HomepageURL string               `yaml:"homepageUrl"`
	Roles       []participant.Role   `yaml:"roles"`
	Status      participant.Status   `yaml:"status"`
	TrustLevel  int                  `yaml:"trustLevel"`
	Address     *participant.Address `yaml:"address"`
}

// Asset refers to its owner by DID.
type Asset struct {
	ExternalID  string       `yaml:"externalId"`
	Owner       string       `yaml:"owner"`
	AssetType   asset.Type   `yaml:"assetType"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Version     string       `yaml:"version"`
	Status      asset.Status `yaml:"status"`
}

// Participants is the participant registry used while seeding.
type Participants interface {
	FindByDID(ctx context.Context, did string) (*participant.Participant, error)
	Create(ctx context.Context, props participant.Props) (*participant.Participant, error)
}

// Assets is the asset registry used while seeding.
type Assets interface {
	ListByParticipant(ctx context.Context, participantID string) ([]*asset.Asset, error)
	Create(ctx context.Context, props asset.Props) (*asset.Asset, error)
}

// Result counts what Apply wrote.
type Result struct {
	ParticipantsCreated int
	ParticipantsSkipped int
	AssetsCreated       int
	AssetsSkipped       int
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &doc, nil
}

// ParseFile reads and decodes the seed document at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Apply creates the document's participants and assets. Participants are
// matched by DID and assets by owner and external id, so applying the
// same document twice writes nothing the second time.
func Apply(ctx context.Context, doc *Document, participants Participants, assets Assets, logger zerolog.Logger) (Result, error) {
	var res Result
	owners := make(map[string]string, len(doc.Participants))

	for _, p := range doc.Participants {
		existing, err := participants.FindByDID(ctx, p.DID)
		if err != nil {
			return res, err
		}
		if existing != nil {
			owners[p.DID] = existing.ID
			res.ParticipantsSkipped++
			continue
		}
		created, err := participants.Create(ctx, participant.Props{
			DID:         p.DID,
			Name:        p.Name,
			Description: optional(p.Description),
			HomepageURL: optional(p.HomepageURL),
			Roles:       p.Roles,
			Status:      p.Status,
			Address:     p.Address,
			TrustLevel:  p.TrustLevel,
		})
		if err != nil {
			return res, fmt.Errorf("participant %s: %w", p.DID, err)
		}
		owners[p.DID] = created.ID
		res.ParticipantsCreated++
		logger.Debug().Str("did", p.DID).Msg("seeded participant")
	}

	for _, a := range doc.Assets {
		ownerID, ok := owners[a.Owner]
		if !ok {
			existing, err := participants.FindByDID(ctx, a.Owner)
			if err != nil {
				return res, err
			}
			if existing == nil {
				return res, fmt.Errorf("asset %s: unknown owner %s", a.ExternalID, a.Owner)
			}
			ownerID = existing.ID
			owners[a.Owner] = ownerID
		}
		owned, err := assets.ListByParticipant(ctx, ownerID)
		if err != nil {
			return res, err
		}
		if hasExternalID(owned, a.ExternalID) {
			res.AssetsSkipped++
			continue
		}
		if _, err := assets.Create(ctx, asset.Props{
			ExternalID:    a.ExternalID,
			ParticipantID: ownerID,
			AssetType:     a.AssetType,
			Title:         a.Title,
			Description:   optional(a.Description),
			Version:       a.Version,
			Status:        a.Status,
		}); err != nil {
			return res, fmt.Errorf("asset %s: %w", a.ExternalID, err)
		}
		res.AssetsCreated++
		logger.Debug().Str("external_id", a.ExternalID).Msg("seeded asset")
	}

	logger.Info().
		Int("participants_created", res.ParticipantsCreated).
		Int("assets_created", res.AssetsCreated).
		Int("skipped", res.ParticipantsSkipped+res.AssetsSkipped).
		Msg("seed applied")
	return res, nil
}

func hasExternalID(assets []*asset.Asset, externalID string) bool {
	for _, a := range assets {
		if a.ExternalID == externalID {
			return true
		}
	}
	return false
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
