// Package catalog renders the published assets as a DCAT catalog.
package catalog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dataspace-connector/connector/internal/domain/asset"
)

const (
	DefaultTitle = "Connector Catalog"
	CatalogID    = "urn:connector:catalog"
	dcatContext  = "https://www.w3.org/ns/dcat2"
	dcatProfile  = "https://www.w3.org/TR/vocab-dcat-2/"
)

// Catalog is a DCAT catalog in JSON-LD form.
type Catalog struct {
	Context     string        `json:"@context"`
	Type        string        `json:"@type"`
	ID          string        `json:"@id"`
	Title       string        `json:"dct:title"`
	Description string        `json:"dct:description"`
	ConformsTo  string        `json:"dct:conformsTo"`
	Datasets    []Dataset     `json:"dcat:dataset"`
	Services    []DataService `json:"dcat:service"`
}

type Dataset struct {
	Type        string `json:"@type"`
	ID          string `json:"@id"`
	Identifier  string `json:"dct:identifier"`
	Title       string `json:"dct:title"`
	Description string `json:"dct:description"`
	Version     string `json:"dcat:version"`
	Publisher   string `json:"dct:publisher"`
}

type DataService struct {
	Type        string `json:"@type"`
	ID          string `json:"@id"`
	Title       string `json:"dct:title"`
	Description string `json:"dct:description"`
	EndpointURL string `json:"dcat:endpointURL"`
	Version     string `json:"dcat:version"`
	Publisher   string `json:"dct:publisher"`
}

// Service builds the catalog from the asset repository.
type Service struct {
	assets asset.Repository
	title  string
	logger zerolog.Logger
}

func NewService(assets asset.Repository, title string, logger zerolog.Logger) *Service {
	if title == "" {
		title = DefaultTitle
	}
	return &Service{
		assets: assets,
		title:  title,
		logger: logger.With().Str("service", "catalog").Logger(),
	}
}

// Catalog lists every asset that is not archived.
func (s *Service) Catalog(ctx context.Context) (*Catalog, error) {
	all, err := s.assets.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	c := &Catalog{
		Context:     dcatContext,
		Type:        "dcat:Catalog",
		ID:          CatalogID,
		Title:       s.title,
		Description: "Available assets and services",
		ConformsTo:  dcatProfile,
		Datasets:    []Dataset{},
		Services:    []DataService{},
	}
	for _, a := range all {
		if a.Status == asset.StatusArchived {
			continue
		}
		switch a.AssetType {
		case asset.TypeDataset:
			c.Datasets = append(c.Datasets, Dataset{
				Type:        "dcat:Dataset",
				ID:          a.ID,
				Identifier:  a.ExternalID,
				Title:       a.Title,
				Description: a.DescriptionOrEmpty(),
				Version:     a.Version,
				Publisher:   a.ParticipantID,
			})
		case asset.TypeService:
			c.Services = append(c.Services, DataService{
				Type:        "dcat:DataService",
				ID:          a.ID,
				Title:       a.Title,
				Description: a.DescriptionOrEmpty(),
				EndpointURL: a.ExternalID,
				Version:     a.Version,
				Publisher:   a.ParticipantID,
			})
		default:
			s.logger.Warn().Str("asset_id", a.ID).Str("asset_type", string(a.AssetType)).Msg("skipping asset with unknown type")
		}
	}
	return c, nil
}
