package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dataspace-connector/connector/internal/domain/asset"
	"github.com/dataspace-connector/connector/internal/domain/asset/mocks"
)

func TestService_Catalog(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	desc := "hourly readings"
	dataset := asset.New(asset.Props{ExternalID: "urn:weather", ParticipantID: "p1", AssetType: asset.TypeDataset, Title: "Weather", Description: &desc})
	svc := asset.New(asset.Props{ExternalID: "https://api.example/forecast", ParticipantID: "p1", AssetType: asset.TypeService, Title: "Forecast"})
	archived := asset.New(asset.Props{ExternalID: "urn:old", ParticipantID: "p1", AssetType: asset.TypeDataset, Title: "Old", Status: asset.StatusArchived})
	repo.EXPECT().FindAll(gomock.Any()).Return([]*asset.Asset{dataset, svc, archived}, nil)

	c, err := NewService(repo, "", zerolog.Nop()).Catalog(context.Background())

	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, c.Title)
	require.Len(t, c.Datasets, 1)
	assert.Equal(t, dataset.ID, c.Datasets[0].ID)
	assert.Equal(t, "hourly readings", c.Datasets[0].Description)
	require.Len(t, c.Services, 1)
	assert.Equal(t, "https://api.example/forecast", c.Services[0].EndpointURL)
}

func TestService_CatalogJSONLD(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().FindAll(gomock.Any()).Return(nil, nil)

	c, err := NewService(repo, "Acme", zerolog.Nop()).Catalog(context.Background())
	require.NoError(t, err)
	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "dcat:Catalog", doc["@type"])
	assert.Equal(t, "Acme", doc["dct:title"])
	assert.Equal(t, []interface{}{}, doc["dcat:dataset"])
	assert.Equal(t, []interface{}{}, doc["dcat:service"])
}
