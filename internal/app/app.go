// Package app assembles the connector from its configuration.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	httpapi "github.com/dataspace-connector/connector/internal/api/http"
	"github.com/dataspace-connector/connector/internal/application/admission"
	appAgreement "github.com/dataspace-connector/connector/internal/application/agreement"
	appAsset "github.com/dataspace-connector/connector/internal/application/asset"
	appCatalog "github.com/dataspace-connector/connector/internal/application/catalog"
	appNegotiation "github.com/dataspace-connector/connector/internal/application/negotiation"
	appParticipant "github.com/dataspace-connector/connector/internal/application/participant"
	"github.com/dataspace-connector/connector/internal/application/protocol"
	"github.com/dataspace-connector/connector/internal/config"
	"github.com/dataspace-connector/connector/internal/domain/agreement"
	"github.com/dataspace-connector/connector/internal/domain/asset"
	"github.com/dataspace-connector/connector/internal/domain/negotiation"
	"github.com/dataspace-connector/connector/internal/domain/participant"
	"github.com/dataspace-connector/connector/internal/dsp"
	"github.com/dataspace-connector/connector/internal/infrastructure/memory"
	"github.com/dataspace-connector/connector/internal/infrastructure/postgres"
	"github.com/dataspace-connector/connector/internal/infrastructure/sse"
	"github.com/dataspace-connector/connector/internal/migrations"
	"github.com/dataspace-connector/connector/internal/seed"
)

// Repositories is one storage backend.
type Repositories struct {
	Negotiations negotiation.Repository
	Agreements   agreement.Repository
	Assets       asset.Repository
	Participants participant.Repository
	close        func()
}

// Close releases the backend's resources.
func (r *Repositories) Close() {
	if r.close != nil {
		r.close()
	}
}

// OpenRepositories opens the backend named by cfg.Store. The postgres
// backend is migrated first when cfg.RunMigrations is set.
func OpenRepositories(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Repositories, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return &Repositories{
			Negotiations: memory.NewNegotiationRepository(),
			Agreements:   memory.NewAgreementRepository(),
			Assets:       memory.NewAssetRepository(),
			Participants: memory.NewParticipantRepository(),
		}, nil
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(ctx, pool, migrations.Files); err != nil {
				pool.Close()
				return nil, err
			}
			logger.Info().Msg("migrations applied")
		}
		return &Repositories{
			Negotiations: postgres.NewNegotiationRepository(pool),
			Agreements:   postgres.NewAgreementRepository(pool),
			Assets:       postgres.NewAssetRepository(pool),
			Participants: postgres.NewParticipantRepository(pool),
			close:        pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// App holds the wired services of a running connector.
type App struct {
	Repos        *Repositories
	Hub          *sse.Hub
	Participants *appParticipant.Service
	Assets       *appAsset.Service
	Negotiations *appNegotiation.Service
	Agreements   *appAgreement.Service
	Catalog      *appCatalog.Service
	Dispatcher   *protocol.Dispatcher
	Admission    *admission.Policy
	Server       *httpapi.Server
}

// New wires services over repos. The seed file, when configured, is
// applied before New returns.
func New(ctx context.Context, cfg *config.Config, repos *Repositories, logger zerolog.Logger) (*App, error) {
	hub := sse.NewHub()

	participantSvc := appParticipant.NewService(repos.Participants, logger)
	assetSvc := appAsset.NewService(repos.Assets, repos.Participants, logger)

	policy, err := admission.NewPolicy(cfg.AdmissionRule, participantSvc, logger)
	if err != nil {
		return nil, err
	}
	negotiationSvc := appNegotiation.NewService(repos.Negotiations, policy, hub, cfg.TransitionRetries, logger)
	agreementSvc := appAgreement.NewService(repos.Agreements, repos.Negotiations, hub, logger)
	catalogSvc := appCatalog.NewService(repos.Assets, cfg.CatalogTitle, logger)

	validator, err := dsp.NewValidator()
	if err != nil {
		return nil, err
	}
	dispatcher := protocol.NewDispatcher(validator, negotiationSvc, agreementSvc, catalogSvc, logger)

	if cfg.SeedFile != "" {
		doc, err := seed.ParseFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		if _, err := seed.Apply(ctx, doc, participantSvc, assetSvc, logger); err != nil {
			return nil, fmt.Errorf("seed %s: %w", cfg.SeedFile, err)
		}
	}

	server := httpapi.NewServer(dispatcher, negotiationSvc, agreementSvc, catalogSvc, assetSvc, participantSvc, hub, cfg.AdminTokenHash, logger)

	return &App{
		Repos:        repos,
		Hub:          hub,
		Participants: participantSvc,
		Assets:       assetSvc,
		Negotiations: negotiationSvc,
		Agreements:   agreementSvc,
		Catalog:      catalogSvc,
		Dispatcher:   dispatcher,
		Admission:    policy,
		Server:       server,
	}, nil
}

// Close stops event delivery and releases storage.
func (a *App) Close() {
	a.Hub.Stop()
	a.Repos.Close()
}
