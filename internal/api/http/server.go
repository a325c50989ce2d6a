package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	appAgreement "github.com/dataspace-connector/connector/internal/application/agreement"
	appAsset "github.com/dataspace-connector/connector/internal/application/asset"
	appCatalog "github.com/dataspace-connector/connector/internal/application/catalog"
	appNegotiation "github.com/dataspace-connector/connector/internal/application/negotiation"
	appParticipant "github.com/dataspace-connector/connector/internal/application/participant"
	"github.com/dataspace-connector/connector/internal/application/protocol"
	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/infrastructure/sse"
)

const maxBodyBytes = 1 << 20

// Server holds dependencies for HTTP handlers.
type Server struct {
	dispatcher     *protocol.Dispatcher
	negotiationSvc *appNegotiation.Service
	agreementSvc   *appAgreement.Service
	catalogSvc     *appCatalog.Service
	assetSvc       *appAsset.Service
	participantSvc *appParticipant.Service
	sseHub         *sse.Hub
	adminTokenHash string
	logger         zerolog.Logger
}

func NewServer(
	dispatcher *protocol.Dispatcher,
	negotiationSvc *appNegotiation.Service,
	agreementSvc *appAgreement.Service,
	catalogSvc *appCatalog.Service,
	assetSvc *appAsset.Service,
	participantSvc *appParticipant.Service,
	sseHub *sse.Hub,
	adminTokenHash string,
	logger zerolog.Logger,
) *Server {
	return &Server{
		dispatcher:     dispatcher,
		negotiationSvc: negotiationSvc,
		agreementSvc:   agreementSvc,
		catalogSvc:     catalogSvc,
		assetSvc:       assetSvc,
		participantSvc: participantSvc,
		sseHub:         sseHub,
		adminTokenHash: adminTokenHash,
		logger:         logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)

	timeout := middleware.Timeout(30 * time.Second)

	r.Route("/dsp", func(r chi.Router) {
		r.With(timeout).Post("/messages", s.postMessage)
		r.With(timeout).Get("/catalog", s.getCatalog)

		r.Route("/negotiations", func(r chi.Router) {
			// Event streams outlive the request timeout.
			r.Get("/events", s.negotiationEvents)

			r.Group(func(r chi.Router) {
				r.Use(timeout)
				r.Post("/", s.requestNegotiation)
				r.Get("/", s.listNegotiations)
				r.Get("/{negotiationId}", s.getNegotiation)
				r.Post("/{negotiationId}/transitions", s.transitionNegotiation)
				r.Post("/{negotiationId}/terminate", s.terminateNegotiation)
			})
		})

		r.Route("/agreements", func(r chi.Router) {
			r.Use(timeout)
			r.Post("/", s.createAgreement)
			r.Get("/", s.listAgreements)
			r.Get("/{agreementId}", s.getAgreement)
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(timeout)
		r.Use(s.requireAdmin)

		r.Route("/assets", func(r chi.Router) {
			r.Post("/", s.createAsset)
			r.Get("/", s.listAssets)
			r.Get("/{assetId}", s.getAsset)
			r.Put("/{assetId}", s.updateAsset)
			r.Delete("/{assetId}", s.deleteAsset)
			r.Post("/{assetId}/status", s.setAssetStatus)
		})

		r.Route("/participants", func(r chi.Router) {
			r.Post("/", s.createParticipant)
			r.Get("/", s.listParticipants)
			r.Get("/{participantId}", s.getParticipant)
			r.Put("/{participantId}", s.updateParticipant)
			r.Delete("/{participantId}", s.deleteParticipant)
			r.Post("/{participantId}/status", s.setParticipantStatus)
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondAppError writes err using the status and code of its kind.
func (s *Server) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindUnknown {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		respondError(w, http.StatusInternalServerError, apperr.KindUnknown.Code(), "internal error")
		return
	}
	if appErr.Kind == apperr.KindStorageUnavailable {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("storage unavailable")
	}
	body := map[string]interface{}{
		"error":   appErr.Kind.Code(),
		"message": appErr.Error(),
	}
	if len(appErr.Violations) > 0 {
		body["violations"] = appErr.Violations
	}
	respondJSON(w, appErr.Kind.Status(), body)
}

// decodeBody decodes a JSON request body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.ValidationFailed("invalid request body",
			apperr.Violation{Path: "/", Description: err.Error()})
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		evt := s.logger.Info()
		if status >= http.StatusInternalServerError {
			evt = s.logger.Warn()
		}
		evt.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
