package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dataspace-connector/connector/internal/domain/agreement"
	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/negotiation"
	"github.com/dataspace-connector/connector/internal/infrastructure/sse"
)

type negotiationRequest struct {
	Issuer  string  `json:"issuer"`
	OfferID *string `json:"offerId"`
}

type transitionRequest struct {
	State negotiation.State `json:"state"`
}

type agreementRequest struct {
	NegotiationID string `json:"negotiationId"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, apperr.KindValidationFailed.Code(), err.Error())
		return
	}
	reply, err := s.dispatcher.Handle(r.Context(), raw)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"messageId": reply.MessageID,
		"type":      reply.Type,
		"body":      protocolView(reply.Body),
	})
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	c, err := s.catalogSvc.Catalog(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) requestNegotiation(w http.ResponseWriter, r *http.Request) {
	var req negotiationRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	n, err := s.negotiationSvc.Request(r.Context(), req.Issuer, req.OfferID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toNegotiationView(n))
}

func (s *Server) listNegotiations(w http.ResponseWriter, r *http.Request) {
	list, err := s.negotiationSvc.List(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	state := negotiation.State(r.URL.Query().Get("state"))
	out := make([]negotiationView, 0, len(list))
	for _, n := range list {
		if state != "" && n.State != state {
			continue
		}
		out = append(out, toNegotiationView(n))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) getNegotiation(w http.ResponseWriter, r *http.Request) {
	n, err := s.negotiationSvc.Get(r.Context(), chi.URLParam(r, "negotiationId"))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toNegotiationView(n))
}

func (s *Server) transitionNegotiation(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if req.State == "" {
		s.respondAppError(w, r, apperr.ValidationFailed("state is required",
			apperr.Violation{Path: "/state", Description: "required"}))
		return
	}
	n, err := s.negotiationSvc.Transition(r.Context(), chi.URLParam(r, "negotiationId"), req.State)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toNegotiationView(n))
}

func (s *Server) terminateNegotiation(w http.ResponseWriter, r *http.Request) {
	n, err := s.negotiationSvc.Terminate(r.Context(), chi.URLParam(r, "negotiationId"))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toNegotiationView(n))
}

func (s *Server) createAgreement(w http.ResponseWriter, r *http.Request) {
	var req agreementRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	a, err := s.agreementSvc.Create(r.Context(), req.NegotiationID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAgreementView(a))
}

func (s *Server) listAgreements(w http.ResponseWriter, r *http.Request) {
	var (
		list []*agreement.Agreement
		err  error
	)
	if negotiationID := r.URL.Query().Get("negotiation_id"); negotiationID != "" {
		list, err = s.agreementSvc.ForNegotiation(r.Context(), negotiationID)
	} else {
		list, err = s.agreementSvc.List(r.Context())
	}
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	out := make([]agreementView, 0, len(list))
	for _, a := range list {
		out = append(out, toAgreementView(a))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) getAgreement(w http.ResponseWriter, r *http.Request) {
	a, err := s.agreementSvc.Get(r.Context(), chi.URLParam(r, "agreementId"))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAgreementView(a))
}

func (s *Server) negotiationEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, apperr.KindUnknown.Code(), "streaming not supported")
		return
	}
	client := sse.NewClient(uuid.NewString(), r.URL.Query().Get("negotiation_id"))
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case evt, ok := <-client.Events:
			if !ok {
				return
			}
			payload, _ := json.Marshal(evt)
			_, _ = w.Write([]byte("event: " + string(evt.Type) + "\n"))
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
