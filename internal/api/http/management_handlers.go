package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/asset"
	"github.com/dataspace-connector/connector/internal/domain/participant"
)

type assetRequest struct {
	ExternalID    string       `json:"externalId"`
	ParticipantID string       `json:"participantId"`
	AssetType     asset.Type   `json:"assetType"`
	Title         string       `json:"title"`
	Description   *string      `json:"description"`
	Version       string       `json:"version"`
	Status        asset.Status `json:"status"`
	Revision      int64        `json:"revision"`
}

func (req assetRequest) props() asset.Props {
	return asset.Props{
		ExternalID:    req.ExternalID,
		ParticipantID: req.ParticipantID,
		AssetType:     req.AssetType,
		Title:         req.Title,
		Description:   req.Description,
		Version:       req.Version,
		Status:        req.Status,
	}
}

type participantRequest struct {
	DID         string               `json:"did"`
	Name        string               `json:"name"`
	Description *string              `json:"description"`
	HomepageURL *string              `json:"homepageUrl"`
	Roles       []participant.Role   `json:"roles"`
	Status      participant.Status   `json:"status"`
	Address     *participant.Address `json:"address"`
	TrustLevel  int                  `json:"trustLevel"`
	Revision    int64                `json:"revision"`
}

func (req participantRequest) props() participant.Props {
	return participant.Props{
		DID:         req.DID,
		Name:        req.Name,
		Description: req.Description,
		HomepageURL: req.HomepageURL,
		Roles:       req.Roles,
		Status:      req.Status,
		Address:     req.Address,
		TrustLevel:  req.TrustLevel,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func decodeStatus(r *http.Request) (string, error) {
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		return "", err
	}
	if req.Status == "" {
		return "", apperr.ValidationFailed("status is required",
			apperr.Violation{Path: "/status", Description: "required"})
	}
	return req.Status, nil
}

// Asset handlers
func (s *Server) createAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	a, err := s.assetSvc.Create(r.Context(), req.props())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	var (
		list []*asset.Asset
		err  error
	)
	if participantID := r.URL.Query().Get("participant_id"); participantID != "" {
		list, err = s.assetSvc.ListByParticipant(r.Context(), participantID)
	} else {
		list, err = s.assetSvc.List(r.Context())
	}
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	a, err := s.assetSvc.Get(r.Context(), chi.URLParam(r, "assetId"))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) updateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	a, err := s.assetSvc.Update(r.Context(), chi.URLParam(r, "assetId"), req.props(), req.Revision)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) deleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.assetSvc.Delete(r.Context(), chi.URLParam(r, "assetId")); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setAssetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := decodeStatus(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	a, err := s.assetSvc.SetStatus(r.Context(), chi.URLParam(r, "assetId"), asset.Status(status))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// Participant handlers
func (s *Server) createParticipant(w http.ResponseWriter, r *http.Request) {
	var req participantRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	p, err := s.participantSvc.Create(r.Context(), req.props())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) listParticipants(w http.ResponseWriter, r *http.Request) {
	if did := r.URL.Query().Get("did"); did != "" {
		p, err := s.participantSvc.FindByDID(r.Context(), did)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		out := []*participant.Participant{}
		if p != nil {
			out = append(out, p)
		}
		respondJSON(w, http.StatusOK, out)
		return
	}
	list, err := s.participantSvc.List(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) getParticipant(w http.ResponseWriter, r *http.Request) {
	p, err := s.participantSvc.Get(r.Context(), chi.URLParam(r, "participantId"))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) updateParticipant(w http.ResponseWriter, r *http.Request) {
	var req participantRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	p, err := s.participantSvc.Update(r.Context(), chi.URLParam(r, "participantId"), req.props(), req.Revision)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) deleteParticipant(w http.ResponseWriter, r *http.Request) {
	if err := s.participantSvc.Delete(r.Context(), chi.URLParam(r, "participantId")); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setParticipantStatus(w http.ResponseWriter, r *http.Request) {
	status, err := decodeStatus(r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	p, err := s.participantSvc.SetStatus(r.Context(), chi.URLParam(r, "participantId"), participant.Status(status))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
