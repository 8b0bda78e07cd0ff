package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/render"
	"github.com/patrickwarner/troyconsole/internal/session"
)

// Modal renders the detail dialog of one record. The record comes from the
// list this client loaded last; partners can also be fetched directly.
func (s *Server) Modal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, id := vars["view"], vars["id"]
	sc, client, err := s.sessionFor(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ri := info(r)
	ri.entity, ri.entityID = view, id

	rec, err := s.Views.Find(client, view, id)
	if errors.Is(err, models.ErrNotFound) {
		rec, err = s.fetchRecord(r, sc, view, id)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if view == viewCampaigns && s.Store != nil && s.Store.Client != nil {
		if err := s.Store.MarkCampaignRead(r.Context(), client, id); err != nil {
			s.logger(r).Warn("mark campaign read", zap.Error(err))
		}
	}

	if outputFormat(r) == formatJSON {
		writeJSON(w, rec)
		return
	}
	s.html(w, r, "modal", render.Modal{View: view, Record: rec})
}

// fetchRecord loads a record the view cache does not hold. Only partners
// have a single-record endpoint.
func (s *Server) fetchRecord(r *http.Request, sc session.Context, view, id string) (models.Record, error) {
	if view != viewPartners {
		return nil, models.ErrNotFound
	}
	p, err := s.Backend.Partner(r.Context(), sc, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}
