package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fpang/vizu-atelier/internal/media"
	"github.com/fpang/vizu-atelier/internal/session"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.cfg.ServiceName,
		"version": s.cfg.Version,
	})
}

// --- Quality ---

type imageRequest struct {
	Image string `json:"image"`
}

// POST /api/quality
// Body: {"image": "data:image/jpeg;base64,..."}
func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	image, ok := parseImage(w, req.Image)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.svc.ValidateImageQuality(r.Context(), image))
}

// --- Sessions ---

type createSessionRequest struct {
	Image       string                   `json:"image"`
	Metrics     *stylist.UserMetrics     `json:"metrics,omitempty"`
	Preferences *stylist.UserPreferences `json:"preferences,omitempty"`
}

// POST /api/sessions
// Body: {"image": "...", "metrics": {...}, "preferences": {...}}
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	image, ok := parseImage(w, req.Image)
	if !ok {
		return
	}

	result, err := s.svc.Analyze(r.Context(), image, req.Metrics, req.Preferences)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, s.store.Create(image, *result))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/sessions/{id}/skin-tone
// Body: {"tone": "Quente"|"Frio"|"Neutro"|"Oliva"}
func (s *Server) handleSkinTone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tone stylist.SkinTone `json:"tone"`
	}
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if _, ok := stylist.Profile(req.Tone); !ok {
		httpError(w, http.StatusBadRequest, "unknown skin tone")
		return
	}
	sess, err := s.store.SetSkinTone(chi.URLParam(r, "id"), req.Tone)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// --- Looks ---

// POST /api/sessions/{id}/looks
//
// Renders every outfit without an image, one at a time. Each rendered look is
// written to the session as soon as it lands, so a concurrent GET shows
// progress. A second request for the same session joins the running batch.
func (s *Server) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// The batch outlives a disconnecting caller so joined callers still get it.
	ctx := context.WithoutCancel(r.Context())
	sess, shared, err := s.store.RunBatch(ctx, id, func(ctx context.Context, current session.Session) error {
		s.svc.GenerateAll(ctx, current.Image, current.Result, func(index int, result stylist.AnalysisResult) {
			if _, err := s.store.ApplyLook(id, index, result.Outfits[index]); err != nil {
				log.Warn().Err(err).Str("session_id", id).Int("index", index).Msg("Failed to store rendered look")
			}
		})
		return nil
	})
	if err != nil {
		respondError(w, err)
		return
	}

	log.Info().
		Str("session_id", id).
		Bool("shared", shared).
		Int("pending", len(sess.Result.Pending())).
		Msg("Try-on batch finished")
	respondJSON(w, http.StatusOK, sess)
}

func handleBatchDisabled(w http.ResponseWriter, r *http.Request) {
	httpError(w, http.StatusNotImplemented, "batch rendering is unavailable here; render each look with POST /api/sessions/{id}/looks/{index}")
}

// POST /api/sessions/{id}/looks/{index}
// Body (optional): {"refinement": "mangas curtas"}
func (s *Server) handleRenderLook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	var req struct {
		Refinement string `json:"refinement"`
	}
	if !decodeJSON(w, r, &req, true) {
		return
	}

	sess, err := s.store.Get(id)
	if err != nil {
		respondError(w, err)
		return
	}
	if index >= len(sess.Result.Outfits) {
		respondError(w, &stylist.IndexError{Index: index, Len: len(sess.Result.Outfits)})
		return
	}

	outfit := sess.Result.Outfits[index]
	look, err := s.svc.RenderLook(r.Context(), sess.Image, sess.Result.Biotype, outfit, req.Refinement)
	if err != nil {
		log.Warn().Err(err).Str("session_id", id).Str("outfit", outfit.Title).Msg("Try-on failed")
		respondError(w, err)
		return
	}

	sess, err = s.store.ApplyLook(id, index, look)
	if err != nil {
		respondError(w, err)
		return
	}
	log.Info().Str("session_id", id).Str("outfit", outfit.Title).Bool("refined", req.Refinement != "").Msg("Look rendered")
	respondJSON(w, http.StatusOK, sess)
}

// PUT /api/sessions/{id}/looks/{index}/favorite
func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	sess, err := s.store.ToggleFavorite(chi.URLParam(r, "id"), index)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// PUT /api/sessions/{id}/looks/{index}/note
// Body: {"note": "..."}
func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if !decodeJSON(w, r, &req, false) {
		return
	}
	sess, err := s.store.SetNote(chi.URLParam(r, "id"), index, req.Note)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// --- Input helpers ---

func parseImage(w http.ResponseWriter, raw string) (media.Payload, bool) {
	if raw == "" {
		httpError(w, http.StatusBadRequest, "image is required")
		return media.Payload{}, false
	}
	image, err := media.ParsePayload(raw)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid image", err.Error())
		return media.Payload{}, false
	}
	return image, true
}

func parseIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		httpError(w, http.StatusBadRequest, "invalid look index")
		return 0, false
	}
	return index, true
}
