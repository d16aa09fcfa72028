package envserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/runner"
)

// EnvInfo describes an open environment.
type EnvInfo struct {
	ID          string           `json:"id"`
	GauntletID  string           `json:"gauntlet"`
	ActionCount int              `json:"action_count,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Observation *core.Observation `json:"observation,omitempty"`
}

// CreateRequest is the body of POST /envs.
type CreateRequest struct {
	Gauntlet string `json:"gauntlet"`
	Seed     int64  `json:"seed"`
	MaxSteps int    `json:"max_steps"`
}

// ResetRequest is the body of POST /envs/{id}/reset.
type ResetRequest struct {
	Seed     int64 `json:"seed"`
	MaxSteps int   `json:"max_steps"`
}

// StepRequest is the body of POST /envs/{id}/step.
type StepRequest struct {
	Action *int `json:"action"`
}

// ObservationResponse carries an observation and its flat encoding.
type ObservationResponse struct {
	Observation core.Observation `json:"observation"`
	Vector      []float32        `json:"vector"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]int{"envs": s.hub.Count()})
}

func (s *Server) listGauntlets(w http.ResponseWriter, _ *http.Request) {
	if s.catalog == nil {
		writeData(w, http.StatusOK, []any{})
		return
	}
	writeData(w, http.StatusOK, s.catalog())
}

func (s *Server) listEnvs(w http.ResponseWriter, _ *http.Request) {
	handles := s.hub.Handles()
	out := make([]EnvInfo, 0, len(handles))
	for _, hd := range handles {
		out = append(out, EnvInfo{ID: hd.ID, GauntletID: hd.GauntletID, CreatedAt: hd.CreatedAt})
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) createEnv(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Gauntlet == "" {
		writeError(w, http.StatusBadRequest, "missing gauntlet")
		return
	}

	env, err := s.factory(req.Gauntlet)
	if err != nil {
		if errors.Is(err, ErrUnknownGauntlet) {
			writeError(w, http.StatusNotFound, "gauntlet not found")
			return
		}
		s.logger.Error("cannot create environment", "gauntlet", req.Gauntlet, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	hd, err := s.hub.Open(env, s.config.StepWait)
	if err != nil {
		if errors.Is(err, runner.ErrHubFull) {
			writeError(w, http.StatusServiceUnavailable, "too many open environments")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	obs, err := hd.Bridge.Reset(r.Context(), core.RuntimeConfig{Seed: req.Seed, MaxSteps: req.MaxSteps})
	if err != nil {
		s.hub.Close(hd.ID)
		s.bridgeError(w, hd.ID, err)
		return
	}
	mask, err := hd.Bridge.Mask(r.Context())
	if err != nil {
		s.hub.Close(hd.ID)
		s.bridgeError(w, hd.ID, err)
		return
	}

	s.logger.Info("environment opened", "env", hd.ID, "gauntlet", hd.GauntletID, "seed", req.Seed)
	writeData(w, http.StatusCreated, EnvInfo{
		ID:          hd.ID,
		GauntletID:  hd.GauntletID,
		ActionCount: len(mask),
		CreatedAt:   hd.CreatedAt,
		Observation: &obs,
	})
}

// handle resolves the {id} URL parameter, writing 404 when it is unknown.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) (*runner.Handle, bool) {
	hd, ok := s.hub.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "environment not found")
		return nil, false
	}
	return hd, true
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	hd, ok := s.handle(w, r)
	if !ok {
		return
	}

	var req ResetRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	obs, err := hd.Bridge.Reset(r.Context(), core.RuntimeConfig{Seed: req.Seed, MaxSteps: req.MaxSteps})
	if err != nil {
		s.bridgeError(w, hd.ID, err)
		return
	}
	writeData(w, http.StatusOK, obs)
}

func (s *Server) step(w http.ResponseWriter, r *http.Request) {
	hd, ok := s.handle(w, r)
	if !ok {
		return
	}

	var req StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Action == nil {
		writeError(w, http.StatusBadRequest, "missing action")
		return
	}

	res, err := hd.Bridge.Step(r.Context(), core.Action(*req.Action))
	if err != nil {
		s.bridgeError(w, hd.ID, err)
		return
	}
	if res.Terminated || res.Truncated {
		s.logger.Debug("episode finished", "env", hd.ID, "outcome", res.Info.Outcome)
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) mask(w http.ResponseWriter, r *http.Request) {
	hd, ok := s.handle(w, r)
	if !ok {
		return
	}
	m, err := hd.Bridge.Mask(r.Context())
	if err != nil {
		s.bridgeError(w, hd.ID, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"mask": []bool(m), "legal": m.Actions()})
}

func (s *Server) observe(w http.ResponseWriter, r *http.Request) {
	hd, ok := s.handle(w, r)
	if !ok {
		return
	}
	obs, err := hd.Bridge.Observe(r.Context())
	if err != nil {
		s.bridgeError(w, hd.ID, err)
		return
	}
	writeData(w, http.StatusOK, ObservationResponse{Observation: obs, Vector: obs.Vector()})
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	hd, ok := s.handle(w, r)
	if !ok {
		return
	}
	st, err := hd.Bridge.State(r.Context())
	if err != nil {
		s.bridgeError(w, hd.ID, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

func (s *Server) closeEnv(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.hub.Close(id) {
		writeError(w, http.StatusNotFound, "environment not found")
		return
	}
	s.logger.Info("environment closed", "env", id)
	w.WriteHeader(http.StatusNoContent)
}
