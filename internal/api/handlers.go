package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RowanDark/cipherbreak/internal/cipher"
	"github.com/RowanDark/cipherbreak/internal/service"
)

// TextRequest carries the input of a decode-style call.
type TextRequest struct {
	Input  string        `json:"input"`
	Params cipher.Params `json:"params,omitempty"`
}

// EncodeResponse is the result of an encode call.
type EncodeResponse struct {
	Kind   cipher.Kind `json:"kind"`
	Output string      `json:"output"`
}

// IdentifyResponse lists candidate kinds, most likely first.
type IdentifyResponse struct {
	Detections []cipher.DetectionResult `json:"detections"`
}

// RankResponse lists every hypothesis a search decoder scored.
type RankResponse struct {
	Kind       cipher.Kind         `json:"kind"`
	Hypotheses []cipher.Hypothesis `json:"hypotheses"`
}

// ChainRequest runs the listed steps over Input.
type ChainRequest struct {
	Input string        `json:"input"`
	Steps []cipher.Step `json:"steps"`
}

// ChainResponse reports the outcome of a chain.
type ChainResponse struct {
	Kind       cipher.Kind `json:"kind"`
	Output     string      `json:"output"`
	Outcome    string      `json:"outcome"`
	StepsRun   int         `json:"steps_run"`
	FailedStep int         `json:"failed_step"`
}

// BatchRequest decodes several inputs at once.
type BatchRequest struct {
	Items []service.BatchItem `json:"items"`
}

// BatchResponse holds one result per batch item, in order.
type BatchResponse struct {
	Results []service.BatchResult `json:"results"`
}

// FrequencyResponse is a letter frequency table.
type FrequencyResponse struct {
	Letters            []cipher.LetterFrequency `json:"letters"`
	IndexOfCoincidence float64                  `json:"index_of_coincidence"`
}

// RecipeListResponse represents the list of recipes
type RecipeListResponse struct {
	Recipes []*cipher.Recipe `json:"recipes"`
}

func (s *Server) handleDecoders(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"decoders": s.svc.Decoders()})
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.Decode(r.Context(), chi.URLParam(r, "kind"), req.Input, req.Params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	kind, err := cipher.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out, err := s.svc.Encode(r.Context(), string(kind), req.Input, req.Params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, EncodeResponse{Kind: kind, Output: out})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	kind, err := cipher.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	hs, err := s.svc.Rank(r.Context(), string(kind), req.Input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RankResponse{Kind: kind, Hypotheses: hs})
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	detections, err := s.svc.Identify(r.Context(), req.Input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, IdentifyResponse{Detections: detections})
}

func (s *Server) handleAuto(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.Auto(r.Context(), req.Input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	var req ChainRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	steps, err := normalizeSteps(req.Steps)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if len(steps) == 0 {
		s.writeError(w, r, http.StatusBadRequest, "steps are required")
		return
	}
	res, err := s.svc.Chain(r.Context(), steps, req.Input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chainResponse(res))
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	results, err := s.svc.Batch(r.Context(), req.Items)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, BatchResponse{Results: results})
}

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	table, ioc := s.svc.Frequency(req.Input)
	s.writeJSON(w, http.StatusOK, FrequencyResponse{Letters: table, IndexOfCoincidence: ioc})
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	var recipes []*cipher.Recipe
	if q := r.URL.Query().Get("q"); q != "" {
		recipes = s.svc.Recipes().SearchRecipes(q)
	} else {
		recipes = s.svc.Recipes().ListRecipes()
	}
	s.writeJSON(w, http.StatusOK, RecipeListResponse{Recipes: recipes})
}

func (s *Server) handleSaveRecipe(w http.ResponseWriter, r *http.Request) {
	var recipe cipher.Recipe
	if !s.decodeBody(w, r, &recipe) {
		return
	}
	steps, err := normalizeSteps(recipe.Chain.Steps)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	recipe.Chain.Steps = steps
	if err := s.svc.Recipes().SaveRecipe(&recipe); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, recipe)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Recipes().DeleteRecipe(chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunRecipe(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.RunRecipe(r.Context(), chi.URLParam(r, "name"), req.Input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chainResponse(res))
}

func chainResponse(res cipher.ChainResult) ChainResponse {
	return ChainResponse{
		Kind:       res.Kind,
		Output:     res.Output,
		Outcome:    res.Outcome.Type.String(),
		StepsRun:   res.StepsRun,
		FailedStep: res.Failed,
	}
}

// normalizeSteps resolves kind aliases in client supplied steps.
func normalizeSteps(steps []cipher.Step) ([]cipher.Step, error) {
	out := make([]cipher.Step, 0, len(steps))
	for _, step := range steps {
		kind, err := cipher.ParseKind(string(step.Kind))
		if err != nil {
			return nil, err
		}
		out = append(out, cipher.Step{Kind: kind, Params: step.Params})
	}
	return out, nil
}

// writeServiceError maps engine errors to HTTP status codes. Decoder
// failures never get here; they are part of a 200 response.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, cipher.ErrUnknownKind), errors.Is(err, service.ErrRecipeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, cipher.ErrNoHypothesis):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
		status = http.StatusRequestTimeout
	}
	s.writeError(w, r, status, err.Error())
}
