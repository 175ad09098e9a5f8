package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gonkalabs/safedata/internal/pipeline"
	"github.com/gonkalabs/safedata/internal/sanitize"
)

// maxBody caps request bodies at 16 MiB.
const maxBody = 16 << 20

// Handler implements all HTTP endpoints.
type Handler struct {
	pipeline       *pipeline.Pipeline
	defaultEpsilon float64
}

// New creates a Handler. defaultEpsilon is used when a request omits epsilon.
func New(p *pipeline.Pipeline, defaultEpsilon float64) *Handler {
	return &Handler{pipeline: p, defaultEpsilon: defaultEpsilon}
}

// Register mounts routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /status", h.status)
	mux.HandleFunc("GET /privacy/budget", h.budget)
	mux.HandleFunc("POST /process/text", h.processText)
	mux.HandleFunc("POST /process/form", h.processForm)
	mux.HandleFunc("POST /process/derived", h.processDerived)
	mux.HandleFunc("POST /restore", h.restore)
}

// ---------- endpoints ----------

func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "online",
		"message": "Secure Pipeline Active",
	})
}

func (h *Handler) budget(w http.ResponseWriter, r *http.Request) {
	eps := h.defaultEpsilon
	if raw := r.URL.Query().Get("epsilon"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			writeErr(w, http.StatusBadRequest, "invalid epsilon: "+raw)
			return
		}
		eps = f
	}
	writeJSON(w, http.StatusOK, h.pipeline.Engine().BudgetStatus(eps))
}

type textRequest struct {
	Text    string   `json:"text"`
	Epsilon *float64 `json:"epsilon"`
}

func (h *Handler) processText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.pipeline.Text(r.Context(), req.Text, h.epsilon(req.Epsilon))
	writeJSON(w, http.StatusOK, res)
}

type formRequest struct {
	Data    map[string]any `json:"data"`
	Epsilon *float64       `json:"epsilon"`
}

func (h *Handler) processForm(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.pipeline.Form(r.Context(), req.Data, h.epsilon(req.Epsilon))
	writeJSON(w, http.StatusOK, res)
}

type derivedRequest struct {
	Kind    string   `json:"kind"`
	Text    string   `json:"text"`
	Epsilon *float64 `json:"epsilon"`
}

func (h *Handler) processDerived(w http.ResponseWriter, r *http.Request) {
	var req derivedRequest
	if !decode(w, r, &req) {
		return
	}
	kind, err := pipeline.ParseDerivedKind(req.Kind)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	res := h.pipeline.Derived(r.Context(), kind, req.Text, h.epsilon(req.Epsilon))
	writeJSON(w, http.StatusOK, res)
}

type restoreRequest struct {
	Text string            `json:"text"`
	Map  map[string]string `json:"map"`
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if !decode(w, r, &req) {
		return
	}
	m := sanitize.FromMap(req.Map)
	slog.Debug("api: restore", "mapped", m.Len())
	writeJSON(w, http.StatusOK, map[string]string{"text": m.Restore(req.Text)})
}

// ---------- helpers ----------

func (h *Handler) epsilon(v *float64) float64 {
	if v == nil {
		return h.defaultEpsilon
	}
	return *v
}

// decode reads a JSON body into v. Numbers are kept as json.Number so form
// values are echoed exactly as sent. It writes a 400 and returns false on
// failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return false
	}
	defer r.Body.Close()

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
