package web

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hpungsan/spamguard/internal/config"
	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/metrics"
	"github.com/hpungsan/spamguard/internal/ops"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	metrics  *metrics.Collector
	renderer *Renderer
}

// HandleList handles GET /quarantine.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	level, err := parseLevelParam(q.Get("level"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	input := ops.ListInput{
		Email:         strings.TrimSpace(q.Get("email")),
		Level:         level,
		IncludeLifted: parseBoolParam(r, "include_lifted"),
		Limit:         parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:        parseIntParam(r, "offset", 0),
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	stats, err := ops.Stats(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData:   h.renderer.page("Quarantine", "quarantine"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Stats:      stats,
		Levels:     quarantine.Levels(),
		Email:      input.Email,
		Level:      q.Get("level"),
		Lifted:     input.IncludeLifted,
	})
}

// HandleDetail handles GET /quarantine/{id}. Lifted records stay viewable.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("quarantine ID is required"))
		return
	}

	item, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: id, IncludeLifted: true})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, item)
		return
	}

	var note string
	if item.Note != nil {
		note = *item.Note
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: h.renderer.page(item.Email, "quarantine"),
		Item:     item,
		NoteHTML: renderMarkdown(note),
	})
}

// HandleLift handles POST /quarantine/{id}/lift.
func (h *Handlers) HandleLift(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("quarantine ID is required"))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	input := ops.LiftInput{ID: id}
	if note := r.FormValue("note"); strings.TrimSpace(note) != "" {
		input.Note = &note
	}

	result, err := ops.Lift(r.Context(), h.db, h.metrics, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	target := "/quarantine/" + url.PathEscape(result.ID)

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleAnalyzePage handles GET /analyze, scoring ?text= when present.
func (h *Handlers) HandleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	data := AnalyzePageData{
		PageData: h.renderer.page("Analyze", "analyze"),
		Text:     r.URL.Query().Get("text"),
	}

	if r.URL.Query().Has("text") {
		result, err := ops.Analyze(h.metrics, ops.AnalyzeInput{Text: data.Text})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Result = result
	}

	h.renderer.renderPage(w, r, "analyze", data)
}

// analyzeRequest is the body of POST /api/analyze: either text or texts.
type analyzeRequest struct {
	Text  *string  `json:"text"`
	Texts []string `json:"texts"`
}

// HandleAPIAnalyze handles POST /api/analyze.
func (h *Handlers) HandleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	switch {
	case body.Text != nil && body.Texts != nil:
		h.renderer.renderError(w, r, errors.NewInvalidRequest("specify either text or texts, not both"))
	case body.Texts != nil:
		result, err := ops.AnalyzeBatch(r.Context(), h.cfg, h.metrics, ops.AnalyzeBatchInput{Texts: body.Texts})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		renderJSON(w, http.StatusOK, result)
	case body.Text != nil:
		result, err := ops.Analyze(h.metrics, ops.AnalyzeInput{Text: *body.Text})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		renderJSON(w, http.StatusOK, result)
	default:
		h.renderer.renderError(w, r, errors.NewInvalidRequest("text or texts is required"))
	}
}

// screenRequest is the body of POST /api/screen.
type screenRequest struct {
	Email  string            `json:"email"`
	Fields map[string]string `json:"fields"`
	DryRun bool              `json:"dry_run"`
}

// HandleAPIScreen handles POST /api/screen.
func (h *Handlers) HandleAPIScreen(w http.ResponseWriter, r *http.Request) {
	var body screenRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Screen(r.Context(), h.db, h.cfg, h.metrics, ops.ScreenInput{
		Email:  body.Email,
		Fields: body.Fields,
		DryRun: body.DryRun,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPICheck handles GET /api/check?email=...&level=... (level repeatable).
func (h *Handlers) HandleAPICheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	input := ops.CheckInput{Email: q.Get("email")}
	for _, s := range q["level"] {
		level, err := parseLevelParam(s)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		if level != 0 {
			input.Levels = append(input.Levels, level)
		}
	}

	result, err := ops.Check(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// decodeJSON reads a size-limited JSON body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// parseLevelParam parses an optional level; empty means any level.
func parseLevelParam(s string) (quarantine.Level, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	level, err := quarantine.ParseLevel(s)
	if err != nil {
		return 0, errors.NewInvalidRequest(err.Error())
	}
	return level, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
