// Package actions handles the search and save intents submitted from the
// location form.
package actions

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-compare/internal/weather"
)

// Intents understood by the handler.
const (
	IntentSearch = "search"
	IntentSave   = "save"
)

// Kind tags the variant held by a Result.
type Kind string

const (
	KindRedirect Kind = "redirect"
	KindSaved    Kind = "saved"
	KindError    Kind = "error"
)

// Request is a submitted location form.
type Request struct {
	Intent    string `json:"intent" form:"intent"`
	Location  string `json:"location" form:"location"`
	Latitude  string `json:"latitude" form:"latitude"`
	Longitude string `json:"longitude" form:"longitude"`
}

// Result is the outcome of one submitted intent. Target is set for
// KindRedirect; Saved, Location and Timestamp for KindSaved; Error and Err
// for KindError.
type Result struct {
	Kind      Kind      `json:"kind"`
	Target    string    `json:"target,omitempty"`
	Saved     bool      `json:"saved"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Error     string    `json:"error,omitempty"`
	Err       error     `json:"-"`
}

// Handler dispatches location form intents.
type Handler struct {
	store    weather.LocationStore
	basePath string
	now      func() time.Time
	logger   *zap.SugaredLogger
}

// NewHandler creates a Handler. basePath prefixes redirect targets so they
// resolve against the routes that serve them, e.g. "/api/v1".
func NewHandler(store weather.LocationStore, basePath string, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{store: store, basePath: strings.TrimRight(basePath, "/"), now: time.Now, logger: logger}
}

// Handle processes one request. A missing intent is treated as save, which
// is what a plain form submission without an intent button does.
func (h *Handler) Handle(ctx context.Context, req Request) Result {
	switch req.Intent {
	case IntentSearch:
		return Redirect(h.basePath, req.Location)
	case IntentSave, "":
		return h.save(ctx, req)
	default:
		return errorResult(weather.Validation("Unknown intent " + strconv.Quote(req.Intent)))
	}
}

// Redirect builds the search redirect for free-text input under basePath.
// Blank input redirects without a search parameter.
func Redirect(basePath, location string) Result {
	target := strings.TrimRight(basePath, "/") + "/location"
	if trimmed := strings.TrimSpace(location); trimmed != "" {
		params := url.Values{}
		params.Set("search", trimmed)
		target += "?" + params.Encode()
	}
	return Result{Kind: KindRedirect, Target: target}
}

func (h *Handler) save(ctx context.Context, req Request) Result {
	if strings.TrimSpace(req.Location) == "" {
		return errorResult(weather.Validation("Location name is required"))
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(req.Latitude), 64)
	if err != nil {
		return errorResult(weather.Validation("Invalid latitude"))
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(req.Longitude), 64)
	if err != nil {
		return errorResult(weather.Validation("Invalid longitude"))
	}

	if err := h.store.Add(ctx, req.Location, lat, lon); err != nil {
		h.logger.Infow("save location rejected", "location", req.Location, "error", err)
		return errorResult(err)
	}

	return Result{
		Kind:      KindSaved,
		Saved:     true,
		Location:  req.Location,
		Timestamp: h.now().UTC(),
	}
}

func errorResult(err error) Result {
	return Result{Kind: KindError, Saved: false, Error: weather.Message(err), Err: err}
}
