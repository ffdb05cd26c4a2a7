package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Shashankesi/Threadly/internal/cart"
	"github.com/Shashankesi/Threadly/internal/catalog"
	"github.com/Shashankesi/Threadly/internal/checkout"
	"github.com/Shashankesi/Threadly/internal/middleware"
	"github.com/Shashankesi/Threadly/internal/session"
)

const requestTimeout = 3 * time.Second

// Handler serves the storefront API. There is one cart and at most one
// checkout in progress per process.
type Handler struct {
	cart    *cart.Store
	session *session.Session
	catalog *catalog.Catalog
	logger  *zap.Logger

	wizardOpts []checkout.Option

	mu     sync.Mutex
	wizard *checkout.Wizard
}

type Deps struct {
	Cart    *cart.Store
	Session *session.Session
	Catalog *catalog.Catalog
	Logger  *zap.Logger

	// WizardOptions are applied to every checkout that is started.
	WizardOptions []checkout.Option
}

func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cat := d.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	return &Handler{
		cart:       d.Cart,
		session:    d.Session,
		catalog:    cat,
		logger:     logger,
		wizardOpts: d.WizardOptions,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"products": h.catalog.All()})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name, err := h.session.Current(ctx)
	if err != nil {
		h.internalError(w, r, "failed to load session", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{Username: name, SignedIn: name != ""})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name, err := h.session.SignIn(ctx, body.Name)
	if err != nil {
		if errors.Is(err, session.ErrInvalidName) {
			writeError(w, http.StatusUnprocessableEntity, session.InvalidNameMessage)
			return
		}
		h.internalError(w, r, "failed to save session", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{Username: name, SignedIn: true})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.session.SignOut(ctx); err != nil {
		h.internalError(w, r, "failed to sign out", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		zap.String("path", r.URL.Path),
		zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
