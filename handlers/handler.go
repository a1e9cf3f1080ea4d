package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"dropline-api/auth"
	"dropline-api/store"

	"github.com/gin-gonic/gin"
)

const defaultDBTimeout = 5 * time.Second

// Deps are the collaborators shared by every handler. They are built once at
// startup and never mutated.
type Deps struct {
	Store     store.Store
	Hasher    auth.Hasher
	Tokens    *auth.TokenIssuer
	DBTimeout time.Duration
	Log       *slog.Logger
}

type Handler struct {
	store     store.Store
	hasher    auth.Hasher
	tokens    *auth.TokenIssuer
	dbTimeout time.Duration
	log       *slog.Logger
}

func New(d Deps) *Handler {
	if d.DBTimeout <= 0 {
		d.DBTimeout = defaultDBTimeout
	}
	if d.Hasher == nil {
		d.Hasher = auth.SHA256Hasher{}
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Handler{
		store:     d.Store,
		hasher:    d.Hasher,
		tokens:    d.Tokens,
		dbTimeout: d.DBTimeout,
		log:       d.Log,
	}
}

// dbContext bounds a database call by the request context and DB_TIMEOUT.
func (h *Handler) dbContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.dbTimeout)
}

func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

func dbUnavailable(c *gin.Context) {
	detail(c, http.StatusInternalServerError, "Database not available")
}

// storeFailure answers a gateway error that is neither "not found" nor "duplicate".
func (h *Handler) storeFailure(c *gin.Context, op string, err error) {
	_ = c.Error(err)
	if errors.Is(err, store.ErrUnavailable) {
		dbUnavailable(c)
		return
	}
	h.log.Error("handlers: store failure", "op", op, "error", err)
	detail(c, http.StatusInternalServerError, "Database operation failed")
}
