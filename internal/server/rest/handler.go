// Package rest exposes the Exersio services over a JSON HTTP API.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/exersio/internal/common"
	"github.com/dmitrijs2005/exersio/internal/logging"
	"github.com/dmitrijs2005/exersio/internal/server/models"
	"github.com/dmitrijs2005/exersio/internal/server/services"
)

const maxBodyBytes = 1 << 20

type Users interface {
	Authenticator
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type Exercises interface {
	List(ctx context.Context, userID string) ([]*models.Exercise, error)
	Get(ctx context.Context, userID, id string) (*models.Exercise, error)
	Create(ctx context.Context, userID string, e *models.Exercise) (*models.Exercise, error)
	Update(ctx context.Context, userID, id string, e *models.Exercise) (*models.Exercise, error)
	Delete(ctx context.Context, userID, id string) error
	Share(ctx context.Context, userID, id, clubID string) (*models.Exercise, error)
	Permissions(ctx context.Context, userID, id string) (*models.Permissions, error)
	ImageUploadURL(ctx context.Context, userID, id, contentType string) (*services.ImageUpload, error)
	ImageURL(ctx context.Context, userID, id string) (string, error)
}

type Sessions interface {
	List(ctx context.Context, userID string) ([]*models.Session, error)
	Get(ctx context.Context, userID, id string) (*models.Session, error)
	Create(ctx context.Context, userID string, s *models.Session) (*models.Session, error)
	Update(ctx context.Context, userID, id string, s *models.Session) (*models.Session, error)
	Delete(ctx context.Context, userID, id string) error
}

type Clubs interface {
	List(ctx context.Context, userID string) ([]*models.Club, error)
	Create(ctx context.Context, userID, name string) (*models.Club, error)
	AddMember(ctx context.Context, userID, clubID, memberID, role string) error
}

// Handler serves the REST API.
type Handler struct {
	users     Users
	exercises Exercises
	sessions  Sessions
	clubs     Clubs
	logger    logging.Logger
}

func NewHandler(users Users, exercises Exercises, sessions Sessions, clubs Clubs, logger logging.Logger) *Handler {
	return &Handler{
		users:     users,
		exercises: exercises,
		sessions:  sessions,
		clubs:     clubs,
		logger:    logger,
	}
}

// Routes builds the request multiplexer with auth and request logging applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", h.ping)
	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("POST /auth/refresh", h.refresh)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /exercises", h.listExercises)
	protected.HandleFunc("POST /exercises", h.createExercise)
	protected.HandleFunc("GET /exercises/{id}", h.getExercise)
	protected.HandleFunc("PUT /exercises/{id}", h.updateExercise)
	protected.HandleFunc("DELETE /exercises/{id}", h.deleteExercise)
	protected.HandleFunc("POST /exercises/{id}/share", h.shareExercise)
	protected.HandleFunc("GET /exercises/{id}/permissions", h.exercisePermissions)
	protected.HandleFunc("POST /exercises/{id}/image", h.exerciseImageUpload)
	protected.HandleFunc("GET /exercises/{id}/image", h.exerciseImage)

	protected.HandleFunc("GET /sessions", h.listSessions)
	protected.HandleFunc("POST /sessions", h.createSession)
	protected.HandleFunc("GET /sessions/{id}", h.getSession)
	protected.HandleFunc("PUT /sessions/{id}", h.updateSession)
	protected.HandleFunc("DELETE /sessions/{id}", h.deleteSession)

	protected.HandleFunc("GET /clubs", h.listClubs)
	protected.HandleFunc("POST /clubs", h.createClub)
	protected.HandleFunc("POST /clubs/{id}/members", h.addClubMember)

	authed := requireAuth(h.users, h.logger, protected)
	for _, prefix := range []string{"/exercises", "/sessions", "/clubs"} {
		mux.Handle(prefix, authed)
		mux.Handle(prefix+"/", authed)
	}

	return logRequests(h.logger, mux)
}

// decode reads a JSON body into dst. Malformed bodies are validation errors.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", common.ErrorValidation, err)
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	fail(r.Context(), h.logger, w, err)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
