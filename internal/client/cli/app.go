package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/exersio/internal/client/client"
	"github.com/dmitrijs2005/exersio/internal/client/config"
	"github.com/dmitrijs2005/exersio/internal/client/connectivity"
	"github.com/dmitrijs2005/exersio/internal/client/models"
	"github.com/dmitrijs2005/exersio/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/exersio/internal/client/repositories/records"
	"github.com/dmitrijs2005/exersio/internal/client/services"
	"github.com/dmitrijs2005/exersio/internal/logging"
)

type syncService interface {
	SyncAll(ctx context.Context) (*services.SyncResult, error)
	DownloadAll(ctx context.Context) (*services.DownloadResult, error)
	GetConflicts(ctx context.Context) ([]services.Conflict, error)
	ResolveConflict(ctx context.Context, kind models.Kind, id, choice string) error
	Status(ctx context.Context) (*services.Status, error)
	ClearLocalData(ctx context.Context) error
}

type exerciseService interface {
	List(ctx context.Context) ([]*services.Item[*models.Exercise], error)
	Get(ctx context.Context, id string) (*services.Item[*models.Exercise], error)
	Create(ctx context.Context, v *models.Exercise) (*services.Item[*models.Exercise], error)
	Update(ctx context.Context, v *models.Exercise) (*services.Item[*models.Exercise], error)
	Delete(ctx context.Context, id string) error
	UploadImage(ctx context.Context, id, path string) (string, error)
	Share(ctx context.Context, id, clubID string) error
	Permissions(ctx context.Context, id string) (*client.Permissions, error)
}

type sessionService interface {
	List(ctx context.Context) ([]*services.Item[*models.Session], error)
	Get(ctx context.Context, id string) (*services.Item[*models.Session], error)
	Create(ctx context.Context, v *models.Session) (*services.Item[*models.Session], error)
	Delete(ctx context.Context, id string) error
}

type clubClient interface {
	ListClubs(ctx context.Context) ([]client.Club, error)
	CreateClub(ctx context.Context, name string) (*client.Club, error)
	AddClubMember(ctx context.Context, clubID, userID, role string) error
}

// network is the part of connectivity.Observer the App uses.
type network interface {
	IsOnline() bool
	Mode() string
	Subscribe(fn func(online bool)) func()
	Watch(ctx context.Context, interval time.Duration, p connectivity.Pinger)
}

type App struct {
	config    *config.Config
	log       logging.Logger
	auth      services.AuthService
	sync      syncService
	exercises exerciseService
	sessions  sessionService
	clubs     clubClient
	net       network
	db        *sql.DB

	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api, err := client.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	rec := records.NewSQLiteRepository(db)
	meta := metadata.NewSQLiteRepository(db)
	net := connectivity.New(log.With("module", "connectivity"))

	return &App{
		config:    c,
		log:       log,
		auth:      services.NewAuthService(api, meta, rec, log),
		sync:      services.NewSyncService(api, rec, meta, net, log),
		exercises: services.NewExerciseService(api, rec, net, log),
		sessions:  services.NewSessionService(api, rec, net, log),
		clubs:     api,
		net:       net,
		db:        db,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}, nil
}

// Run starts the connectivity watcher and blocks in the REPL until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer func() {
		_ = a.auth.Close(ctx)
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	if user, err := a.auth.CurrentUser(ctx); err == nil {
		a.userName = user
	}

	unsubscribe := a.net.Subscribe(func(online bool) {
		printlnFn(fmt.Sprintf("Switched to %s mode", a.net.Mode()))
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.net.Watch(ctx, a.config.OnlineCheckInterval, a.auth)

	printlnFn("Welcome to Exersio CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	s += a.net.Mode()
	return fmt.Sprintf("(%s)", s)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
