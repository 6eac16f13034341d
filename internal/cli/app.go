// Package cli is the interactive catalog console: sign in, browse your own
// or another owner's catalog, edit the working entry list, and push it to
// the cloud with a full-replace save.
package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/mbx/modelbox/internal/assets"
	"github.com/mbx/modelbox/internal/auth"
	"github.com/mbx/modelbox/internal/config"
	"github.com/mbx/modelbox/internal/logging"
	"github.com/mbx/modelbox/internal/models"
	"github.com/mbx/modelbox/internal/notify"
	"github.com/mbx/modelbox/internal/owners"
	"github.com/mbx/modelbox/internal/prefs"
	"github.com/mbx/modelbox/internal/profiles"
	"github.com/mbx/modelbox/internal/records"
	"github.com/mbx/modelbox/internal/session"
	"github.com/mbx/modelbox/internal/similar"
	"github.com/mbx/modelbox/internal/store"
	"github.com/mbx/modelbox/internal/syncer"
)

// localImports is the in-memory blob cache fed by the "stage" command. It
// lets a save resolve images that exist only on this machine.
type localImports map[string][]byte

func (c localImports) GetLocalBlobByName(name string) ([]byte, bool) {
	b, ok := c[name]
	return b, ok
}

type App struct {
	config    *config.Config
	logger    logging.Logger
	auth      *auth.Service
	session   *session.Resolver
	engine    *syncer.Engine
	index     *similar.Index
	directory *owners.Directory
	notifier  *notify.Notifier
	guard     similar.Guard
	staged    localImports

	reader  *bufio.Reader
	token   string
	entries []models.Entry // working copy of the effective owner's catalog
	dirty   atomic.Bool    // remote changed since entries were loaded
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := store.RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	prefsDB, err := prefs.Open(ctx, cfg.PrefsDSN)
	if err != nil {
		return nil, err
	}

	recordsRepo := records.NewPostgresRepository(db)
	profilesRepo := profiles.NewPostgresRepository(db)

	sess := session.NewResolver(prefs.NewSQLiteStore(prefsDB), logger)

	staged := localImports{}
	blobStore, err := assets.NewS3Store(cfg)
	if err != nil {
		return nil, err
	}
	resolver := assets.NewResolver(blobStore, staged, cfg.AssetDir, logger)

	app := &App{
		config:    cfg,
		logger:    logger,
		auth:      auth.NewService(profilesRepo, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration),
		session:   sess,
		engine:    syncer.NewEngine(db, blobStore, resolver, sess, logger),
		index:     similar.NewIndex(recordsRepo, profilesRepo),
		directory: owners.NewDirectory(profilesRepo, recordsRepo, sess, logger),
		staged:    staged,
		reader:    bufio.NewReader(os.Stdin),
	}

	app.notifier = notify.NewNotifier(cfg.DatabaseDSN, app.onRemoteChange, logger)

	sess.OnChange(func() {
		app.entries = nil
		app.resubscribe(ctx)
	})

	return app, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.notifier.Stop()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

// onRemoteChange runs on the notifier goroutine; it only flips a flag the
// REPL surfaces on the next prompt.
func (a *App) onRemoteChange() {
	a.dirty.Store(true)
}

func (a *App) resubscribe(ctx context.Context) {
	if !a.config.RealtimeEnabled || !a.isLoggedIn() {
		a.notifier.Stop()
		return
	}
	a.notifier.Subscribe(ctx, a.session.EffectiveOwner(ctx))
}
