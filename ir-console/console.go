package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"irtracker/lib/bootstrap"
	"irtracker/lib/clients"
	"irtracker/lib/constants"
	"irtracker/lib/data"
	"irtracker/lib/models"
	"irtracker/lib/session"
	"irtracker/lib/store"
	"irtracker/lib/util"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in, run `ir-console login` first")

// currentSession remembers which session the console acts with
type currentSession interface {
	SetCurrent(ctx context.Context, id string) error
	Current(ctx context.Context) (string, error)
}

// config is read from the environment (and .env)
type config struct {
	APIURL       string
	SessionDB    string
	PollInterval time.Duration
	LogLevel     string
}

func loadConfig() (config, error) {
	cfg := config{
		APIURL:       strings.TrimSpace(os.Getenv(constants.ENV_API_URL)),
		SessionDB:    strings.TrimSpace(os.Getenv(constants.ENV_SESSION_DB)),
		PollInterval: store.DefaultInterval,
		LogLevel:     os.Getenv(constants.ENV_LOG_LEVEL),
	}
	if cfg.APIURL == "" {
		return config{}, fmt.Errorf("%s is not set", constants.ENV_API_URL)
	}

	if cfg.SessionDB == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return config{}, fmt.Errorf("cannot locate a config directory, set %s: %w", constants.ENV_SESSION_DB, err)
		}
		cfg.SessionDB = filepath.Join(dir, "irtracker", "session.db")
	}

	if raw := strings.TrimSpace(os.Getenv(constants.ENV_POLL_INTERVAL)); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval <= 0 {
			return config{}, fmt.Errorf("invalid %s %q", constants.ENV_POLL_INTERVAL, raw)
		}
		cfg.PollInterval = interval
	}
	return cfg, nil
}

// console holds the dependencies shared by every command
type console struct {
	api      clients.IRAPIClientInterface
	sessions *session.Manager
	current  currentSession
	logger   *logrus.Logger
	interval time.Duration
	db       *sql.DB
}

// open wires the console from configuration unless it is already wired
func (c *console) open(ctx context.Context) error {
	if c.api != nil {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c.logger = util.NewLogger(false, cfg.LogLevel)
	c.logger.SetOutput(os.Stderr)
	c.interval = cfg.PollInterval

	c.db, err = clients.NewSQLiteClient(cfg.SessionDB)
	if err != nil {
		return err
	}
	dao := &data.SQLiteSessionDao{DB: c.db, Logger: c.logger}
	if err := dao.EnsureSchema(ctx); err != nil {
		return err
	}

	api := clients.NewIRAPIClient(cfg.APIURL, bootstrap.DefaultCacheTTL, c.logger)
	c.api = api
	c.current = dao
	c.sessions = session.NewManager(dao, api, c.logger)
	return nil
}

func (c *console) close() {
	if c.db != nil {
		c.db.Close()
	}
}

// authorize resolves the remembered session, sliding its window
func (c *console) authorize(ctx context.Context, roles ...string) (models.Session, error) {
	id, err := c.current.Current(ctx)
	if errors.Is(err, session.ErrNotFound) {
		return models.Session{}, errNotLoggedIn
	}
	if err != nil {
		return models.Session{}, err
	}

	sess, err := c.sessions.Authorize(ctx, id, roles...)
	switch {
	case errors.Is(err, session.ErrSessionExpired), errors.Is(err, session.ErrNotFound):
		return models.Session{}, fmt.Errorf("session expired, log in again: %w", err)
	case errors.Is(err, session.ErrForbidden):
		return models.Session{}, fmt.Errorf("this command needs one of the roles %s: %w", strings.Join(roles, ", "), err)
	}
	return sess, err
}

// loadStore reloads the records visible to sess
func (c *console) loadStore(ctx context.Context, sess models.Session) (*store.Store, error) {
	s := store.New(c.api, sess.User.Role, sess.User.Username, c.logger)
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newRootCommand(app *console) *cobra.Command {
	root := &cobra.Command{
		Use:           "ir-console",
		Short:         "Inspection request tracker console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(cmd.Context())
		},
	}

	root.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newRecordsCommand(app),
		newWatchCommand(app),
		newExportCommand(app),
		newNextIDCommand(app),
		newBulkCommand(app),
		newDocumentCommand(app),
	)
	for _, action := range []store.Action{store.ActionApprove, store.ActionReject, store.ActionArchive, store.ActionUnarchive, store.ActionDelete} {
		root.AddCommand(newActionCommand(app, action))
	}
	root.AddCommand(newRenumberCommand(app))
	return root
}
