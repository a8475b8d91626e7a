// Package bootstrap performs the cold-start wiring shared by the IR lambdas
package bootstrap

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"irtracker/lib/clients"
	"irtracker/lib/constants"
	"irtracker/lib/data"
	"irtracker/lib/session"
	"irtracker/lib/util"

	"github.com/sirupsen/logrus"
)

// DefaultCacheTTL applies when REFERENCE_CACHE_TTL is not configured
const DefaultCacheTTL = 5 * time.Minute

// Runtime holds the dependencies a lambda handler needs
type Runtime struct {
	Logger   *logrus.Logger
	IsLocal  bool
	Params   map[string]string
	DB       *sql.DB
	IRAPI    *clients.IRAPIClient
	Sessions *session.Manager
}

// ParseIsLocal reads IS_LOCAL
func ParseIsLocal() bool {
	isLocal, _ := strconv.ParseBool(os.Getenv(constants.ENV_IS_LOCAL))
	return isLocal
}

// Load reads SSM parameters, opens the session database and builds the IR API
// client and session manager
func Load(name string) (*Runtime, error) {
	rt := &Runtime{IsLocal: ParseIsLocal()}
	rt.Logger = util.NewLogger(rt.IsLocal, os.Getenv(constants.ENV_LOG_LEVEL))

	ssmRepository := &data.SSMDao{
		SSM:    clients.NewSSMClient(rt.IsLocal),
		Logger: rt.Logger,
	}
	params, err := ssmRepository.GetParameters()
	if err != nil {
		return nil, fmt.Errorf("error while getting SSM params from parameter store: %w", err)
	}
	rt.Params = params

	rt.Logger.WithFields(logrus.Fields{
		"operation":    "Load",
		"lambda":       name,
		"params_count": len(params),
	}).Debug("Retrieved SSM parameters")

	rt.DB, err = clients.NewPostgresSQLClient(clients.PostgresParams(params))
	if err != nil {
		return nil, fmt.Errorf("error creating PostgreSQL client: %w", err)
	}

	rt.IRAPI = clients.NewIRAPIClient(
		params[constants.API_URL],
		data.DurationParam(params, constants.REFERENCE_CACHE_TTL, DefaultCacheTTL),
		rt.Logger,
	)

	rt.Sessions = session.NewManager(&data.SessionDao{DB: rt.DB, Logger: rt.Logger}, rt.IRAPI, rt.Logger)
	rt.Sessions.Window = data.DurationParam(params, constants.SESSION_WINDOW, session.DefaultWindow)

	rt.Logger.WithFields(logrus.Fields{
		"operation": "Load",
		"lambda":    name,
	}).Info("Lambda initialization completed successfully")
	return rt, nil
}

// MustLoad is Load for init functions: failures are fatal
func MustLoad(name string) *Runtime {
	rt, err := Load(name)
	if err != nil {
		logger := util.NewLogger(ParseIsLocal(), os.Getenv(constants.ENV_LOG_LEVEL))
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"lambda":    name,
			"error":     err.Error(),
		}).Fatal("Lambda initialization failed")
	}
	return rt
}
