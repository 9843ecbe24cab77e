package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitt/internal/config"
	"github.com/julianstephens/habitt/internal/constants"
	apperrors "github.com/julianstephens/habitt/internal/errors"
	"github.com/julianstephens/habitt/internal/keyring"
	"github.com/julianstephens/habitt/internal/logger"
	"github.com/julianstephens/habitt/internal/storage"
	"github.com/julianstephens/habitt/internal/storage/badger"
	"github.com/julianstephens/habitt/internal/storage/postgres"
	"github.com/julianstephens/habitt/internal/storage/sqlite"
)

// OpenGateway builds the persistence gateway selected by cfg. Nothing is
// touched on disk or over the network until the gateway is used.
func OpenGateway(cfg config.Config, loc *time.Location) (storage.Gateway, error) {
	backend := cfg.ResolvedBackend()
	switch backend {
	case constants.BackendSQLite:
		return sqlite.New(cfg.StorePath(), loc), nil
	case constants.BackendJSON:
		return storage.NewJSONStore(cfg.StorePath(), loc), nil
	case constants.BackendBadger:
		bcfg := badger.DefaultConfig(cfg.StorePath())
		bcfg.Location = loc
		bcfg.Logger = logger.Named("badger")
		return badger.New(bcfg)
	case constants.BackendPostgres:
		return openPostgres(cfg, loc)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func openPostgres(cfg config.Config, loc *time.Location) (storage.Gateway, error) {
	connStr, source, err := keyring.ResolveConnectionString(cfg.Store)
	if err != nil {
		return nil, apperrors.WithHint(err,
			"store a DSN with 'habitt keyring set' or export "+constants.EnvDBConnection)
	}

	if _, err := postgres.ValidateConnString(connStr); err != nil {
		if errors.Is(err, postgres.ErrEmbeddedCredentials) && source != keyring.SourceFlag {
			// the keyring and environment are trusted places for a password
			logger.Debug("Using PostgreSQL connection string with embedded password", "source", source)
		} else {
			return nil, apperrors.WithHint(fmt.Errorf("invalid PostgreSQL connection string from %s: %w", source, err),
				"use the OS keyring, "+constants.EnvDBConnection+" or a .pgpass file for passwords")
		}
	}

	logger.Debug("Using PostgreSQL store", "source", source)
	return postgres.New(connStr, loc), nil
}
