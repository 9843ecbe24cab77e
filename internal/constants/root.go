package constants

import "time"

const (
	AppName            = "habitt"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/habitt"
	DefaultStorePath   = "~/.config/habitt/habitt.db"
	DefaultConfigFile  = "~/.config/habitt/config.yaml"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Environment variables
	EnvDBConnection   = "HABITT_DB_CONNECTION"
	EnvTestPostgres   = "HABITT_TEST_POSTGRES"
	DefaultTimezone   = "Local" // Use system local timezone by default
	SnapshotBlobKey   = "habitt_state"
	SnapshotSaveLimit = 10 * time.Second

	// Log file rotation
	LogDirName    = "logs"
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitt-"
	BackupFileSuffix = ".json"

	// Backends
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendJSON     = "json"
	BackendBadger   = "badger"
)
