package config

// Default locations for run artifacts
const (
	// DefaultDestinationPath is the default SQLite destination database
	DefaultDestinationPath = "./content.db"

	// DefaultStateDir holds the progress file, run lock and task queue
	DefaultStateDir = "./state"

	// DefaultMediaDir is where transferred media assets land
	DefaultMediaDir = "./media"

	// DefaultAuditDir is where per-run failure reports are written
	DefaultAuditDir = "./audit"
)

// File names inside the state directory
const (
	ProgressFileName = "progress.json"
	LockFileName     = "import.lock"
	TasksDBFileName  = "tasks.db"
)

// Destination driver names
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)
