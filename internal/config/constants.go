package config

const (
	// DefaultDatabasePath is the default path for the library database.
	DefaultDatabasePath = "./garage-library.db"

	// DevTokenSecret is only a fallback for local development. Set
	// JWT_SECRET in any real deployment.
	DevTokenSecret = "dev-secret-do-not-use-in-production"
)
