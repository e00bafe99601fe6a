package backend

import (
	"fmt"

	"jbudget/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		DataDirectory:    appConfig.DataDir,
		TransactionsFile: appConfig.TransactionsFile,
		TagsFile:         appConfig.TagsFile,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		TagsSeedFile: appConfig.TagsSeedFile,
	}, nil
}

// WithType returns a copy of c targeting another backend, keeping every
// path setting. Used when copying between backends.
func (c Config) WithType(t BackendType) Config {
	c.Type = t
	return c
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case XMLBackend:
		if c.DataDirectory == "" {
			return fmt.Errorf("data directory is required for xml backend")
		}
		if c.TransactionsFile == "" || c.TagsFile == "" {
			return fmt.Errorf("transactions and tags file names are required for xml backend")
		}

	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}

	case MemoryBackend:
		// An empty seed file means the built-in default tags
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{XMLBackend, SQLiteBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
