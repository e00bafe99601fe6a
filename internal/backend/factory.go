package backend

import (
	"context"
	"fmt"

	"jbudget/internal/log"
	"jbudget/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case XMLBackend:
		return f.createXMLBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createXMLBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := storage.NewXMLStoreInDir(config.DataDirectory, config.TransactionsFile, config.TagsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize XML store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized XML backend",
		log.FieldPath, config.DataDirectory,
		"transactions_file", config.TransactionsFile,
		"tags_file", config.TagsFile)

	return &BackendResult{Store: store}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", log.FieldPath, config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store := storage.NewMemoryStoreFromFile(config.TagsSeedFile)

	f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.TagsSeedFile)

	return &BackendResult{Store: store}, nil
}
