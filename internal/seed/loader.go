package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Loader reads a seed catalog from some location.
type Loader interface {
	Load(ctx context.Context, path string) (*Catalog, error)
}

// fileLoader reads gzipped catalog files from the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based catalog loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "seed-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, filePath string) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.logger.Info().Str("file", filePath).Msg("loading seed catalog")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open seed file")
		return nil, fmt.Errorf("failed to open seed file %s: %w", filePath, err)
	}
	defer file.Close()

	c, err := Decode(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read seed file")
		return nil, fmt.Errorf("seed file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("products", len(c.Products)).
		Int("orders", len(c.Orders)).
		Msg("seed catalog loaded")
	return c, nil
}

// defaultLoader ignores the path and returns the built-in catalog.
type defaultLoader struct{}

// NewDefaultLoader returns a Loader that always yields Default().
func NewDefaultLoader() Loader { return defaultLoader{} }

func (defaultLoader) Load(ctx context.Context, _ string) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Default(), nil
}
