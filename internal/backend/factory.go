// Package backend builds the board reader selected by configuration.
package backend

import (
	"fmt"
	"log/slog"

	"boardview/internal/config"
	"boardview/internal/trello"
	"boardview/internal/trello/api"
	"boardview/internal/trello/memory"
)

// Type identifies where board data comes from.
type Type string

const (
	TrelloBackend Type = config.BackendTrello
	MemoryBackend Type = config.BackendMemory
)

// IsValid reports whether the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case TrelloBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Factory creates board readers.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// NewReader returns the reader for cfg.DataBackend.
func (f *Factory) NewReader(cfg *config.Config) (trello.BoardReader, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case TrelloBackend:
		return f.createTrelloBackend(cfg)
	default:
		return f.createMemoryBackend(cfg)
	}
}

func (f *Factory) createTrelloBackend(cfg *config.Config) (trello.BoardReader, error) {
	client, err := api.New(api.Config{
		BaseURL:   cfg.TrelloBaseURL,
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		Token:     cfg.Token,
		BoardID:   cfg.BoardID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize board API client: %w", err)
	}

	f.logger.Info("Initialized board API backend",
		"board_id", cfg.BoardID,
		"base_url", cfg.TrelloBaseURL)
	return client, nil
}

func (f *Factory) createMemoryBackend(cfg *config.Config) (trello.BoardReader, error) {
	store, err := memory.NewFromDir(cfg.FixturesDir, cfg.BoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load board fixtures from %s: %w", cfg.FixturesDir, err)
	}

	f.logger.Info("Initialized memory backend", "fixtures_dir", cfg.FixturesDir)
	return store, nil
}
