package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardview/internal/config"
	"boardview/internal/trello/api"
	"boardview/internal/trello/memory"
)

func TestType_IsValid(t *testing.T) {
	assert.True(t, TrelloBackend.IsValid())
	assert.True(t, MemoryBackend.IsValid())
	assert.False(t, Type("sheets").IsValid())
}

func TestFactory_NewReader(t *testing.T) {
	f := NewFactory(nil)

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
		check   func(t *testing.T, cfg config.Config)
	}{
		{
			name: "memory",
			cfg:  config.Config{DataBackend: config.BackendMemory, FixturesDir: filepath.Join("..", "..", "data", "board"), BoardID: "dev"},
			check: func(t *testing.T, cfg config.Config) {
				r, err := f.NewReader(&cfg)
				require.NoError(t, err)
				assert.IsType(t, &memory.Store{}, r)
				assert.Equal(t, "dev", r.BoardID())
				cards, err := r.Cards(context.Background())
				require.NoError(t, err)
				assert.NotEmpty(t, cards)
			},
		},
		{
			name: "trello",
			cfg:  config.Config{DataBackend: config.BackendTrello, APIKey: "k", Token: "t", BoardID: "b1"},
			check: func(t *testing.T, cfg config.Config) {
				r, err := f.NewReader(&cfg)
				require.NoError(t, err)
				assert.IsType(t, &api.Client{}, r)
				assert.Equal(t, "b1", r.BoardID())
			},
		},
		{name: "trello without token", cfg: config.Config{DataBackend: config.BackendTrello, APIKey: "k", BoardID: "b1"}, wantErr: true},
		{name: "unknown", cfg: config.Config{DataBackend: "sheets"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr {
				_, err := f.NewReader(&tt.cfg)
				assert.Error(t, err)
				return
			}
			tt.check(t, tt.cfg)
		})
	}
}
