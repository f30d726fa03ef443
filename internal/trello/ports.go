package trello

import (
	"context"

	"boardview/internal/core"
)

// Ports for inbound board data.
type (
	// BoardReader fetches the raw collections of a single board.
	BoardReader interface {
		BoardID() string
		Labels(ctx context.Context) ([]core.Label, error)
		Cards(ctx context.Context) ([]core.Card, error)
		Lists(ctx context.Context) ([]core.List, error)
		Members(ctx context.Context) ([]core.Member, error)
		CustomFields(ctx context.Context) ([]core.CustomField, error)
	}
)
