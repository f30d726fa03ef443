package board

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"boardview/internal/core"
	"boardview/internal/trello"
)

// Load fetches every collection of the board concurrently. The first
// failing fetch cancels the others.
func Load(ctx context.Context, r trello.BoardReader) (core.Snapshot, error) {
	snap := core.Snapshot{BoardID: r.BoardID()}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Labels, err = r.Labels(ctx)
		return wrapFetch("labels", err)
	})
	g.Go(func() (err error) {
		snap.Cards, err = r.Cards(ctx)
		return wrapFetch("cards", err)
	})
	g.Go(func() (err error) {
		snap.Lists, err = r.Lists(ctx)
		return wrapFetch("lists", err)
	})
	g.Go(func() (err error) {
		snap.Members, err = r.Members(ctx)
		return wrapFetch("members", err)
	})
	g.Go(func() (err error) {
		snap.CustomFields, err = r.CustomFields(ctx)
		return wrapFetch("custom fields", err)
	})

	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}
	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

func wrapFetch(what string, err error) error {
	if err != nil {
		return fmt.Errorf("fetch %s: %w", what, err)
	}
	return nil
}
