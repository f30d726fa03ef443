package board

import (
	"context"
	"fmt"
	"time"

	"boardview/internal/core"
	"boardview/internal/log"
	"boardview/internal/trello"
)

const DefaultFetchTimeout = 15 * time.Second

// Service fetches and indexes the board on every call. Nothing is kept
// between calls.
type Service struct {
	reader  trello.BoardReader
	layout  core.Layout
	timeout time.Duration
	logger  *log.StructuredLogger
}

func NewService(reader trello.BoardReader, layout core.Layout, timeout time.Duration, logger *log.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = log.FromSlog(nil, log.ComponentBoard)
	}
	return &Service{
		reader:  reader,
		layout:  layout.Merge(core.DefaultLayout()),
		timeout: timeout,
		logger:  log.NewStructuredLogger(logger),
	}
}

// BoardID returns the id of the board the service reads.
func (s *Service) BoardID() string { return s.reader.BoardID() }

// Index fetches a fresh snapshot and indexes it.
func (s *Service) Index(ctx context.Context) (*Index, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	snap, err := Load(ctx, s.reader)
	if err != nil {
		s.logger.LogError(ctx, "Board fetch failed", err, log.ComponentBoard, log.OpFetch,
			log.NewFields().WithBoard(s.reader.BoardID(), 0, 0, 0, 0))
		return nil, fmt.Errorf("load board %s: %w", s.reader.BoardID(), err)
	}
	s.logger.LogBoardFetched(ctx, snap.BoardID, len(snap.Cards), len(snap.Lists), len(snap.Labels), len(snap.Members),
		time.Since(start).Milliseconds())

	return NewIndex(snap, s.layout), nil
}
