package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// SeenService maintains the per-user "last seen" watermarks that drive the
// unread badges on listing screens.
type SeenService struct {
	seen     repository.SeenRepository
	tickets  repository.TicketRepository
	messages repository.MessageRepository
	attempts int
	backoff  time.Duration
}

// NewSeenService constructs the service.
func NewSeenService(cfg config.StorageConfig, seen repository.SeenRepository, tickets repository.TicketRepository, messages repository.MessageRepository) *SeenService {
	return &SeenService{
		seen:     seen,
		tickets:  tickets,
		messages: messages,
		attempts: cfg.RetryAttempts,
		backoff:  cfg.RetryBackoff(),
	}
}

var sectionStatus = map[domain.Section]domain.TicketStatus{
	domain.SectionOpen:       domain.TicketStatusOpen,
	domain.SectionInProgress: domain.TicketStatusInProgress,
	domain.SectionSuspended:  domain.TicketStatusSuspended,
	domain.SectionCompleted:  domain.TicketStatusCompleted,
	domain.SectionCancelled:  domain.TicketStatusCancelled,
}

// MarkSectionSeen moves the section watermark to now.
func (s *SeenService) MarkSectionSeen(ctx context.Context, actor *domain.User, section domain.Section) error {
	if !domain.ValidSection(section) {
		return apperrors.NewValidationError("seção desconhecida: "+string(section), nil)
	}
	return repository.WithRetry(ctx, s.attempts, s.backoff, func(ctx context.Context) error {
		return s.seen.UpsertSection(ctx, actor.ID, section, time.Now())
	})
}

// MarkTicketsSeen moves the per-ticket watermarks for every listed id in one
// transaction, retried under lock contention.
func (s *SeenService) MarkTicketsSeen(ctx context.Context, actor *domain.User, ticketIDs []string) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	return repository.WithRetry(ctx, s.attempts, s.backoff, func(ctx context.Context) error {
		return s.seen.UpsertTicketViews(ctx, actor.ID, ticketIDs, time.Now())
	})
}

// UnreadSections returns, per section, how many tickets in the actor's scope
// changed since the section was last visited. A never-visited section counts
// everything in it.
func (s *SeenService) UnreadSections(ctx context.Context, actor *domain.User) (map[domain.Section]int, error) {
	out := make(map[domain.Section]int, len(sectionStatus))
	for section, status := range sectionStatus {
		filter := repository.TicketFilter{Statuses: []domain.TicketStatus{status}}
		applyActorScope(&filter, actor)

		view, err := s.seen.GetSection(ctx, actor.ID, section)
		switch {
		case err == nil:
			since := view.LastSeen
			filter.UpdatedSince = &since
		case errors.Is(err, pgx.ErrNoRows):
			// Never visited: every ticket in the section counts.
		default:
			return nil, err
		}
		counts, err := s.tickets.CountByStatus(ctx, filter)
		if err != nil {
			return nil, err
		}
		out[section] = counts[status]
	}
	return out, nil
}

// NewMessageFlags reports, per ticket, whether someone else posted a public
// message after the actor last opened that ticket.
func (s *SeenService) NewMessageFlags(ctx context.Context, actor *domain.User, ticketIDs []string) (map[string]bool, error) {
	flags := make(map[string]bool, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return flags, nil
	}
	latest, err := s.messages.LatestPublicFromOthers(ctx, ticketIDs, actor.ID)
	if err != nil {
		return nil, err
	}
	views, err := s.seen.MapTicketViews(ctx, actor.ID, ticketIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range ticketIDs {
		last, ok := latest[id]
		if !ok {
			flags[id] = false
			continue
		}
		seenAt, visited := views[id]
		flags[id] = !visited || last.After(seenAt)
	}
	return flags, nil
}
