package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// SubmitLocker guards ticket creation against double submits.
// *persistence.Redis is the production implementation.
type SubmitLocker interface {
	AcquireSubmitLock(ctx context.Context, userID, token string, ttl time.Duration) (bool, error)
	ReleaseSubmitLock(ctx context.Context, userID, token string)
	MarkSubmitDone(ctx context.Context, userID, token, ticketID string)
}

var _ SubmitLocker = (*persistence.Redis)(nil)

// TicketService coordinates ticket creation, listing and the status workflow.
type TicketService struct {
	tickets    repository.TicketRepository
	types      repository.RequestTypeRepository
	messages   repository.MessageRepository
	users      repository.UserRepository
	locker     SubmitLocker
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.TicketsConfig
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo      repository.TicketRepository
	RequestTypeRepo repository.RequestTypeRepository
	MessageRepo     repository.MessageRepository
	UserRepo        repository.UserRepository
	Locker          SubmitLocker
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	Config          config.TicketsConfig
}

// AnswerInput carries one raw answer for a request type question.
type AnswerInput struct {
	QuestionID string
	Value      string
	// Values is used by multichoice questions; persisted joined with ";".
	Values  []string
	FileKey string
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	RequestTypeID string
	Answers       []AnswerInput
	AttachmentKey string
	// IdempotencyToken suppresses duplicate double-submits when present.
	IdempotencyToken string
}

// TicketListFilter describes listing filters on top of the caller's scope.
type TicketListFilter struct {
	RequestTypeIDs []string
	Statuses       []domain.TicketStatus
	SearchTerm     *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}

// ActionInput describes a workflow action applied to a ticket.
type ActionInput struct {
	Action domain.TicketAction
	// Note is the operator's treatment text.
	Note   string
	Reason string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		types:      deps.RequestTypeRepo,
		messages:   deps.MessageRepo,
		users:      deps.UserRepo,
		locker:     deps.Locker,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        deps.Config,
	}
}

// CreateTicket validates the answer set against the request type and creates
// the ticket with all answers in one transaction. Nothing is persisted when a
// required non-file question is missing.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	reqType, err := s.types.GetByID(ctx, input.RequestTypeID)
	if err != nil {
		return nil, err
	}
	if !reqType.VisibleTo(actor) {
		return nil, apperrors.NewForbidden("tipo de solicitação indisponível para o seu setor")
	}

	locked := false
	if input.IdempotencyToken != "" && s.locker != nil {
		acquired, err := s.locker.AcquireSubmitLock(ctx, actor.ID, input.IdempotencyToken, s.cfg.IdempotencyTTL())
		if err != nil {
			s.logger.Warn("idempotency lock unavailable", zap.Error(err))
		} else if !acquired {
			return nil, apperrors.NewConflict("envio duplicado detectado, aguarde a confirmação", nil)
		} else {
			locked = true
		}
	}

	answers, err := buildAnswers(reqType, input.Answers)
	if err != nil {
		if locked {
			s.locker.ReleaseSubmitLock(ctx, actor.ID, input.IdempotencyToken)
		}
		return nil, err
	}

	ticket := &domain.Ticket{
		RequesterID:   actor.ID,
		RequestTypeID: reqType.ID,
		Status:        domain.TicketStatusOpen,
		AttachmentKey: input.AttachmentKey,
		Answers:       answers,
	}
	if err := s.tickets.CreateWithAnswers(ctx, ticket); err != nil {
		if locked {
			s.locker.ReleaseSubmitLock(ctx, actor.ID, input.IdempotencyToken)
		}
		return nil, err
	}
	if locked {
		s.locker.MarkSubmitDone(ctx, actor.ID, input.IdempotencyToken, ticket.ID)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			RequestTypeID:   reqType.ID,
			RequestTypeName: reqType.Name,
			RequesterID:     actor.ID,
		},
	})
	return ticket, nil
}

// buildAnswers normalizes raw answers into persisted values. Missing required
// answers abort the whole creation; the error names the offending question.
func buildAnswers(reqType *domain.RequestType, inputs []AnswerInput) ([]domain.Answer, error) {
	byQuestion := make(map[string]AnswerInput, len(inputs))
	for _, in := range inputs {
		byQuestion[in.QuestionID] = in
	}

	answers := make([]domain.Answer, 0, len(reqType.Questions))
	for _, q := range reqType.ActiveQuestions() {
		in, ok := byQuestion[q.ID]
		value, err := normalizeAnswerValue(q, in)
		if err != nil {
			return nil, err
		}
		if value == "" && in.FileKey == "" {
			if q.Required && q.Kind != domain.FieldFile {
				return nil, apperrors.NewValidationError(
					fmt.Sprintf("o campo obrigatório %q não foi preenchido", q.Text), nil)
			}
			if !ok {
				continue
			}
		}
		answers = append(answers, domain.Answer{
			QuestionID: q.ID,
			Value:      value,
			FileKey:    in.FileKey,
		})
	}
	return answers, nil
}

func normalizeAnswerValue(q domain.Question, in AnswerInput) (string, error) {
	switch q.Kind {
	case domain.FieldMultiChoice:
		picked := in.Values
		if len(picked) == 0 && in.Value != "" {
			picked = domain.ParseOptionList(in.Value)
		}
		return strings.Join(picked, ";"), nil
	case domain.FieldBoolean:
		if strings.TrimSpace(in.Value) == "" {
			return "", nil
		}
		v, err := strconv.ParseBool(strings.TrimSpace(in.Value))
		if err != nil {
			return "", apperrors.NewValidationError(
				fmt.Sprintf("valor inválido para o campo %q", q.Text), nil)
		}
		return strconv.FormatBool(v), nil
	case domain.FieldInteger:
		trimmed := strings.TrimSpace(in.Value)
		if trimmed == "" {
			return "", nil
		}
		if _, err := strconv.Atoi(trimmed); err != nil {
			return "", apperrors.NewValidationError(
				fmt.Sprintf("valor inválido para o campo %q", q.Text), nil)
		}
		return trimmed, nil
	default:
		return strings.TrimSpace(in.Value), nil
	}
}

// GetTicket fetches a ticket plus its conversation, enforcing read scope.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, []domain.Message, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	allowed, err := s.canView(ctx, actor, ticket)
	if err != nil {
		return nil, nil, err
	}
	if !allowed {
		return nil, nil, apperrors.NewForbidden("acesso negado ao chamado")
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID, !actor.Privileged())
	if err != nil {
		return nil, nil, err
	}
	return ticket, msgs, nil
}

// ListTickets returns tickets visible to the actor with the given filters.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		RequestTypeIDs: filter.RequestTypeIDs,
		Statuses:       filter.Statuses,
		SearchTerm:     filter.SearchTerm,
		CreatedFrom:    filter.CreatedFrom,
		CreatedTo:      filter.CreatedTo,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	}
	applyActorScope(&repoFilter, actor)
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// SectionCounts returns per-status totals within the actor's scope.
func (s *TicketService) SectionCounts(ctx context.Context, actor *domain.User) (map[domain.TicketStatus]int, error) {
	var filter repository.TicketFilter
	applyActorScope(&filter, actor)
	return s.tickets.CountByStatus(ctx, filter)
}

// PostMessage appends one conversation entry. Non-privileged authors always
// post publicly, whatever visibility they asked for.
func (s *TicketService) PostMessage(ctx context.Context, actor *domain.User, ticketID, body, attachmentKey string, visibility domain.MessageVisibility) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" && attachmentKey == "" {
		return nil, apperrors.NewValidationError("mensagem vazia", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.Privileged() && ticket.RequesterID != actor.ID && !ticket.AssignedTo(actor.ID) {
		return nil, apperrors.NewForbidden("acesso negado ao chamado")
	}
	if !actor.Privileged() || visibility == "" {
		visibility = domain.VisibilityPublic
	}

	msg := &domain.Message{
		TicketID:      ticket.ID,
		AuthorID:      actor.ID,
		AuthorName:    actor.DisplayName(),
		Body:          body,
		AttachmentKey: attachmentKey,
		Visibility:    visibility,
		EventKind:     domain.EventKindMessage,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	if visibility == domain.VisibilityPublic {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketMessagePosted,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Payload: events.TicketMessagePostedPayload{
				MessageID:  msg.ID,
				AuthorID:   actor.ID,
				Visibility: visibility,
			},
		})
	}
	return msg, nil
}

// ApplyAction runs one workflow action through the transition guard table.
func (s *TicketService) ApplyAction(ctx context.Context, actor *domain.User, ticketID string, input ActionInput) (*domain.Ticket, error) {
	if !actor.Privileged() {
		return nil, apperrors.NewForbidden("ação restrita à equipe de atendimento")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Terminal() && !actor.IsSuperuser {
		return nil, apperrors.NewValidationError("chamado encerrado não aceita alterações", nil)
	}

	note := strings.TrimSpace(input.Note)
	reason := strings.TrimSpace(input.Reason)
	oldStatus := ticket.Status

	switch input.Action {
	case domain.ActionSaveNote, domain.ActionSuspend, domain.ActionCancel, domain.ActionComplete:
		// An in-progress ticket is locked to its assignee.
		if ticket.Status == domain.TicketStatusInProgress && ticket.AssigneeID != nil &&
			!ticket.AssignedTo(actor.ID) && !actor.IsSuperuser {
			return nil, apperrors.NewForbidden("chamado em atendimento por " + ticket.AssigneeName)
		}
		// A tratativa on an unassigned ticket claims it for the actor.
		if ticket.AssigneeID == nil {
			actorID := actor.ID
			ticket.AssigneeID = &actorID
			ticket.AssigneeName = actor.DisplayName()
		}
	}

	switch input.Action {
	case domain.ActionAssign:
		if ticket.Status != domain.TicketStatusOpen && !actor.IsSuperuser {
			return nil, apperrors.NewValidationError("chamado já está em atendimento", nil)
		}
		actorID := actor.ID
		ticket.AssigneeID = &actorID
		ticket.AssigneeName = actor.DisplayName()
		ticket.Status = domain.TicketStatusInProgress

	case domain.ActionSaveNote:
		ticket.ResolutionNote = note

	case domain.ActionSuspend:
		if note == "" || reason == "" {
			return nil, apperrors.NewValidationError("suspensão exige tratativa e motivo", nil)
		}
		now := time.Now()
		ticket.ResolutionNote = withReason(note, reason)
		ticket.SuspendedAt = &now
		ticket.Status = domain.TicketStatusSuspended

	case domain.ActionCancel:
		if note == "" || reason == "" {
			return nil, apperrors.NewValidationError("cancelamento exige tratativa e motivo", nil)
		}
		ticket.ResolutionNote = withReason(note, reason)
		if ticket.SuspendedAt == nil {
			now := time.Now()
			ticket.SuspendedAt = &now
		}
		ticket.Status = domain.TicketStatusCancelled

	case domain.ActionComplete:
		if note == "" {
			return nil, apperrors.NewValidationError("conclusão exige tratativa", nil)
		}
		ticket.ResolutionNote = note
		ticket.SuspendedAt = nil
		ticket.Status = domain.TicketStatusCompleted

	case domain.ActionReopen:
		if ticket.Status != domain.TicketStatusSuspended && !actor.IsSuperuser {
			return nil, apperrors.NewValidationError("somente chamados suspensos podem ser reabertos", nil)
		}
		ticket.SuspendedAt = nil
		ticket.Status = domain.TicketStatusInProgress

	default:
		return nil, apperrors.NewValidationError("ação desconhecida", nil)
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	if ticket.Status != oldStatus {
		s.appendStatusEntry(ctx, actor, ticket, oldStatus)
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
				Comment:   reason,
			},
		})
	}
	return ticket, nil
}

// withReason appends the reason to the note unless it is already there.
func withReason(note, reason string) string {
	if reason == "" || strings.Contains(note, reason) {
		return note
	}
	return note + "\nMotivo: " + reason
}

// appendStatusEntry writes the status change into the conversation timeline.
func (s *TicketService) appendStatusEntry(ctx context.Context, actor *domain.User, ticket *domain.Ticket, oldStatus domain.TicketStatus) {
	entry := &domain.Message{
		TicketID:   ticket.ID,
		AuthorID:   actor.ID,
		AuthorName: actor.DisplayName(),
		Body: fmt.Sprintf("Status alterado de %s para %s",
			domain.StatusLabel(oldStatus), domain.StatusLabel(ticket.Status)),
		Visibility: domain.VisibilityPublic,
		EventKind:  domain.EventKindStatus,
	}
	if err := s.messages.Create(ctx, entry); err != nil {
		s.logger.Warn("status timeline entry failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

// applyActorScope narrows a listing filter to what the actor may see:
// privileged actors see everything, managers see their management group,
// everyone else sees only their own tickets.
func applyActorScope(filter *repository.TicketFilter, actor *domain.User) {
	if actor.Privileged() {
		return
	}
	requesterID := actor.ID
	filter.RequesterID = &requesterID
	if actor.ManagerEquivalent() && actor.ManagementGroup != "" {
		group := actor.ManagementGroup
		filter.ManagementGroup = &group
	}
}

func (s *TicketService) canView(ctx context.Context, actor *domain.User, ticket *domain.Ticket) (bool, error) {
	if actor.Privileged() || ticket.RequesterID == actor.ID || ticket.AssignedTo(actor.ID) {
		return true, nil
	}
	if actor.ManagerEquivalent() && actor.ManagementGroup != "" {
		requester, err := s.users.GetByID(ctx, ticket.RequesterID)
		if err != nil {
			return false, err
		}
		return requester.ManagementGroup == actor.ManagementGroup, nil
	}
	return false, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
