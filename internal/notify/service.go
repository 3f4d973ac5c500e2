package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	refApp   = "helpdesk"
	refModel = "ticket"
)

// Service resolves recipients for ticket lifecycle events and dispatches
// email plus in-app notification rows. Dispatch happens synchronously after
// the triggering mutation committed; failures here never surface to it.
type Service struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	log     repository.NotificationRepository
	mailer  Mailer
	logger  *zap.Logger
	cfg     config.NotificationConfig
}

// Dependencies bundles collaborators for the service.
type Dependencies struct {
	TicketRepo       repository.TicketRepository
	UserRepo         repository.UserRepository
	NotificationRepo repository.NotificationRepository
	Mailer           Mailer
	Logger           *zap.Logger
	Config           config.NotificationConfig
}

// NewService creates the service.
func NewService(deps Dependencies) *Service {
	return &Service{
		tickets: deps.TicketRepo,
		users:   deps.UserRepo,
		log:     deps.NotificationRepo,
		mailer:  deps.Mailer,
		logger:  deps.Logger,
		cfg:     deps.Config,
	}
}

// RegisterHandlers subscribes to the ticket lifecycle events.
func (s *Service) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, s.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketMessagePosted, s.handleMessagePosted)
	dispatcher.Subscribe(events.EventTicketStatusChanged, s.handleStatusChanged)
}

// handleTicketCreated emails the admin-ish set and writes in-app rows for
// both the requester and the admin-ish set.
func (s *Service) handleTicketCreated(ctx context.Context, event events.Event) error {
	ticket, requester, err := s.loadTicketAndRequester(ctx, event.TicketID)
	if err != nil {
		return err
	}

	data := templateData{
		TicketID:      ticket.ID,
		RequesterName: requester.DisplayName(),
		Status:        domain.StatusLabel(ticket.Status),
		Link:          ticketLink(s.cfg.BaseURL, ticket.ID),
	}
	if payload, ok := event.Payload.(events.TicketCreatedPayload); ok {
		data.RequestTypeName = payload.RequestTypeName
	}

	adminish, err := s.users.ListAdminish(ctx)
	if err != nil {
		s.logger.Warn("adminish lookup failed", zap.Error(err))
		return err
	}

	for _, admin := range adminish {
		s.sendLogged(ctx, domain.KindTicketCreated, admin.Email, data, ticket.ID)
	}

	webTargets := []string{requester.Email}
	for _, admin := range adminish {
		if admin.Email != requester.Email {
			webTargets = append(webTargets, admin.Email)
		}
	}
	s.notifyWeb(ctx, domain.KindTicketCreated, webTargets, data, ticket.ID)
	return nil
}

// handleMessagePosted notifies "the other party" of a public message.
func (s *Service) handleMessagePosted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketMessagePostedPayload)
	if !ok || payload.Visibility != domain.VisibilityPublic {
		return nil
	}

	ticket, requester, err := s.loadTicketAndRequester(ctx, event.TicketID)
	if err != nil {
		return err
	}

	data := templateData{
		TicketID: ticket.ID,
		Link:     ticketLink(s.cfg.BaseURL, ticket.ID),
	}
	if author, err := s.users.GetByID(ctx, payload.AuthorID); err == nil {
		data.AuthorName = author.DisplayName()
	}

	if ticket.AssigneeID != nil {
		if payload.AuthorID == *ticket.AssigneeID {
			// Assignee wrote: notify the requester.
			s.sendLogged(ctx, domain.KindTicketReply, requester.Email, data, ticket.ID)
			s.notifyWeb(ctx, domain.KindTicketReply, []string{requester.Email}, data, ticket.ID)
			return nil
		}
		assignee, err := s.users.GetByID(ctx, *ticket.AssigneeID)
		if err != nil {
			s.logger.Warn("assignee lookup failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
			return nil
		}
		s.sendLogged(ctx, domain.KindTicketReply, assignee.Email, data, ticket.ID)
		s.notifyWeb(ctx, domain.KindTicketReply, []string{assignee.Email}, data, ticket.ID)
		return nil
	}

	// No assignee yet.
	if payload.AuthorID == ticket.RequesterID {
		adminish, err := s.users.ListAdminish(ctx)
		if err != nil {
			return err
		}
		for _, admin := range adminish {
			s.sendLogged(ctx, domain.KindTicketReply, admin.Email, data, ticket.ID)
		}
		s.notifyWeb(ctx, domain.KindTicketReply, emailsOf(adminish), data, ticket.ID)
		return nil
	}
	s.sendLogged(ctx, domain.KindTicketReply, requester.Email, data, ticket.ID)
	s.notifyWeb(ctx, domain.KindTicketReply, []string{requester.Email}, data, ticket.ID)
	return nil
}

// handleStatusChanged notifies the requester with old/new status labels.
func (s *Service) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	ticket, requester, err := s.loadTicketAndRequester(ctx, event.TicketID)
	if err != nil {
		return err
	}

	data := templateData{
		TicketID:  ticket.ID,
		OldStatus: domain.StatusLabel(payload.OldStatus),
		NewStatus: domain.StatusLabel(payload.NewStatus),
		Link:      ticketLink(s.cfg.BaseURL, ticket.ID),
	}
	s.sendLogged(ctx, domain.KindTicketStatus, requester.Email, data, ticket.ID)
	s.notifyWeb(ctx, domain.KindTicketStatus, []string{requester.Email}, data, ticket.ID)
	return nil
}

// SendEmail renders and dispatches one email notification. When saveLog is
// true a Notification row is persisted first and transport failures are
// recorded on it without surfacing; without a log row the failure propagates
// as a delivery error. Opted-out recipients are skipped entirely: no row, no
// send.
func (s *Service) SendEmail(ctx context.Context, kind, toEmail string, data templateData, refID string, saveLog bool) (*domain.Notification, error) {
	if toEmail == "" {
		return nil, nil
	}
	optedOut, err := s.log.IsOptedOut(ctx, toEmail, kind)
	if err != nil {
		return nil, err
	}
	if optedOut {
		return nil, nil
	}

	payload, err := renderKind(kind, data)
	if err != nil {
		return nil, err
	}

	var notif *domain.Notification
	if saveLog {
		notif = &domain.Notification{
			Kind:     kind,
			Channel:  domain.ChannelEmail,
			ToEmail:  toEmail,
			Subject:  payload.Subject,
			BodyText: payload.BodyText,
			BodyHTML: payload.BodyHTML,
			RefApp:   refApp,
			RefModel: refModel,
			RefID:    refID,
		}
		if err := s.log.Create(ctx, notif); err != nil {
			return nil, err
		}
	}

	sendErr := s.mailer.Send(MailMessage{
		To:       toEmail,
		Subject:  payload.Subject,
		BodyText: payload.BodyText,
		BodyHTML: payload.BodyHTML,
	})
	if sendErr != nil {
		if notif == nil {
			return nil, apperrors.NewDeliveryError(sendErr)
		}
		notif.Error = sendErr.Error()
		if err := s.log.MarkFailed(ctx, notif.ID, sendErr.Error()); err != nil {
			s.logger.Warn("failed to record delivery error", zap.String("notification_id", notif.ID), zap.Error(err))
		}
		s.logger.Warn("email delivery failed",
			zap.String("kind", kind),
			zap.String("to", toEmail),
			zap.Error(sendErr))
		return notif, nil
	}

	if notif != nil {
		now := time.Now()
		notif.Sent = true
		notif.SentAt = &now
		if err := s.log.MarkSent(ctx, notif.ID, now); err != nil {
			s.logger.Warn("failed to flag notification sent", zap.String("notification_id", notif.ID), zap.Error(err))
		}
	}
	return notif, nil
}

// sendLogged is the fire-and-forget email path used by event handlers.
func (s *Service) sendLogged(ctx context.Context, kind, toEmail string, data templateData, ticketID string) {
	if _, err := s.SendEmail(ctx, kind, toEmail, data, ticketID, true); err != nil {
		s.logger.Warn("notification dispatch failed",
			zap.String("kind", kind),
			zap.String("to", toEmail),
			zap.Error(err))
	}
}

// notifyWeb writes one in-app row per recipient. Rows are log entries, not
// delivery attempts, so they are created already marked sent. Opt-outs apply
// here too.
func (s *Service) notifyWeb(ctx context.Context, kind string, toEmails []string, data templateData, refID string) {
	payload, err := renderKind(kind, data)
	if err != nil {
		s.logger.Warn("web notification render failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	now := time.Now()
	for _, email := range toEmails {
		if email == "" {
			continue
		}
		optedOut, err := s.log.IsOptedOut(ctx, email, kind)
		if err != nil || optedOut {
			continue
		}
		n := &domain.Notification{
			Kind:     kind,
			Channel:  domain.ChannelWeb,
			ToEmail:  email,
			Subject:  payload.Subject,
			BodyText: payload.BodyText,
			BodyHTML: payload.BodyHTML,
			Sent:     true,
			SentAt:   &now,
			RefApp:   refApp,
			RefModel: refModel,
			RefID:    refID,
		}
		if err := s.log.Create(ctx, n); err != nil {
			s.logger.Warn("web notification insert failed", zap.String("to", email), zap.Error(err))
		}
	}
}

// ListMine returns the caller's in-app notifications, newest first.
func (s *Service) ListMine(ctx context.Context, user *domain.User, limit int) ([]domain.Notification, error) {
	return s.log.ListByEmail(ctx, user.Email, domain.ChannelWeb, limit)
}

// UnreadCount returns the caller's in-app badge count.
func (s *Service) UnreadCount(ctx context.Context, user *domain.User) (int, error) {
	return s.log.CountWeb(ctx, user.Email)
}

// MarkRead removes an in-app row owned by the caller. Reading is deletion.
func (s *Service) MarkRead(ctx context.Context, user *domain.User, notificationID string) error {
	return s.log.DeleteForEmail(ctx, notificationID, user.Email)
}

// OptOut registers a suppression rule. An empty kind suppresses globally.
func (s *Service) OptOut(ctx context.Context, email, kind string) error {
	return s.log.AddOptOut(ctx, domain.OptOut{Email: email, Kind: kind})
}

func (s *Service) loadTicketAndRequester(ctx context.Context, ticketID string) (*domain.Ticket, *domain.User, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	requester, err := s.users.GetByID(ctx, ticket.RequesterID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, requester, nil
}

func emailsOf(users []domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u.Email != "" {
			out = append(out, u.Email)
		}
	}
	return out
}
