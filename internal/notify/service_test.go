package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type stubTicketRepo struct {
	tickets map[string]*domain.Ticket
}

func (s *stubTicketRepo) CreateWithAnswers(context.Context, *domain.Ticket) error { return nil }
func (s *stubTicketRepo) Update(context.Context, *domain.Ticket) error            { return nil }

func (s *stubTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t, nil
}

func (s *stubTicketRepo) ListWithFilter(context.Context, repository.TicketFilter) ([]domain.Ticket, error) {
	return nil, nil
}

func (s *stubTicketRepo) CountByStatus(context.Context, repository.TicketFilter) (map[domain.TicketStatus]int, error) {
	return nil, nil
}

type stubUserRepo struct {
	users    map[string]*domain.User
	adminish []domain.User
}

func (s *stubUserRepo) Create(context.Context, *domain.User) error             { return nil }
func (s *stubUserRepo) Update(context.Context, *domain.User) error             { return nil }
func (s *stubUserRepo) UpdatePassword(context.Context, string, string) error   { return nil }
func (s *stubUserRepo) ReplaceGroups(context.Context, string, []string) error  { return nil }
func (s *stubUserRepo) GetByCPF(context.Context, string) (*domain.User, error) { return nil, pgx.ErrNoRows }
func (s *stubUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (s *stubUserRepo) ListAdminish(context.Context) ([]domain.User, error) {
	return s.adminish, nil
}

func (s *stubUserRepo) ListByManagementGroup(context.Context, string) ([]domain.User, error) {
	return nil, nil
}

type memNotificationRepo struct {
	rows    []*domain.Notification
	optOuts []domain.OptOut
	nextID  int
}

func (m *memNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	m.nextID++
	n.ID = fmt.Sprintf("n-%d", m.nextID)
	n.CreatedAt = time.Now()
	copied := *n
	m.rows = append(m.rows, &copied)
	return nil
}

func (m *memNotificationRepo) MarkSent(_ context.Context, id string, at time.Time) error {
	for _, r := range m.rows {
		if r.ID == id {
			r.Sent = true
			r.SentAt = &at
		}
	}
	return nil
}

func (m *memNotificationRepo) MarkFailed(_ context.Context, id, errText string) error {
	for _, r := range m.rows {
		if r.ID == id {
			r.Error = errText
		}
	}
	return nil
}

func (m *memNotificationRepo) ListByEmail(_ context.Context, email string, channel domain.NotificationChannel, _ int) ([]domain.Notification, error) {
	out := []domain.Notification{}
	for _, r := range m.rows {
		if r.ToEmail == email && r.Channel == channel {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memNotificationRepo) CountWeb(_ context.Context, email string) (int, error) {
	count := 0
	for _, r := range m.rows {
		if r.ToEmail == email && r.Channel == domain.ChannelWeb {
			count++
		}
	}
	return count, nil
}

func (m *memNotificationRepo) DeleteForEmail(_ context.Context, id, email string) error {
	for i, r := range m.rows {
		if r.ID == id && r.ToEmail == email {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memNotificationRepo) IsOptedOut(_ context.Context, email, kind string) (bool, error) {
	for _, o := range m.optOuts {
		if o.Suppresses(email, kind) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotificationRepo) AddOptOut(_ context.Context, rule domain.OptOut) error {
	m.optOuts = append(m.optOuts, rule)
	return nil
}

func (m *memNotificationRepo) byChannel(channel domain.NotificationChannel) []*domain.Notification {
	out := []*domain.Notification{}
	for _, r := range m.rows {
		if r.Channel == channel {
			out = append(out, r)
		}
	}
	return out
}

type captureMailer struct {
	sent    []MailMessage
	sendErr error
}

func (c *captureMailer) Send(msg MailMessage) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, msg)
	return nil
}

type fixture struct {
	svc     *Service
	tickets *stubTicketRepo
	users   *stubUserRepo
	repo    *memNotificationRepo
	mailer  *captureMailer
}

func newFixture() *fixture {
	f := &fixture{
		tickets: &stubTicketRepo{tickets: make(map[string]*domain.Ticket)},
		users:   &stubUserRepo{users: make(map[string]*domain.User)},
		repo:    &memNotificationRepo{},
		mailer:  &captureMailer{},
	}
	f.svc = NewService(Dependencies{
		TicketRepo:       f.tickets,
		UserRepo:         f.users,
		NotificationRepo: f.repo,
		Mailer:           f.mailer,
		Logger:           zap.NewNop(),
		Config:           config.NotificationConfig{EmailFrom: "noreply@enprodes.com.br", BaseURL: "https://helpdesk.local"},
	})
	return f
}

func (f *fixture) addUser(u *domain.User) *domain.User {
	f.users.users[u.ID] = u
	return u
}

func (f *fixture) addTicket(t *domain.Ticket) *domain.Ticket {
	f.tickets.tickets[t.ID] = t
	return t
}

func emailsTo(msgs []MailMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.To)
	}
	return out
}

func TestHandleTicketCreated(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	req := f.addUser(&domain.User{ID: "u-req", FullName: "Ana", Email: "ana@enprodes.com.br", IsActive: true})
	f.users.adminish = []domain.User{
		{ID: "u-a1", Email: "suporte@enprodes.com.br", IsActive: true},
		{ID: "u-a2", Email: "admin@enprodes.com.br", IsActive: true},
	}
	ticket := f.addTicket(&domain.Ticket{ID: "t-1", RequesterID: req.ID, Status: domain.TicketStatusOpen})

	err := f.svc.handleTicketCreated(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload:  events.TicketCreatedPayload{RequestTypeName: "Suporte TI", RequesterID: req.ID},
	})
	require.NoError(t, err)

	// Email goes to the admin-ish set only.
	assert.ElementsMatch(t, []string{"suporte@enprodes.com.br", "admin@enprodes.com.br"}, emailsTo(f.mailer.sent))
	assert.Contains(t, f.mailer.sent[0].Subject, "t-1")

	// In-app rows cover the requester plus the admin-ish set, all pre-marked sent.
	web := f.repo.byChannel(domain.ChannelWeb)
	require.Len(t, web, 3)
	for _, row := range web {
		assert.True(t, row.Sent)
	}
}

func TestHandleMessagePosted(t *testing.T) {
	ctx := context.Background()

	post := func(f *fixture, ticketID, authorID string) error {
		return f.svc.handleMessagePosted(ctx, events.Event{
			Type:     events.EventTicketMessagePosted,
			TicketID: ticketID,
			Payload: events.TicketMessagePostedPayload{
				MessageID:  "m-1",
				AuthorID:   authorID,
				Visibility: domain.VisibilityPublic,
			},
		})
	}

	t.Run("assignee_reply_notifies_requester", func(t *testing.T) {
		f := newFixture()
		f.addUser(&domain.User{ID: "u-req", Email: "ana@enprodes.com.br", IsActive: true})
		f.addUser(&domain.User{ID: "u-op", Email: "bruno@enprodes.com.br", IsActive: true})
		op := "u-op"
		f.addTicket(&domain.Ticket{ID: "t-1", RequesterID: "u-req", AssigneeID: &op})

		require.NoError(t, post(f, "t-1", "u-op"))
		assert.Equal(t, []string{"ana@enprodes.com.br"}, emailsTo(f.mailer.sent))
	})

	t.Run("requester_reply_notifies_assignee", func(t *testing.T) {
		f := newFixture()
		f.addUser(&domain.User{ID: "u-req", Email: "ana@enprodes.com.br", IsActive: true})
		f.addUser(&domain.User{ID: "u-op", Email: "bruno@enprodes.com.br", IsActive: true})
		op := "u-op"
		f.addTicket(&domain.Ticket{ID: "t-1", RequesterID: "u-req", AssigneeID: &op})

		require.NoError(t, post(f, "t-1", "u-req"))
		assert.Equal(t, []string{"bruno@enprodes.com.br"}, emailsTo(f.mailer.sent))
	})

	t.Run("unassigned_requester_reply_notifies_adminish", func(t *testing.T) {
		f := newFixture()
		f.addUser(&domain.User{ID: "u-req", Email: "ana@enprodes.com.br", IsActive: true})
		f.users.adminish = []domain.User{{ID: "u-a1", Email: "suporte@enprodes.com.br"}}
		f.addTicket(&domain.Ticket{ID: "t-1", RequesterID: "u-req"})

		require.NoError(t, post(f, "t-1", "u-req"))
		assert.Equal(t, []string{"suporte@enprodes.com.br"}, emailsTo(f.mailer.sent))
	})

	t.Run("unassigned_staff_reply_notifies_requester", func(t *testing.T) {
		f := newFixture()
		f.addUser(&domain.User{ID: "u-req", Email: "ana@enprodes.com.br", IsActive: true})
		f.addUser(&domain.User{ID: "u-op", Email: "bruno@enprodes.com.br", IsActive: true})
		f.addTicket(&domain.Ticket{ID: "t-1", RequesterID: "u-req"})

		require.NoError(t, post(f, "t-1", "u-op"))
		assert.Equal(t, []string{"ana@enprodes.com.br"}, emailsTo(f.mailer.sent))
	})

	t.Run("internal_message_ignored", func(t *testing.T) {
		f := newFixture()
		err := f.svc.handleMessagePosted(ctx, events.Event{
			Type:     events.EventTicketMessagePosted,
			TicketID: "t-1",
			Payload: events.TicketMessagePostedPayload{
				Visibility: domain.VisibilityInternal,
			},
		})
		require.NoError(t, err)
		assert.Empty(t, f.mailer.sent)
		assert.Empty(t, f.repo.rows)
	})
}

func TestHandleStatusChanged(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	f.addUser(&domain.User{ID: "u-req", Email: "ana@enprodes.com.br", IsActive: true})
	f.addTicket(&domain.Ticket{ID: "t-1", RequesterID: "u-req", Status: domain.TicketStatusInProgress})

	err := f.svc.handleStatusChanged(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: "t-1",
		Payload: events.TicketStatusChangedPayload{
			OldStatus: domain.TicketStatusOpen,
			NewStatus: domain.TicketStatusInProgress,
		},
	})
	require.NoError(t, err)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "ana@enprodes.com.br", f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].BodyText, "Aberto")
	assert.Contains(t, f.mailer.sent[0].BodyText, "Em andamento")

	web := f.repo.byChannel(domain.ChannelWeb)
	require.Len(t, web, 1)
	assert.Equal(t, "ana@enprodes.com.br", web[0].ToEmail)
}

func TestSendEmail(t *testing.T) {
	ctx := context.Background()
	data := templateData{TicketID: "t-1"}

	t.Run("empty_address_is_a_noop", func(t *testing.T) {
		f := newFixture()
		notif, err := f.svc.SendEmail(ctx, domain.KindTicketCreated, "", data, "t-1", true)
		require.NoError(t, err)
		assert.Nil(t, notif)
		assert.Empty(t, f.repo.rows)
	})

	t.Run("kind_opt_out_skips_row_and_send", func(t *testing.T) {
		f := newFixture()
		f.repo.optOuts = []domain.OptOut{{Email: "ana@enprodes.com.br", Kind: domain.KindTicketCreated}}
		notif, err := f.svc.SendEmail(ctx, domain.KindTicketCreated, "ana@enprodes.com.br", data, "t-1", true)
		require.NoError(t, err)
		assert.Nil(t, notif)
		assert.Empty(t, f.repo.rows)
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("global_opt_out_covers_every_kind", func(t *testing.T) {
		f := newFixture()
		f.repo.optOuts = []domain.OptOut{{Email: "ana@enprodes.com.br", Kind: ""}}
		notif, err := f.svc.SendEmail(ctx, domain.KindTicketStatus, "ana@enprodes.com.br", data, "t-1", true)
		require.NoError(t, err)
		assert.Nil(t, notif)
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("success_marks_row_sent", func(t *testing.T) {
		f := newFixture()
		notif, err := f.svc.SendEmail(ctx, domain.KindTicketCreated, "ana@enprodes.com.br", data, "t-1", true)
		require.NoError(t, err)
		require.NotNil(t, notif)
		assert.True(t, notif.Sent)
		require.Len(t, f.repo.rows, 1)
		assert.True(t, f.repo.rows[0].Sent)
		assert.Len(t, f.mailer.sent, 1)
	})

	t.Run("logged_failure_is_recorded_not_raised", func(t *testing.T) {
		f := newFixture()
		f.mailer.sendErr = errors.New("smtp timeout")
		notif, err := f.svc.SendEmail(ctx, domain.KindTicketCreated, "ana@enprodes.com.br", data, "t-1", true)
		require.NoError(t, err)
		require.NotNil(t, notif)
		assert.False(t, notif.Sent)
		assert.Equal(t, "smtp timeout", notif.Error)
		require.Len(t, f.repo.rows, 1)
		assert.Equal(t, "smtp timeout", f.repo.rows[0].Error)
	})

	t.Run("unlogged_failure_propagates_delivery_error", func(t *testing.T) {
		f := newFixture()
		f.mailer.sendErr = errors.New("smtp timeout")
		_, err := f.svc.SendEmail(ctx, domain.KindTicketCreated, "ana@enprodes.com.br", data, "t-1", false)
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DELIVERY_FAILED", domainErr.Code)
		assert.Empty(t, f.repo.rows)
	})

	t.Run("unknown_kind_fails_render", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.SendEmail(ctx, "newsletter", "ana@enprodes.com.br", data, "t-1", true)
		assert.Error(t, err)
	})
}

func TestWebNotificationLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	user := &domain.User{ID: "u-req", Email: "ana@enprodes.com.br", IsActive: true}

	f.svc.notifyWeb(ctx, domain.KindTicketCreated, []string{user.Email}, templateData{TicketID: "t-1"}, "t-1")

	count, err := f.svc.UnreadCount(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rows, err := f.svc.ListMine(ctx, user, 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Reading is deletion: the badge count drops to zero.
	require.NoError(t, f.svc.MarkRead(ctx, user, rows[0].ID))
	count, err = f.svc.UnreadCount(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Deleting someone else's row is refused.
	f.svc.notifyWeb(ctx, domain.KindTicketCreated, []string{user.Email}, templateData{TicketID: "t-2"}, "t-2")
	rows, err = f.svc.ListMine(ctx, user, 50)
	require.NoError(t, err)
	other := &domain.User{ID: "u-x", Email: "x@enprodes.com.br"}
	assert.Error(t, f.svc.MarkRead(ctx, other, rows[0].ID))
}
