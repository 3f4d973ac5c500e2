package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// In-memory fakes for the repository interfaces. Each fake stores enough to
// support the scenarios exercised here and records the calls the tests
// assert on.

type fakeTicketRepo struct {
	tickets   map[string]*domain.Ticket
	created   []*domain.Ticket
	updated   []*domain.Ticket
	createErr error
	listOut   []domain.Ticket
	counts    map[domain.TicketStatus]int
	// countFilters records every filter passed to CountByStatus.
	countFilters []repository.TicketFilter
	nextID       int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (f *fakeTicketRepo) add(t *domain.Ticket) *domain.Ticket {
	if t.ID == "" {
		f.nextID++
		t.ID = fmt.Sprintf("t-%d", f.nextID)
	}
	f.tickets[t.ID] = t
	return t
}

func (f *fakeTicketRepo) CreateWithAnswers(_ context.Context, ticket *domain.Ticket) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(ticket)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	f.created = append(f.created, ticket)
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.tickets[ticket.ID] = ticket
	f.updated = append(f.updated, ticket)
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, _ repository.TicketFilter) ([]domain.Ticket, error) {
	return f.listOut, nil
}

func (f *fakeTicketRepo) CountByStatus(_ context.Context, filter repository.TicketFilter) (map[domain.TicketStatus]int, error) {
	f.countFilters = append(f.countFilters, filter)
	return f.counts, nil
}

type fakeRequestTypeRepo struct {
	types  map[string]*domain.RequestType
	nextID int
}

func newFakeRequestTypeRepo(types ...*domain.RequestType) *fakeRequestTypeRepo {
	out := &fakeRequestTypeRepo{types: make(map[string]*domain.RequestType)}
	for _, t := range types {
		out.types[t.ID] = t
	}
	return out
}

func (f *fakeRequestTypeRepo) Create(_ context.Context, t *domain.RequestType) error {
	if t.ID == "" {
		f.nextID++
		t.ID = fmt.Sprintf("rt-%d", f.nextID)
	}
	f.types[t.ID] = t
	return nil
}

func (f *fakeRequestTypeRepo) Update(_ context.Context, t *domain.RequestType) error {
	f.types[t.ID] = t
	return nil
}

func (f *fakeRequestTypeRepo) GetByID(_ context.Context, id string) (*domain.RequestType, error) {
	t, ok := f.types[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeRequestTypeRepo) List(_ context.Context, onlyActive bool) ([]domain.RequestType, error) {
	out := make([]domain.RequestType, 0, len(f.types))
	for _, t := range f.types {
		if onlyActive && !t.Active {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeRequestTypeRepo) ReplaceQuestions(_ context.Context, typeID string, questions []domain.Question) error {
	if t, ok := f.types[typeID]; ok {
		t.Questions = questions
	}
	return nil
}

type fakeMessageRepo struct {
	messages  []*domain.Message
	createErr error
	latest    map[string]time.Time
	nextID    int
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	msg.ID = fmt.Sprintf("m-%d", f.nextID)
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeMessageRepo) ListByTicket(_ context.Context, ticketID string, publicOnly bool) ([]domain.Message, error) {
	out := []domain.Message{}
	for _, m := range f.messages {
		if m.TicketID != ticketID {
			continue
		}
		if publicOnly && m.Visibility != domain.VisibilityPublic {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMessageRepo) LatestPublicFromOthers(_ context.Context, _ []string, _ string) (map[string]time.Time, error) {
	return f.latest, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	out := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		out.users[u.ID] = u
	}
	return out
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("u-%d", len(f.users)+1)
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID, hash string) error {
	if u, ok := f.users[userID]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserRepo) GetByCPF(_ context.Context, cpf string) (*domain.User, error) {
	for _, u := range f.users {
		if u.CPF == cpf {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ReplaceGroups(_ context.Context, userID string, groups []string) error {
	if u, ok := f.users[userID]; ok {
		u.Groups = groups
	}
	return nil
}

func (f *fakeUserRepo) ListAdminish(_ context.Context) ([]domain.User, error) {
	out := []domain.User{}
	for _, u := range f.users {
		if u.Privileged() {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListByManagementGroup(_ context.Context, group string) ([]domain.User, error) {
	out := []domain.User{}
	for _, u := range f.users {
		if u.ManagementGroup == group {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeSeenRepo struct {
	sections map[domain.Section]*domain.SectionView
	views    map[string]time.Time
	// upsertErrs is consumed one error per UpsertSection/UpsertTicketViews
	// call; nil entries mean success.
	upsertErrs  []error
	upsertCalls int
}

func (f *fakeSeenRepo) nextErr() error {
	if len(f.upsertErrs) == 0 {
		return nil
	}
	err := f.upsertErrs[0]
	f.upsertErrs = f.upsertErrs[1:]
	return err
}

func (f *fakeSeenRepo) UpsertSection(_ context.Context, _ string, section domain.Section, at time.Time) error {
	f.upsertCalls++
	if err := f.nextErr(); err != nil {
		return err
	}
	if f.sections == nil {
		f.sections = make(map[domain.Section]*domain.SectionView)
	}
	f.sections[section] = &domain.SectionView{Section: section, LastSeen: at}
	return nil
}

func (f *fakeSeenRepo) GetSection(_ context.Context, _ string, section domain.Section) (*domain.SectionView, error) {
	v, ok := f.sections[section]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return v, nil
}

func (f *fakeSeenRepo) UpsertTicketViews(_ context.Context, _ string, ticketIDs []string, at time.Time) error {
	f.upsertCalls++
	if err := f.nextErr(); err != nil {
		return err
	}
	if f.views == nil {
		f.views = make(map[string]time.Time)
	}
	for _, id := range ticketIDs {
		f.views[id] = at
	}
	return nil
}

func (f *fakeSeenRepo) MapTicketViews(_ context.Context, _ string, _ []string) (map[string]time.Time, error) {
	return f.views, nil
}

type fakeBoardRepo struct {
	centers  map[string]*domain.CostCenter
	members  map[string]*domain.CostCenterMember
	projects map[string]*domain.Project
	tasks    map[string]*domain.Task
	nextID   int
}

func newFakeBoardRepo() *fakeBoardRepo {
	return &fakeBoardRepo{
		centers:  make(map[string]*domain.CostCenter),
		members:  make(map[string]*domain.CostCenterMember),
		projects: make(map[string]*domain.Project),
		tasks:    make(map[string]*domain.Task),
	}
}

func (f *fakeBoardRepo) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func memberKey(costCenterID, userID string) string { return costCenterID + "/" + userID }

func (f *fakeBoardRepo) CreateCostCenter(_ context.Context, c *domain.CostCenter) error {
	c.ID = f.id("cc")
	f.centers[c.ID] = c
	return nil
}

func (f *fakeBoardRepo) GetCostCenter(_ context.Context, id string) (*domain.CostCenter, error) {
	c, ok := f.centers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeBoardRepo) ListCostCenters(_ context.Context, onlyActive bool) ([]domain.CostCenter, error) {
	out := []domain.CostCenter{}
	for _, c := range f.centers {
		if onlyActive && !c.Active {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeBoardRepo) UpsertMember(_ context.Context, m *domain.CostCenterMember) error {
	f.members[memberKey(m.CostCenterID, m.UserID)] = m
	return nil
}

func (f *fakeBoardRepo) GetMember(_ context.Context, costCenterID, userID string) (*domain.CostCenterMember, error) {
	m, ok := f.members[memberKey(costCenterID, userID)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m, nil
}

func (f *fakeBoardRepo) CreateProject(_ context.Context, p *domain.Project) error {
	p.ID = f.id("p")
	f.projects[p.ID] = p
	return nil
}

func (f *fakeBoardRepo) GetProject(_ context.Context, id string) (*domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeBoardRepo) ListProjects(_ context.Context, costCenterID string) ([]domain.Project, error) {
	out := []domain.Project{}
	for _, p := range f.projects {
		if p.CostCenterID == costCenterID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeBoardRepo) CreateTask(_ context.Context, t *domain.Task) error {
	t.ID = f.id("task")
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeBoardRepo) UpdateTask(_ context.Context, t *domain.Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeBoardRepo) GetTask(_ context.Context, id string) (*domain.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (f *fakeBoardRepo) ListTasks(_ context.Context, costCenterID string, statuses []domain.TaskStatus) ([]domain.Task, error) {
	out := []domain.Task{}
	for _, t := range f.tasks {
		if t.CostCenterID != costCenterID {
			continue
		}
		if len(statuses) > 0 {
			matched := false
			for _, s := range statuses {
				if t.Status == s {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, *t)
	}
	return out, nil
}

type fakeLocker struct {
	acquired   bool
	acquireErr error
	releases   int
	doneCalls  int
}

func (f *fakeLocker) AcquireSubmitLock(_ context.Context, _, _ string, _ time.Duration) (bool, error) {
	return f.acquired, f.acquireErr
}

func (f *fakeLocker) ReleaseSubmitLock(_ context.Context, _, _ string) { f.releases++ }

func (f *fakeLocker) MarkSubmitDone(_ context.Context, _, _, _ string) { f.doneCalls++ }

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}
