package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TaxonomyService manages request types and their question sets.
type TaxonomyService struct {
	types repository.RequestTypeRepository
}

// NewTaxonomyService constructs the service.
func NewTaxonomyService(types repository.RequestTypeRepository) *TaxonomyService {
	return &TaxonomyService{types: types}
}

// QuestionInput describes one form field of a request type.
type QuestionInput struct {
	Text     string
	Kind     domain.FieldKind
	Required bool
	HelpText string
	Order    int
	// Options is the raw ";"-separated option list for choice kinds.
	Options string
}

// RequestTypeInput describes a request type definition.
type RequestTypeInput struct {
	Name        string
	Description string
	Active      bool
	// AllowedSectors is the raw ";"-separated sector list; empty opens the
	// type to everyone.
	AllowedSectors string
	Questions      []QuestionInput
}

var validFieldKinds = map[domain.FieldKind]bool{
	domain.FieldShortText:   true,
	domain.FieldLongText:    true,
	domain.FieldInteger:     true,
	domain.FieldDecimal:     true,
	domain.FieldDate:        true,
	domain.FieldDateTime:    true,
	domain.FieldBoolean:     true,
	domain.FieldChoice:      true,
	domain.FieldMultiChoice: true,
	domain.FieldFile:        true,
}

// CreateRequestType defines a new type with its question set.
func (s *TaxonomyService) CreateRequestType(ctx context.Context, input RequestTypeInput) (*domain.RequestType, error) {
	reqType, questions, err := buildRequestType(input)
	if err != nil {
		return nil, err
	}
	if err := s.types.Create(ctx, reqType); err != nil {
		return nil, err
	}
	if len(questions) > 0 {
		if err := s.types.ReplaceQuestions(ctx, reqType.ID, questions); err != nil {
			return nil, err
		}
	}
	return s.types.GetByID(ctx, reqType.ID)
}

// UpdateRequestType replaces the definition and question set of a type.
// Answered questions are preserved by deactivation rather than deletion.
func (s *TaxonomyService) UpdateRequestType(ctx context.Context, id string, input RequestTypeInput) (*domain.RequestType, error) {
	existing, err := s.types.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reqType, questions, err := buildRequestType(input)
	if err != nil {
		return nil, err
	}
	reqType.ID = existing.ID
	if err := s.types.Update(ctx, reqType); err != nil {
		return nil, err
	}
	if err := s.types.ReplaceQuestions(ctx, reqType.ID, questions); err != nil {
		return nil, err
	}
	return s.types.GetByID(ctx, reqType.ID)
}

// GetRequestType returns a type with its ordered questions, scoped for the
// actor: non-privileged callers only see active types open to their sector.
func (s *TaxonomyService) GetRequestType(ctx context.Context, actor *domain.User, id string) (*domain.RequestType, error) {
	reqType, err := s.types.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Privileged() && !reqType.VisibleTo(actor) {
		return nil, apperrors.NewNotFound("request type", nil)
	}
	return reqType, nil
}

// ListVisible returns the types the actor may open tickets with. Privileged
// actors see everything, inactive types included.
func (s *TaxonomyService) ListVisible(ctx context.Context, actor *domain.User) ([]domain.RequestType, error) {
	if actor.Privileged() {
		return s.types.List(ctx, false)
	}
	all, err := s.types.List(ctx, true)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.RequestType, 0, len(all))
	for _, t := range all {
		if t.VisibleTo(actor) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

func buildRequestType(input RequestTypeInput) (*domain.RequestType, []domain.Question, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, apperrors.NewValidationError("nome do tipo de solicitação é obrigatório", nil)
	}
	questions := make([]domain.Question, 0, len(input.Questions))
	for i, q := range input.Questions {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			return nil, nil, apperrors.NewValidationError("pergunta sem enunciado", nil)
		}
		if !validFieldKinds[q.Kind] {
			return nil, nil, apperrors.NewValidationError("tipo de campo desconhecido: "+string(q.Kind), nil)
		}
		options := domain.ParseOptionList(q.Options)
		if (q.Kind == domain.FieldChoice || q.Kind == domain.FieldMultiChoice) && len(options) == 0 {
			return nil, nil, apperrors.NewValidationError(
				"pergunta de múltipla escolha exige opções: "+text, nil)
		}
		order := q.Order
		if order == 0 {
			order = i + 1
		}
		questions = append(questions, domain.Question{
			Text:     text,
			Kind:     q.Kind,
			Required: q.Required,
			HelpText: strings.TrimSpace(q.HelpText),
			Order:    order,
			Options:  options,
			Active:   true,
		})
	}
	return &domain.RequestType{
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		Active:         input.Active,
		AllowedSectors: domain.ParseSectorList(input.AllowedSectors),
	}, questions, nil
}
