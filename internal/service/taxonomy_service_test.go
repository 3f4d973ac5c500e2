package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestCreateRequestType(t *testing.T) {
	ctx := context.Background()

	t.Run("parses_sectors_and_options", func(t *testing.T) {
		svc := NewTaxonomyService(newFakeRequestTypeRepo())
		created, err := svc.CreateRequestType(ctx, RequestTypeInput{
			Name:           "Acesso a sistemas",
			Active:         true,
			AllowedSectors: "TI; Financeiro",
			Questions: []QuestionInput{
				{Text: "Qual sistema?", Kind: domain.FieldChoice, Required: true, Options: "ERP; CRM"},
				{Text: "Justificativa", Kind: domain.FieldLongText},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"ti", "financeiro"}, created.AllowedSectors)
		require.Len(t, created.Questions, 2)
		assert.Equal(t, []string{"ERP", "CRM"}, created.Questions[0].Options)
		// Orders default to position when omitted.
		assert.Equal(t, 1, created.Questions[0].Order)
		assert.Equal(t, 2, created.Questions[1].Order)
		assert.True(t, created.Questions[0].Active)
	})

	t.Run("name_required", func(t *testing.T) {
		svc := NewTaxonomyService(newFakeRequestTypeRepo())
		_, err := svc.CreateRequestType(ctx, RequestTypeInput{Name: " "})
		assert.Error(t, err)
	})

	t.Run("choice_question_needs_options", func(t *testing.T) {
		svc := NewTaxonomyService(newFakeRequestTypeRepo())
		_, err := svc.CreateRequestType(ctx, RequestTypeInput{
			Name:      "Acesso",
			Questions: []QuestionInput{{Text: "Qual?", Kind: domain.FieldChoice}},
		})
		assert.Error(t, err)
	})

	t.Run("unknown_field_kind_rejected", func(t *testing.T) {
		svc := NewTaxonomyService(newFakeRequestTypeRepo())
		_, err := svc.CreateRequestType(ctx, RequestTypeInput{
			Name:      "Acesso",
			Questions: []QuestionInput{{Text: "Qual?", Kind: domain.FieldKind("color")}},
		})
		assert.Error(t, err)
	})
}

func TestGetRequestTypeScoping(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRequestTypeRepo(&domain.RequestType{
		ID: "rt-fin", Name: "Reembolso", Active: true, AllowedSectors: []string{"financeiro"},
	})
	svc := NewTaxonomyService(repo)

	t.Run("privileged_sees_everything", func(t *testing.T) {
		_, err := svc.GetRequestType(ctx, operator(), "rt-fin")
		assert.NoError(t, err)
	})

	t.Run("outsider_gets_not_found", func(t *testing.T) {
		outsider := requester()
		outsider.Sector = "Comercial"
		_, err := svc.GetRequestType(ctx, outsider, "rt-fin")
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})

	t.Run("sector_member_sees_it", func(t *testing.T) {
		insider := requester()
		insider.Sector = "Financeiro"
		_, err := svc.GetRequestType(ctx, insider, "rt-fin")
		assert.NoError(t, err)
	})
}

func TestListVisible(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRequestTypeRepo(
		&domain.RequestType{ID: "rt-all", Name: "Geral", Active: true},
		&domain.RequestType{ID: "rt-fin", Name: "Reembolso", Active: true, AllowedSectors: []string{"financeiro"}},
		&domain.RequestType{ID: "rt-old", Name: "Legado", Active: false},
	)
	svc := NewTaxonomyService(repo)

	t.Run("privileged_includes_inactive", func(t *testing.T) {
		out, err := svc.ListVisible(ctx, operator())
		require.NoError(t, err)
		assert.Len(t, out, 3)
	})

	t.Run("collaborator_filtered_by_sector", func(t *testing.T) {
		actor := requester()
		actor.Sector = "Comercial"
		out, err := svc.ListVisible(ctx, actor)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "rt-all", out[0].ID)
	})
}
