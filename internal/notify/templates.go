package notify

import (
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// rendered carries the output of a template pass.
type rendered struct {
	Subject  string
	BodyText string
	BodyHTML string
}

// templateData feeds the per-kind templates.
type templateData struct {
	TicketID        string
	RequestTypeName string
	RequesterName   string
	AuthorName      string
	Status          string
	OldStatus       string
	NewStatus       string
	Link            string
}

type kindTemplate struct {
	subject *template.Template
	body    *template.Template
}

var kindTemplates = map[string]kindTemplate{
	domain.KindTicketCreated: {
		subject: template.Must(template.New("s").Parse(
			`[Enprodes] Nova solicitação #{{.TicketID}}`)),
		body: template.Must(template.New("b").Parse(
			"Uma nova solicitação foi aberta.\n" +
				"ID: {{.TicketID}}\n" +
				"Tipo: {{.RequestTypeName}}\n" +
				"Solicitante: {{.RequesterName}}\n" +
				"Status: {{.Status}}\n" +
				"Link: {{.Link}}\n")),
	},
	domain.KindTicketReply: {
		subject: template.Must(template.New("s").Parse(
			`[Enprodes] Nova mensagem no chamado #{{.TicketID}}`)),
		body: template.Must(template.New("b").Parse(
			"Houve uma nova mensagem no chamado #{{.TicketID}}.\n" +
				"Autor: {{.AuthorName}}\n" +
				"Link: {{.Link}}\n")),
	},
	domain.KindTicketStatus: {
		subject: template.Must(template.New("s").Parse(
			`[Enprodes] Seu chamado #{{.TicketID}} mudou de status`)),
		body: template.Must(template.New("b").Parse(
			"O status do seu chamado #{{.TicketID}} foi alterado.\n" +
				"De: {{.OldStatus}}\n" +
				"Para: {{.NewStatus}}\n" +
				"Link: {{.Link}}\n")),
	},
}

// renderKind renders subject and bodies for an event kind.
func renderKind(kind string, data templateData) (rendered, error) {
	tpl, ok := kindTemplates[kind]
	if !ok {
		return rendered{}, fmt.Errorf("no template for kind %q", kind)
	}
	var subject, body strings.Builder
	if err := tpl.subject.Execute(&subject, data); err != nil {
		return rendered{}, err
	}
	if err := tpl.body.Execute(&body, data); err != nil {
		return rendered{}, err
	}
	text := body.String()
	return rendered{
		Subject:  strings.TrimSpace(subject.String()),
		BodyText: text,
		BodyHTML: asBodyHTML(text),
	}, nil
}

// asBodyHTML wraps a plain-text body preserving single line breaks.
func asBodyHTML(text string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p>"
}

func ticketLink(baseURL, ticketID string) string {
	return strings.TrimRight(baseURL, "/") + "/chamados/" + ticketID + "/"
}
