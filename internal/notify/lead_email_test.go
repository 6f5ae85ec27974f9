package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/trois-dimensions/site-backend/internal/leads"
)

type recordingSender struct {
	msgs []EmailMessage
	id   string
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) (string, error) {
	r.msgs = append(r.msgs, msg)
	return r.id, r.err
}

func mustValidate(t *testing.T, sub leads.Submission) *leads.Validated {
	t.Helper()
	v, err := leads.Validate(sub)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	return v
}

func TestSubject(t *testing.T) {
	cases := []struct {
		category leads.Category
		want     string
	}{
		{leads.CategoryContact, "Nouveau message de contact - Jean"},
		{leads.CategoryValuation, "Demande d'analyse foncière - Jean"},
		{leads.CategoryBrochure, "Demande de brochure - Jean"},
		{leads.Category("other"), "Nouvelle demande - Jean"},
	}
	for _, tc := range cases {
		if got := Subject(tc.category, "Jean"); got != tc.want {
			t.Errorf("Subject(%q) = %q, want %q", tc.category, got, tc.want)
		}
	}
}

func TestSubject_CollapsesLineBreaks(t *testing.T) {
	if got := Subject(leads.CategoryContact, "Jean\r\nBcc: x"); got != "Nouveau message de contact - Jean Bcc: x" {
		t.Errorf("unexpected subject %q", got)
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := CategoryLabel(leads.CategoryValuation); got != "Demande d'analyse foncière" {
		t.Errorf("unexpected label %q", got)
	}
	if got := CategoryLabel(leads.Category("x")); got != "Nouvelle demande" {
		t.Errorf("unexpected default label %q", got)
	}
}

func TestRenderHTML_OptionalRows(t *testing.T) {
	v := mustValidate(t, leads.Submission{Type: "contact", Name: "Jean", Email: "jean@example.ch"})

	html := RenderHTML(v.Escaped)
	if !strings.Contains(html, "Message de contact") {
		t.Error("expected category label")
	}
	for _, absent := range []string{"Téléphone", "Type de projet", "Adresse du bien", "Projet<", "Message :"} {
		if strings.Contains(html, absent) {
			t.Errorf("did not expect %q in body", absent)
		}
	}
}

func TestRenderHTML_EscapedContent(t *testing.T) {
	v := mustValidate(t, leads.Submission{
		Type:         "valorisation",
		Name:         "<b>Jean</b>",
		Email:        "jean@example.ch",
		Phone:        "+41 79 000 00 00",
		Address:      "Rue du Lac 1, Genève",
		ProjectTitle: "Les Terrasses",
		Message:      "Bonjour\nJ'ai un terrain & une question",
	})

	html := RenderHTML(v.Escaped)
	if strings.Contains(html, "<b>Jean</b>") {
		t.Error("name must be escaped")
	}
	if !strings.Contains(html, "&lt;b&gt;Jean&lt;/b&gt;") {
		t.Error("expected escaped name")
	}
	if !strings.Contains(html, "Bonjour<br>J&#039;ai un terrain &amp; une question") {
		t.Errorf("expected single-escaped message with line breaks, got %s", html)
	}
	if !strings.Contains(html, `href="tel:+41 79 000 00 00"`) {
		t.Error("expected phone link")
	}
	if !strings.Contains(html, "Adresse du bien") || !strings.Contains(html, "Les Terrasses") {
		t.Error("expected address and project rows")
	}
}

func TestLeadNotifier_Notify(t *testing.T) {
	sender := &recordingSender{id: "msg-1"}
	notifier := NewLeadNotifier(sender, "contact@trois-dimensions.ch", nil)
	v := mustValidate(t, leads.Submission{Type: "brochure", Name: "O'Neil", Email: "o.neil@example.ch", ProjectTitle: "Villa"})

	id, err := notifier.Notify(context.Background(), v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "msg-1" {
		t.Errorf("expected msg-1, got %q", id)
	}
	if len(sender.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.msgs))
	}
	msg := sender.msgs[0]
	if msg.To != "contact@trois-dimensions.ch" {
		t.Errorf("unexpected recipient %q", msg.To)
	}
	if msg.ReplyTo != "o.neil@example.ch" {
		t.Errorf("unexpected reply-to %q", msg.ReplyTo)
	}
	if msg.Subject != "Demande de brochure - O'Neil" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "O&#039;Neil") {
		t.Error("expected escaped name in html")
	}
}

func TestLeadNotifier_SenderError(t *testing.T) {
	sender := &recordingSender{err: errors.New("provider down")}
	notifier := NewLeadNotifier(sender, "contact@trois-dimensions.ch", nil)
	v := mustValidate(t, leads.Submission{Type: "contact", Name: "A", Email: "a@b.ch"})

	if _, err := notifier.Notify(context.Background(), v); err == nil {
		t.Fatal("expected error")
	}
}

func TestLeadNotifier_NotConfigured(t *testing.T) {
	notifier := NewLeadNotifier(nil, "contact@trois-dimensions.ch", nil)
	v := mustValidate(t, leads.Submission{Type: "contact", Name: "A", Email: "a@b.ch"})

	if _, err := notifier.Notify(context.Background(), v); !errors.Is(err, ErrSenderNotConfigured) {
		t.Errorf("expected ErrSenderNotConfigured, got %v", err)
	}
}
