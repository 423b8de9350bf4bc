package mail

import (
	"context"
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	source := `# Password reset

Hi Ana,

[Reset your password](http://localhost:3000/reset-password?token=abc123)
`
	rendered := RenderMarkdown(source)

	if !strings.Contains(rendered, "<h1") || !strings.Contains(rendered, "Password reset") {
		t.Errorf("Heading not rendered: %s", rendered)
	}
	if !strings.Contains(rendered, `<a href="http://localhost:3000/reset-password?token=abc123"`) {
		t.Errorf("Link not rendered: %s", rendered)
	}
}

func TestNewMailer_FallsBackToLogMailer(t *testing.T) {
	mailer := NewMailer("", 587, "", "", "no-reply@thinkwise.local")

	if _, ok := mailer.(*LogMailer); !ok {
		t.Fatalf("Expected LogMailer without SMTP host, got %T", mailer)
	}

	if err := mailer.Send(context.Background(), "ana@example.com", "subject", "body"); err != nil {
		t.Errorf("Log mailer should never fail: %v", err)
	}
}
