package ports

import "context"

// Mailer sends transactional email. Implementations render Markdown
// bodies to HTML with a plain-text alternative.
type Mailer interface {
	// Send delivers one message; body is Markdown
	Send(ctx context.Context, to, subject, markdownBody string) error
}
