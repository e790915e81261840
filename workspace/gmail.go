package workspace

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/m4xw311/steward/agent/email"
)

// GmailScopes are the scopes GmailMailbox needs.
var GmailScopes = []string{gmail.GmailModifyScope}

// GmailMailbox is an email.Mailbox backed by the signed-in user's Gmail.
type GmailMailbox struct {
	svc *gmail.Service
}

var _ email.Mailbox = (*GmailMailbox)(nil)

// NewGmailMailbox creates the Gmail service. Pass option.WithHTTPClient
// with a client from Auth.Client.
func NewGmailMailbox(ctx context.Context, opts ...option.ClientOption) (*GmailMailbox, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, classify(err, "could not create gmail service")
	}
	return &GmailMailbox{svc: svc}, nil
}

func (g *GmailMailbox) Recent(ctx context.Context, max int) ([]email.Message, error) {
	list, err := g.svc.Users.Messages.List("me").
		LabelIds("INBOX").
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err, "could not list inbox")
	}

	msgs := make([]email.Message, 0, len(list.Messages))
	for _, m := range list.Messages {
		full, err := g.svc.Users.Messages.Get("me", m.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).
			Do()
		if err != nil {
			return nil, classify(err, "could not read message %s", m.Id)
		}
		msgs = append(msgs, email.Message{
			From:    header(full, "From"),
			Subject: header(full, "Subject"),
			Date:    header(full, "Date"),
		})
	}
	return msgs, nil
}

func (g *GmailMailbox) Send(ctx context.Context, to, subject, body string) error {
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(composeMIME(to, subject, body))}
	if _, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return classify(err, "could not send email to %s", to)
	}
	return nil
}

// composeMIME renders a plain-text RFC 5322 message. Header values are
// Q-encoded, which also keeps line breaks out of the headers.
func composeMIME(to, subject, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", strings.NewReplacer("\r", "", "\n", "").Replace(to))
	fmt.Fprintf(&sb, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

func header(m *gmail.Message, name string) string {
	if m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
