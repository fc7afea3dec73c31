package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

type fakeSender struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (f *fakeSender) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &resend.SendEmailResponse{Id: "msg_1"}, nil
}

func TestRenderEveryPreview(t *testing.T) {
	for name, data := range PreviewData {
		body, err := Render(name, data)
		if err != nil {
			t.Fatalf("Render(%s) error = %v", name, err)
		}
		for _, v := range data {
			if !strings.Contains(body, v) {
				t.Errorf("Render(%s) missing %q", name, v)
			}
		}
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, err := Render("missing", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestSendWelcomeEmail(t *testing.T) {
	sender := &fakeSender{}
	logger := zerolog.Nop()
	client := NewClientWithSender(sender, "hello@lodging.dev", &logger)

	if err := client.SendWelcomeEmail(context.Background(), "ada@x.io", "Ada"); err != nil {
		t.Fatalf("SendWelcomeEmail() error = %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To[0] != "ada@x.io" || msg.From != "Lodging <hello@lodging.dev>" {
		t.Fatalf("unexpected request: %+v", msg)
	}
	if !strings.Contains(msg.Html, "Welcome, Ada!") {
		t.Fatalf("body not rendered: %s", msg.Html)
	}
}

func TestSendEmailErrors(t *testing.T) {
	logger := zerolog.Nop()
	client := NewClientWithSender(&fakeSender{err: errors.New("rate limited")}, "hello@lodging.dev", &logger)

	err := client.SendWelcomeEmail(context.Background(), "ada@x.io", "Ada")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestDisabledClientSkipsSend(t *testing.T) {
	logger := zerolog.Nop()
	client := NewClientWithSender(nil, "hello@lodging.dev", &logger)

	if client.Enabled() {
		t.Fatal("client without sender must be disabled")
	}
	if err := client.SendWelcomeEmail(context.Background(), "ada@x.io", "Ada"); err != nil {
		t.Fatalf("disabled send error = %v", err)
	}
}
