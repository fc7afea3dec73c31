package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

type fakeMailer struct {
	to, firstName string
	err           error
}

func (f *fakeMailer) SendWelcomeEmail(_ context.Context, to, firstName string) error {
	f.to, f.firstName = to, firstName
	return f.err
}

func newTestService(mailer WelcomeMailer) *JobService {
	logger := zerolog.Nop()
	return &JobService{logger: &logger, mailer: mailer}
}

func TestNewWelcomeEmailTask(t *testing.T) {
	task, err := NewWelcomeEmailTask("u-1", "ada@x.io", "Ada")
	if err != nil {
		t.Fatalf("NewWelcomeEmailTask() error = %v", err)
	}
	if task.Type() != TaskWelcome {
		t.Fatalf("task type = %q", task.Type())
	}

	var p WelcomeEmailPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if p != (WelcomeEmailPayload{UserID: "u-1", To: "ada@x.io", FirstName: "Ada"}) {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestHandleWelcomeEmailTask(t *testing.T) {
	mailer := &fakeMailer{}
	task, _ := NewWelcomeEmailTask("u-1", "ada@x.io", "Ada")

	if err := newTestService(mailer).handleWelcomeEmailTask(context.Background(), task); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if mailer.to != "ada@x.io" || mailer.firstName != "Ada" {
		t.Fatalf("mailer called with %q %q", mailer.to, mailer.firstName)
	}
}

func TestHandleWelcomeEmailTaskFailures(t *testing.T) {
	bad := asynq.NewTask(TaskWelcome, []byte("{"))
	err := newTestService(&fakeMailer{}).handleWelcomeEmailTask(context.Background(), bad)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retry, got %v", err)
	}

	sendErr := errors.New("provider down")
	task, _ := NewWelcomeEmailTask("u-1", "ada@x.io", "Ada")
	err = newTestService(&fakeMailer{err: sendErr}).handleWelcomeEmailTask(context.Background(), task)
	if !errors.Is(err, sendErr) {
		t.Fatalf("expected send error to be returned for retry, got %v", err)
	}
}

func TestMuxRoutesWelcomeTask(t *testing.T) {
	mailer := &fakeMailer{}
	task, _ := NewWelcomeEmailTask("u-1", "ada@x.io", "Ada")

	if err := newTestService(mailer).Mux().ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if mailer.to != "ada@x.io" {
		t.Fatal("welcome handler was not invoked")
	}

	unknown := asynq.NewTask("email:unknown", nil)
	if err := newTestService(mailer).Mux().ProcessTask(context.Background(), unknown); err == nil {
		t.Fatal("expected error for an unregistered task type")
	}
}
