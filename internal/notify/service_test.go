package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"academy/internal/mail"
	"academy/internal/queue"
)

type fakeRepo struct {
	rows []Notification
	err  error
}

func (f *fakeRepo) InsertBatch(_ context.Context, rows []Notification) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rows...)
	return nil
}

func recipients() []Recipient {
	return []Recipient{
		{ID: "u1", Name: "Asha", Email: "asha@test.test", Phone: "+91 98765 43210"},
		{ID: "u2", Name: "Ben", Email: "ben@test.test"},
		{ID: "u3", Name: "Cleo", Email: "", Phone: "123"},
	}
}

func TestSendWritesOneRowPerRecipient(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	res, err := svc.Send(context.Background(), recipients(), "Recital", "Saturday 5pm", Options{})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Created != 3 || len(repo.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(repo.rows))
	}
	for _, row := range repo.rows {
		if row.Read {
			t.Errorf("row %s should start unread", row.ID)
		}
		if row.UserID != row.RecipientID {
			t.Errorf("recipient id must land in both columns, got %q / %q", row.UserID, row.RecipientID)
		}
		if row.Title != "Recital" {
			t.Errorf("Title = %q", row.Title)
		}
	}
}

func TestSendEmptyRecipients(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)
	if _, err := svc.Send(context.Background(), nil, "s", "m", Options{}); err == nil {
		t.Fatal("Send with no recipients should fail")
	}
}

func TestSendWriteFailure(t *testing.T) {
	repo := &fakeRepo{err: errors.New("backend down")}
	svc := NewService(repo, queue.NewInMemory(8))

	_, err := svc.Send(context.Background(), recipients(), "s", "m", Options{Email: true})
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("err = %v, want ErrWrite", err)
	}
}

func TestSendQueuesEmailJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewInMemory(8)
	svc := NewService(&fakeRepo{}, q)

	res, err := svc.Send(ctx, recipients(), "Recital", "Saturday 5pm", Options{Email: true})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	// the third recipient has no email address
	if res.EmailsQueued != 2 {
		t.Fatalf("EmailsQueued = %d, want 2", res.EmailsQueued)
	}

	out, _ := q.Consume(ctx)
	got := <-out
	if got.Type != "email" {
		t.Errorf("message type = %q", got.Type)
	}
	var job mail.Message
	if err := json.Unmarshal(got.Body, &job); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if job.Subject != "Recital" {
		t.Errorf("Subject = %q", job.Subject)
	}
}

func TestSendNoEmailWithoutFlag(t *testing.T) {
	q := queue.NewInMemory(8)
	svc := NewService(&fakeRepo{}, q)

	res, err := svc.Send(context.Background(), recipients(), "s", "m", Options{})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.EmailsQueued != 0 {
		t.Errorf("EmailsQueued = %d, want 0", res.EmailsQueued)
	}
}

func TestSendWhatsAppLinks(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)

	res, err := svc.Send(context.Background(), recipients(), "Recital", "Saturday 5pm", Options{WhatsApp: true})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	// only the recipients with a phone number get a link
	if len(res.WhatsAppLinks) != 2 {
		t.Fatalf("links = %d, want 2", len(res.WhatsAppLinks))
	}
	if !strings.HasPrefix(res.WhatsAppLinks[0], "https://wa.me/919876543210?text=") {
		t.Errorf("link = %q", res.WhatsAppLinks[0])
	}
}

func TestWhatsAppLink(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{name: "no phone", phone: "", want: ""},
		{name: "letters only", phone: "n/a", want: ""},
		{name: "formatted", phone: "(011) 2345-6789", want: "https://wa.me/01123456789?text=hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WhatsAppLink(tt.phone, "hello", ""); got != tt.want {
				t.Errorf("WhatsAppLink() = %q, want %q", got, tt.want)
			}
		})
	}
}
