package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/golfmax/fitting-edge/internal/domain/model"
)

func sampleReceipt() model.SubmissionReceipt {
	return model.SubmissionReceipt{
		Fields: map[string]string{
			"name":     "Jane Doe",
			"email":    "jane@example.com",
			"handicap": "12",
			"goals":    "More carry distance",
		},
		ObjectKey:        "videos/2025-08-30T14-05-09-000Z_jane-doe_1a2b3c4d.mp4",
		MetadataKey:      "videos/2025-08-30T14-05-09-000Z_jane-doe_1a2b3c4d.mp4.json",
		SizeBytes:        5 << 20,
		ContentType:      "video/mp4",
		SignedVideoURL:   "https://minio.example.com/video?sig=a",
		SignedMetaURL:    "https://minio.example.com/meta?sig=b",
		SignedExpiresAt:  time.Date(2025, 8, 31, 14, 5, 9, 0, time.UTC),
		SignedTTLSeconds: 86400,
	}
}

func TestWebhook_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("webhook method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("webhook content type = %q, want application/json", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("webhook body is not JSON: %v", err)
		}
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second)

	if err := w.Send(context.Background(), sampleReceipt()); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if got["type"] != "golfmax_remote_fitting_upload" {
		t.Errorf("payload type = %v, want golfmax_remote_fitting_upload", got["type"])
	}
	if got["name"] != "Jane Doe" {
		t.Errorf("payload name = %v, want form field spread at top level", got["name"])
	}
	if got["objectKey"] == "" {
		t.Error("payload missing objectKey")
	}
}

func TestWebhook_SendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second)

	if err := w.Send(context.Background(), sampleReceipt()); err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
}

func TestWebhook_DisabledIsNoop(t *testing.T) {
	w := NewWebhook("", time.Second)

	if w.Enabled() {
		t.Error("Enabled() = true for empty URL")
	}
	if err := w.Send(context.Background(), sampleReceipt()); err != nil {
		t.Errorf("Send on disabled webhook = %v, want nil", err)
	}
}

func TestParseRecipients(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"comma separated", "a@x.com,b@y.com", []string{"a@x.com", "b@y.com"}},
		{"mixed separators", "a@x.com; b@y.com c@z.com", []string{"a@x.com", "b@y.com", "c@z.com"}},
		{"drops non-addresses", "a@x.com,not-an-address", []string{"a@x.com"}},
		{"dedupes case-insensitively", "A@x.com,a@X.com", []string{"A@x.com"}},
		{"empty input", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRecipients(tt.value)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRecipients(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestBuildEmailBody(t *testing.T) {
	body := BuildEmailBody(sampleReceipt())

	for _, want := range []string{
		"Name: Jane Doe",
		"Email: jane@example.com",
		"Handicap: 12",
		"Goals:\nMore carry distance",
		"Stored video key: videos/2025-08-30T14-05-09-000Z_jane-doe_1a2b3c4d.mp4",
		"Video size: 5.0 MB",
		"Download video: https://minio.example.com/video?sig=a",
		"Signed links expire: 2025-08-31 14:05:09 UTC (~24 hours)",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("email body missing %q\nbody:\n%s", want, body)
		}
	}
}

func TestBuildEmailBody_OmitsAbsentFields(t *testing.T) {
	receipt := sampleReceipt()
	delete(receipt.Fields, "handicap")
	receipt.SignedVideoURL = ""
	receipt.SignedMetaURL = ""
	receipt.SignedExpiresAt = time.Time{}

	body := BuildEmailBody(receipt)

	for _, absent := range []string{"Handicap:", "Download video:", "Signed links expire:"} {
		if strings.Contains(body, absent) {
			t.Errorf("email body should omit %q\nbody:\n%s", absent, body)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2 KB"},
		{5 << 20, "5.0 MB"},
		{3 << 30, "3.00 GB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.bytes); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

// mockMailSender implements mailSender for testing.
type mockMailSender struct {
	sendFunc func(message *mail.SGMailV3) error
	sent     []*mail.SGMailV3
}

func (m *mockMailSender) Send(message *mail.SGMailV3) error {
	m.sent = append(m.sent, message)
	if m.sendFunc != nil {
		return m.sendFunc(message)
	}
	return nil
}

func TestEmail_Send(t *testing.T) {
	sender := &mockMailSender{}
	e := NewEmail(EmailConfig{
		APIKey:     "sg-key",
		Recipients: "fit@example.com, ops@example.com",
		From:       "noreply@example.com",
		Subject:    "New submission",
	})
	e.sender = sender

	if err := e.Send(sampleReceipt()); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.Subject != "New submission" {
		t.Errorf("Subject = %q, want %q", msg.Subject, "New submission")
	}
	if len(msg.Personalizations) != 1 || len(msg.Personalizations[0].To) != 2 {
		t.Fatalf("personalizations = %+v, want one with two recipients", msg.Personalizations)
	}
	if msg.From.Address != "noreply@example.com" {
		t.Errorf("From = %q, want %q", msg.From.Address, "noreply@example.com")
	}
	if len(msg.Content) != 1 || msg.Content[0].Type != "text/plain" {
		t.Fatalf("content = %+v, want one text/plain part", msg.Content)
	}
}

func TestEmail_DisabledWithoutKeyOrRecipients(t *testing.T) {
	tests := []struct {
		name string
		cfg  EmailConfig
	}{
		{"no API key", EmailConfig{Recipients: "a@x.com"}},
		{"no recipients", EmailConfig{APIKey: "sg-key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEmail(tt.cfg)
			if e.Enabled() {
				t.Error("Enabled() = true, want disabled channel")
			}
			if err := e.Send(sampleReceipt()); err != nil {
				t.Errorf("Send on disabled channel = %v, want nil", err)
			}
		})
	}
}

func TestDispatcher_OneFailingChannelDoesNotBlockTheOther(t *testing.T) {
	webhookCalled := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookCalled = true
	}))
	defer srv.Close()

	sender := &mockMailSender{
		sendFunc: func(message *mail.SGMailV3) error {
			return errors.New("sendgrid down")
		},
	}
	email := NewEmail(EmailConfig{APIKey: "sg-key", Recipients: "fit@example.com"})
	email.sender = sender

	d := NewDispatcher(NewWebhook(srv.URL, time.Second), email, slog.New(slog.DiscardHandler))

	err := d.Notify(context.Background(), sampleReceipt())

	if !webhookCalled {
		t.Error("webhook channel was not invoked")
	}
	if len(sender.sent) != 1 {
		t.Errorf("email channel invoked %d times, want 1", len(sender.sent))
	}
	if err == nil {
		t.Error("Notify() = nil, want joined error reporting the email failure")
	}
}

func TestDispatcher_AllChannelsDisabled(t *testing.T) {
	d := NewDispatcher(NewWebhook("", time.Second), NewEmail(EmailConfig{}), slog.New(slog.DiscardHandler))

	if err := d.Notify(context.Background(), sampleReceipt()); err != nil {
		t.Errorf("Notify() = %v, want nil with no channels", err)
	}
}
