package notify

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/golfmax/fitting-edge/internal/domain/model"
)

// mailSender abstracts the SendGrid client for testing.
type mailSender interface {
	Send(message *mail.SGMailV3) error
}

// sendGridSender adapts *sendgrid.Client to mailSender, folding non-2xx
// API responses into errors.
type sendGridSender struct {
	client *sendgrid.Client
}

func (s *sendGridSender) Send(message *mail.SGMailV3) error {
	resp, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// EmailConfig holds configuration for the email channel.
type EmailConfig struct {
	APIKey     string
	Recipients string // raw list, parsed by ParseRecipients
	From       string
	FromName   string
	Subject    string
}

// Email sends a plain-text intake summary via the SendGrid v3 API.
type Email struct {
	sender     mailSender
	recipients []string
	from       string
	fromName   string
	subject    string
}

// NewEmail creates an email channel. Missing API key or an empty
// recipient list disables it.
func NewEmail(cfg EmailConfig) *Email {
	recipients := ParseRecipients(cfg.Recipients)

	e := &Email{
		recipients: recipients,
		from:       cfg.From,
		fromName:   cfg.FromName,
		subject:    cfg.Subject,
	}
	if cfg.APIKey != "" && len(recipients) > 0 {
		e.sender = &sendGridSender{client: sendgrid.NewSendClient(cfg.APIKey)}
	}
	if e.from == "" && len(recipients) > 0 {
		e.from = recipients[0]
	}
	if e.fromName == "" {
		e.fromName = "GolfMax Remote Fitting"
	}
	if e.subject == "" {
		e.subject = "New GolfMax remote fitting submission"
	}
	return e
}

// Enabled reports whether the channel has an API key and recipients.
func (e *Email) Enabled() bool {
	return e.sender != nil
}

// Send delivers the intake summary email.
func (e *Email) Send(receipt model.SubmissionReceipt) error {
	if !e.Enabled() {
		return nil
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(e.fromName, e.from))
	message.Subject = e.subject

	personalization := mail.NewPersonalization()
	for _, rcpt := range e.recipients {
		personalization.AddTos(mail.NewEmail("", rcpt))
	}
	message.AddPersonalizations(personalization)
	message.AddContent(mail.NewContent("text/plain", BuildEmailBody(receipt)))

	return e.sender.Send(message)
}

var recipientSeparator = regexp.MustCompile(`[,;\s]+`)

// ParseRecipients splits a raw recipient list on commas, semicolons and
// whitespace, drops entries without an @, and dedupes case-insensitively
// while preserving original case and order.
func ParseRecipients(value string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, entry := range recipientSeparator.Split(value, -1) {
		entry = strings.TrimSpace(entry)
		if entry == "" || !strings.Contains(entry, "@") {
			continue
		}
		lower := strings.ToLower(entry)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, entry)
	}
	return out
}

// namedFields are the known intake form fields rendered as labeled lines,
// in template order.
var namedFields = []struct {
	key   string
	label string
	block bool
}{
	{"phone", "Phone", false},
	{"handicap", "Handicap", false},
	{"preferred-contact", "Preferred follow-up", false},
	{"launch-monitor", "Launch monitor", false},
	{"current-clubs", "Current clubs", true},
	{"goals", "Goals", true},
}

// BuildEmailBody renders the plain-text intake summary.
func BuildEmailBody(receipt model.SubmissionReceipt) string {
	field := func(key string) string { return receipt.Fields[key] }
	orNA := func(v string) string {
		if v == "" {
			return "N/A"
		}
		return v
	}

	lines := []string{
		"A new remote fitting intake has been submitted.",
		"",
		"Name: " + orNA(field("name")),
		"Email: " + orNA(field("email")),
	}
	for _, f := range namedFields {
		v := field(f.key)
		if v == "" {
			continue
		}
		if f.block {
			lines = append(lines, f.label+":\n"+v)
		} else {
			lines = append(lines, f.label+": "+v)
		}
	}

	lines = append(lines,
		"",
		"Stored video key: "+orNA(receipt.ObjectKey),
	)
	if receipt.MetadataKey != "" {
		lines = append(lines, "Metadata key: "+receipt.MetadataKey)
	}
	lines = append(lines,
		"Video size: "+FormatBytes(receipt.SizeBytes),
		"Content-Type: "+orNA(receipt.ContentType),
	)
	if receipt.SignedVideoURL != "" {
		lines = append(lines, "Download video: "+receipt.SignedVideoURL)
	}
	if receipt.SignedMetaURL != "" {
		lines = append(lines, "Download metadata: "+receipt.SignedMetaURL)
	}
	if !receipt.SignedExpiresAt.IsZero() {
		lines = append(lines, "Signed links expire: "+formatExpiry(receipt.SignedExpiresAt, receipt.SignedTTLSeconds))
	}
	lines = append(lines,
		"",
		"Retrieve the file from the uploads bucket or connected storage.",
	)
	return strings.Join(lines, "\n")
}

// FormatBytes renders a byte count for humans.
func FormatBytes(bytes int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%d KB", int64(float64(bytes)/kb+0.5))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatExpiry renders the link expiry with an approximate hour count.
func formatExpiry(expiresAt time.Time, ttlSeconds int) string {
	stamp := strings.NewReplacer("T", " ", "Z", " UTC").
		Replace(expiresAt.UTC().Format("2006-01-02T15:04:05Z"))
	if ttlSeconds <= 0 {
		return stamp
	}
	hours := float64(ttlSeconds) / 3600
	if hours >= 10 {
		return fmt.Sprintf("%s (~%d hours)", stamp, int(hours+0.5))
	}
	return fmt.Sprintf("%s (~%.1f hours)", stamp, hours)
}
