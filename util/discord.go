package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AuditKind selects the report layout sent to the webhook.
type AuditKind string

const (
	AuditLoginSuccess   AuditKind = "login_success"
	AuditLoginFailure   AuditKind = "login_failure"
	AuditContactMessage AuditKind = "contact"
)

// AuditUser is the (possibly partial) identity attached to a login event.
type AuditUser struct {
	ID       string
	Username string
}

// AuditEvent is one security- or contact-relevant action to report.
type AuditEvent struct {
	Kind AuditKind

	// User is required for login successes; for failures it carries whatever
	// partial identity was resolved before the flow broke, possibly nil.
	User   *AuditUser
	Reason string

	// Contact form payload.
	Name    string
	Email   string
	Subject string
	Body    string

	IP        string
	UserAgent string
	Coords    *Coordinates
}

// Discord webhook wire format.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields"`
	Footer      EmbedFooter  `json:"footer"`
}

type WebhookPayload struct {
	Username string  `json:"username"`
	Embeds   []Embed `json:"embeds"`
}

const (
	colorGreen = 0x00ff00
	colorRed   = 0xff0000
	colorBlue  = 0x0099ff
)

// Notifier formats audit events into Discord embeds and delivers them
// best-effort to a configured webhook. Delivery failure is logged and never
// propagated; an unset webhook URL makes Send a logged no-op.
type Notifier struct {
	webhookURL string
	client     *http.Client
	loc        *time.Location
	now        func() time.Time
}

// NewNotifier builds a Notifier reporting in the given IANA timezone.
// An unknown timezone falls back to UTC.
func NewNotifier(webhookURL, timezone string) *Notifier {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		loc:        loc,
		now:        time.Now,
	}
}

// SetHTTPClientForTesting swaps the delivery client.
func (n *Notifier) SetHTTPClientForTesting(c *http.Client) { n.client = c }

// SetClockForTesting pins the notifier's clock.
func (n *Notifier) SetClockForTesting(now func() time.Time) { n.now = now }

// Send assembles and delivers one audit report. It also records the event in
// the security log. Fire-and-forget: it returns nothing and callers must not
// depend on its outcome.
func (n *Notifier) Send(ctx context.Context, ev AuditEvent) {
	n.logEvent(ev)

	if n.webhookURL == "" {
		securityLogger.Println("Discord webhook URL not configured, skipping notification")
		return
	}

	device := GetDeviceInfo(ev.UserAgent)
	location := ResolveLocation(ctx, ev.IP, ev.Coords)
	timestamp := n.now().In(n.loc).Format("2/1/2006, 15:04:05")

	payload := WebhookPayload{
		Username: "Portfolio Security",
		Embeds:   []Embed{n.buildEmbed(ev, device, location, timestamp)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		securityLogger.Printf("Failed to encode webhook payload: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		securityLogger.Printf("Failed to build webhook request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		securityLogger.Printf("Failed to send Discord webhook: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		securityLogger.Printf("Discord webhook returned status %d", resp.StatusCode)
	}
}

func (n *Notifier) logEvent(ev AuditEvent) {
	event := SecurityEvent{
		IP:        ev.IP,
		UserAgent: ev.UserAgent,
	}
	if ev.User != nil {
		event.DiscordID = ev.User.ID
		event.Username = ev.User.Username
	}

	switch ev.Kind {
	case AuditLoginSuccess:
		event.EventType = EventLoginSuccess
		event.Message = "Admin logged in successfully"
	case AuditLoginFailure:
		event.EventType = EventLoginFailure
		event.Message = fmt.Sprintf("Login failed: %s", ev.Reason)
	case AuditContactMessage:
		event.EventType = EventContactMessage
		event.Message = fmt.Sprintf("Contact message from %s <%s>: %s", ev.Name, ev.Email, ev.Subject)
	}

	LogSecurityEvent(event)
}

// truncateRunes shortens s to at most max runes, never splitting a
// multi-byte character.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func (n *Notifier) buildEmbed(ev AuditEvent, device DeviceInfo, location LocationResult, timestamp string) Embed {
	locationString := location.LocationString()
	mapLink := ""
	if location.Precise != nil {
		mapLink = fmt.Sprintf("\n[📍 Open in Google Maps](%s)", location.Precise.MapLink)
	}
	// Raw IP is spoiler-wrapped so it stays redacted until clicked.
	spoilerIP := fmt.Sprintf("||%s||", location.Approx.IP)

	switch ev.Kind {
	case AuditLoginSuccess:
		userValue := "Unknown"
		if ev.User != nil {
			userValue = fmt.Sprintf("%s (ID: %s)", ev.User.Username, ev.User.ID)
		}
		return Embed{
			Title:       "🔐 New Admin Login Success",
			Description: "An administrator signed in successfully." + mapLink,
			Color:       colorGreen,
			Fields: []EmbedField{
				{Name: "User", Value: userValue, Inline: true},
				{Name: "Time", Value: timestamp, Inline: true},
				{Name: "Location", Value: locationString, Inline: true},
				{Name: "IP Address", Value: spoilerIP, Inline: true},
				{Name: "Device Info", Value: fmt.Sprintf("**%s** | %s", device.Brand, device.Device)},
				{Name: "OS / Browser", Value: fmt.Sprintf("%s / %s", device.OS, device.Browser), Inline: true},
			},
			Footer: EmbedFooter{Text: "Security System"},
		}

	case AuditLoginFailure:
		userValue := "Unknown (Not authenticated)"
		if ev.User != nil {
			userValue = fmt.Sprintf("%s (%s)", ev.User.Username, ev.User.ID)
		}
		deviceValue := fmt.Sprintf("**%s** | %s", device.Brand, device.Device)
		if device.IsVirtual {
			deviceValue = fmt.Sprintf("⚠️ **FAKE DEVICE** (%s)", device.Brand)
		}
		reason := ev.Reason
		if reason == "" {
			reason = "Unknown Error"
		}
		rawUA := truncateRunes(device.RawUserAgent, 100)
		return Embed{
			Title:       "⚠️ Admin Login FAILED",
			Description: "A sign-in attempt **failed**." + mapLink,
			Color:       colorRed,
			Fields: []EmbedField{
				{Name: "Reason", Value: reason},
				{Name: "User", Value: userValue, Inline: true},
				{Name: "Time", Value: timestamp, Inline: true},
				{Name: "Location", Value: locationString, Inline: true},
				{Name: "IP Address", Value: spoilerIP, Inline: true},
				{Name: "Device Info", Value: deviceValue, Inline: true},
				{Name: "OS / Browser", Value: fmt.Sprintf("%s / %s", device.OS, device.Browser), Inline: true},
				{Name: "HWID / UA", Value: fmt.Sprintf("`%s`", rawUA)},
			},
			Footer: EmbedFooter{Text: "Security Alert System"},
		}

	default: // AuditContactMessage
		return Embed{
			Title:       "📩 New Contact Message",
			Description: "A new message arrived from the website.",
			Color:       colorBlue,
			Fields: []EmbedField{
				{Name: "From", Value: fmt.Sprintf("%s (%s)", ev.Name, ev.Email)},
				{Name: "Subject", Value: ev.Subject},
				{Name: "Message", Value: fmt.Sprintf("```%s```", ev.Body)},
				{Name: "Time", Value: timestamp, Inline: true},
				{Name: "Location", Value: locationString, Inline: true},
				{Name: "IP (Sender)", Value: spoilerIP, Inline: true},
			},
			Footer: EmbedFooter{Text: "Contact Form System"},
		}
	}
}
