package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Notifier sends alerts to a Telegram chat via the Bot API.
type Notifier struct {
	botToken   string
	chatID     string
	httpClient *http.Client
	enabled    bool
	baseURL    string // overridable for testing; defaults to Telegram API
}

// NewNotifier creates a Notifier. Notifications are enabled only when both
// botToken and chatID are non-empty.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken:   botToken,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		enabled:    botToken != "" && chatID != "",
	}
}

// Enabled reports whether the notifier is active.
func (n *Notifier) Enabled() bool { return n.enabled }

// Send posts a message to the configured Telegram chat.
func (n *Notifier) Send(ctx context.Context, msg string) error {
	if !n.enabled {
		return nil
	}

	endpoint := n.baseURL
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	}
	vals := url.Values{
		"chat_id":    {n.chatID},
		"text":       {msg},
		"parse_mode": {"HTML"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.URL.RawQuery = vals.Encode()

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("notify: telegram %d: %s", resp.StatusCode, body.Description)
	}
	return nil
}

// NotifyMilestone sends a milestone unlock alert.
func (n *Notifier) NotifyMilestone(ctx context.Context, title, threshold string) error {
	msg := fmt.Sprintf("<b>Milestone Unlocked</b>\n%s\nThreshold: %s", title, threshold)
	return n.Send(ctx, msg)
}

// NotifyDeposit sends a confirmed deposit alert.
func (n *Notifier) NotifyDeposit(ctx context.Context, amountSOL, signature string) error {
	msg := fmt.Sprintf("<b>Deposit Confirmed</b>\nAmount: %s SOL\nSignature: <code>%s</code>", amountSOL, signature)
	return n.Send(ctx, msg)
}

// NotifyClaim sends a confirmed claim alert.
func (n *Notifier) NotifyClaim(ctx context.Context, amountSOL, signature string) error {
	msg := fmt.Sprintf("<b>Claim Confirmed</b>\nEstimated Yield: %s SOL\nSignature: <code>%s</code>", amountSOL, signature)
	return n.Send(ctx, msg)
}

// NotifyPhaseChange sends an alert when the protocol advances phases.
func (n *Notifier) NotifyPhaseChange(ctx context.Context, from, to string, epoch uint64) error {
	msg := fmt.Sprintf("<b>Phase Change</b>\n%s to %s (epoch %d)", from, to, epoch)
	return n.Send(ctx, msg)
}
