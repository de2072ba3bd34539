package notify

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// WebhookNotifier posts sync alerts as text messages to a webhook. Identical
// failure sets are sent at most once per cooldown.
type WebhookNotifier struct {
	url      string
	client   *http.Client
	cooldown time.Duration

	mu   sync.Mutex
	sent map[string]time.Time
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string, cooldown time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		url:      url,
		client:   &http.Client{Timeout: 10 * time.Second},
		cooldown: cooldown,
		sent:     make(map[string]time.Time),
	}
}

// Notify sends alert unless the same failures were reported within the cooldown.
func (n *WebhookNotifier) Notify(ctx context.Context, alert SyncAlert) error {
	if n == nil || n.url == "" {
		return errors.New("webhook notifier: empty url")
	}
	if alert.At.IsZero() {
		alert.At = time.Now().UTC()
	}
	key := failureKey(alert.Failed)
	if n.suppressed(key, alert.At) {
		return nil
	}

	body, err := json.Marshal(webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: formatSyncAlert(alert)},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook notifier: status %d", resp.StatusCode)
	}

	n.mu.Lock()
	n.sent[key] = alert.At
	n.mu.Unlock()
	return nil
}

func (n *WebhookNotifier) suppressed(key string, at time.Time) bool {
	if n.cooldown <= 0 {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	last, ok := n.sent[key]
	return ok && at.Sub(last) < n.cooldown
}

func failureKey(failed map[string]string) string {
	names := sortedKeys(failed)
	sum := sha1.Sum([]byte(strings.Join(names, ",")))
	return hex.EncodeToString(sum[:])
}

func formatSyncAlert(alert SyncAlert) string {
	var b strings.Builder
	b.WriteString("[Marketplace Sync Alert]\n")
	fmt.Fprintf(&b, "At: %s\n", alert.At.Format(time.RFC3339))
	for _, name := range sortedKeys(alert.Failed) {
		fmt.Fprintf(&b, "Failed %s: %s\n", name, alert.Failed[name])
	}
	if len(alert.Synced) > 0 {
		names := make([]string, 0, len(alert.Synced))
		for name := range alert.Synced {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, alert.Synced[name]))
		}
		fmt.Fprintf(&b, "Synced: %s\n", strings.Join(parts, ", "))
	}
	return strings.TrimSpace(b.String())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
