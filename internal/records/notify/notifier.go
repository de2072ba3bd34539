package notify

import (
	"context"
	"time"
)

// SyncAlert reports a sync run in which some resources failed.
type SyncAlert struct {
	Failed map[string]string `json:"failed"`
	Synced map[string]int    `json:"synced"`
	At     time.Time         `json:"at"`
}

// Notifier sends sync alerts.
type Notifier interface {
	Notify(ctx context.Context, alert SyncAlert) error
}
