// Package app wires the live-view plumbing between the snapshot feed and
// the websocket hub.
package app

import (
	"context"

	"github.com/cliniccore/clinic-ops-platform/internal/chat"
	"github.com/cliniccore/clinic-ops-platform/internal/clinic"
	"github.com/cliniccore/clinic-ops-platform/internal/feed"
	"github.com/cliniccore/clinic-ops-platform/internal/queue"
	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// Topics the frontends subscribe to over the websocket.
const (
	TopicWorklist = "worklist"
	TopicDisplay  = "display"
	TopicDoctor   = "doctor"
	TopicChat     = "chat"
	TopicSettings = "settings"
)

// Broadcaster pushes a snapshot to every websocket subscriber of a topic.
type Broadcaster interface {
	Broadcast(topic string, payload any)
}

// LiveConfig lists the data sources behind each live topic.
type LiveConfig struct {
	Feed     *feed.Feed
	Hub      Broadcaster
	Engine   *queue.Engine
	Chat     chat.Repository
	Settings clinic.SettingsReader
	Logger   *logging.Logger
}

// WireLive registers feed subscriptions for every live topic. Each
// subscription runs once immediately, so subscribers connected before a
// write still receive the current state, and re-runs whenever a handler
// invalidates the backing collection.
func WireLive(ctx context.Context, cfg LiveConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	cfg.Feed.Subscribe(ctx,
		feed.Query{Collection: "appointments", Scope: TopicWorklist},
		func(ctx context.Context) (any, error) {
			return cfg.Engine.Worklist(ctx)
		},
		func(snapshot any) {
			cfg.Hub.Broadcast(TopicWorklist, map[string]any{"appointments": snapshot})
		},
	)

	cfg.Feed.Subscribe(ctx,
		feed.Query{Collection: "appointments", Scope: TopicDisplay},
		func(ctx context.Context) (any, error) {
			return cfg.Engine.DisplayPair(ctx)
		},
		func(snapshot any) {
			cfg.Hub.Broadcast(TopicDisplay, snapshot)
		},
	)

	cfg.Feed.Subscribe(ctx,
		feed.Query{Collection: "appointments", Scope: TopicDoctor},
		func(ctx context.Context) (any, error) {
			return cfg.Engine.CurrentPatient(ctx)
		},
		func(snapshot any) {
			cfg.Hub.Broadcast(TopicDoctor, map[string]any{"current_patient": snapshot})
		},
	)

	cfg.Feed.Subscribe(ctx,
		feed.Query{Collection: "chat"},
		func(ctx context.Context) (any, error) {
			return cfg.Chat.ListRecent(ctx)
		},
		func(snapshot any) {
			cfg.Hub.Broadcast(TopicChat, map[string]any{"messages": snapshot})
		},
	)

	cfg.Feed.Subscribe(ctx,
		feed.Query{Collection: "settings"},
		func(ctx context.Context) (any, error) {
			return cfg.Settings.Get(ctx)
		},
		func(snapshot any) {
			cfg.Hub.Broadcast(TopicSettings, snapshot)
		},
	)

	logger.Info("live topics wired",
		"topics", []string{TopicWorklist, TopicDisplay, TopicDoctor, TopicChat, TopicSettings},
	)
}
