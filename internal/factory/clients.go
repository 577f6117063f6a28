package factory

import (
	"github.com/rs/zerolog"

	"github.com/confera/matching-service/internal/config"
	"github.com/confera/matching-service/internal/graph"
	"github.com/confera/matching-service/internal/namegen"
	"github.com/confera/matching-service/internal/notify"
)

// NewGraphSyncer builds the graph-store syncer, or nil when not configured.
func NewGraphSyncer(cfg *config.Config, log zerolog.Logger) graph.Syncer {
	if cfg.GraphSyncURL == "" {
		log.Info().Msg("graph sync not configured; match edges stay local")
		return nil
	}
	return graph.NewHTTPSyncer(cfg.GraphSyncURL)
}

// NewNamer builds the zone naming client, or nil when not configured.
// A nil namer falls through to deterministic fallback names.
func NewNamer(cfg *config.Config, log zerolog.Logger) namegen.Namer {
	if cfg.NamingServiceURL == "" {
		log.Info().Msg("naming service not configured; using fallback zone names")
		return nil
	}
	return namegen.NewHTTPNamer(cfg.NamingServiceURL, cfg.NamingModel)
}

// NewNotifier builds the webhook dispatcher, or nil when not configured.
func NewNotifier(cfg *config.Config, log zerolog.Logger) notify.Dispatcher {
	if cfg.NotifyWebhookURL == "" {
		log.Info().Msg("notification webhook not configured; match events unnotified")
		return nil
	}
	return notify.NewWebhookDispatcher(cfg.NotifyWebhookURL)
}
