// Package namegen produces display names for meeting zones through an
// external text generation service, with a deterministic local fallback.
// Core logic never blocks on it.
package namegen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/confera/matching-service/internal/model"
)

// ZoneSummary is the member digest handed to the naming service.
type ZoneSummary struct {
	Intents    []string `json:"intents"`
	Industries []string `json:"industries"`
	Size       int      `json:"size"`
}

// Namer returns a short display name for a zone.
type Namer interface {
	ZoneName(ctx context.Context, summary ZoneSummary) (string, error)
}

// NameZone asks namer for a display name and falls back to the deterministic
// template on any failure or empty answer. n is the 1-based zone ordinal.
func NameZone(ctx context.Context, namer Namer, summary ZoneSummary, n int) string {
	if namer == nil {
		return model.FallbackZoneName(n)
	}
	name, err := namer.ZoneName(ctx, summary)
	if err != nil || strings.TrimSpace(name) == "" {
		log.Warn().Err(err).Int("zone", n).Msg("zone naming failed, using fallback")
		return model.FallbackZoneName(n)
	}
	return strings.TrimSpace(name)
}

// httpNamer calls a completion-style HTTP endpoint.
type httpNamer struct {
	client *resty.Client
	model  string
}

// NewHTTPNamer builds a Namer against baseURL. A short timeout keeps the
// clustering path responsive when the service is slow.
func NewHTTPNamer(baseURL, generationModel string) Namer {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second)
	return &httpNamer{client: c, model: generationModel}
}

type nameResponse struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

func (n *httpNamer) ZoneName(ctx context.Context, summary ZoneSummary) (string, error) {
	var out nameResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"model":   n.model,
			"summary": summary,
		}).
		SetResult(&out).
		Post("/v1/zone-names")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("naming service status %d", resp.StatusCode())
	}
	if out.Error != "" {
		return "", fmt.Errorf("naming service error: %s", out.Error)
	}
	return out.Name, nil
}
