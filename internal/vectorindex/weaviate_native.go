package vectorindex

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/confera/matching-service/internal/model"
)

const profileClass = "ParticipantProfile"

// weavNative is a native implementation of Index using the Weaviate Go client.
type weavNative struct {
	client  *weaviate.Client
	baseURL string // host:port without scheme
}

// NewWeaviateNativeIndex constructs an Index backed by Weaviate at baseURL.
// baseURL should be host:port (without scheme), e.g., "localhost:8081".
func NewWeaviateNativeIndex(baseURL string) (Index, error) {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &weavNative{client: cl, baseURL: baseURL}, nil
}

// objectID derives the deterministic Weaviate object id for a participant so
// repeated upserts target the same object.
func objectID(participantID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(participantID)).String()
}

func (w *weavNative) Vector(ctx context.Context, participantID string) ([]float32, error) {
	objs, err := w.client.Data().ObjectsGetter().
		WithClassName(profileClass).
		WithID(objectID(participantID)).
		WithVector().
		Do(ctx)
	if err != nil {
		log.Debug().Err(err).Str("participantId", participantID).Msg("weaviate vector fetch failed")
		return nil, err
	}
	if len(objs) == 0 || len(objs[0].Vector) == 0 {
		return nil, model.NewNotFoundError("participantId", participantID)
	}
	return objs[0].Vector, nil
}

// UpsertProfile implements a best-effort upsert using the Weaviate Data API.
// The prior object (if any) is deleted first since creates do not overwrite.
func (w *weavNative) UpsertProfile(ctx context.Context, participantID string, vec []float32, payload map[string]interface{}) error {
	id := objectID(participantID)
	_ = w.client.Data().Deleter().WithClassName(profileClass).WithID(id).Do(ctx)

	_, err := w.client.Data().Creator().
		WithClassName(profileClass).
		WithID(id).
		WithProperties(payload).
		WithVector(vec).
		Do(ctx)
	if err != nil {
		log.Error().Err(err).Str("participantId", participantID).Msg("weaviate profile upsert failed")
	}
	return err
}

func (w *weavNative) DeleteProfile(ctx context.Context, participantID string) error {
	return w.client.Data().Deleter().
		WithClassName(profileClass).
		WithID(objectID(participantID)).
		Do(ctx)
}

// HealthPing reports whether Weaviate is ready.
func (w *weavNative) HealthPing(ctx context.Context) error {
	_, err := w.client.Misc().ReadyChecker().Do(ctx)
	return err
}
