package vectorindex

import (
	"context"
	"fmt"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// BootstrapWeaviate ensures the profile class exists. Vectors are supplied by
// the relay worker, so the class carries no vectorizer.
func BootstrapWeaviate(ctx context.Context, baseURL string) error {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	profile := &models.Class{
		Class:      profileClass,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "participantId", DataType: []string{"text"}},
			{Name: "eventId", DataType: []string{"text"}},
			{Name: "profileText", DataType: []string{"text"}},
			{Name: "creationTime", DataType: []string{"date"}},
		},
	}

	exists, err := cl.Schema().ClassExistenceChecker().WithClassName(profileClass).Do(cctx)
	if err != nil {
		return fmt.Errorf("check %s class: %w", profileClass, err)
	}
	if exists {
		return nil
	}
	if err := cl.Schema().ClassCreator().WithClass(profile).Do(cctx); err != nil {
		return fmt.Errorf("bootstrap %s: %w", profileClass, err)
	}
	return nil
}
