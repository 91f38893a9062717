package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/mkt918/nagoya-parking-map/backend/pkg/config"
	"github.com/mkt918/nagoya-parking-map/backend/pkg/retry"
)

const (
	LotsCollection = "parking_lots"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a Typesense client and waits for the cluster to report healthy
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.Startup("typesense").Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		healthy, err := client.Health(ctx, 2*time.Second)
		if err != nil {
			return err
		}
		if !healthy {
			return fmt.Errorf("cluster reports unhealthy")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("typesense at %s not reachable: %w", cfg.URL, err)
	}

	log.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// LotsSchema is the collection lots are indexed into
func LotsSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: LotsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "lot_id", Type: "int32"},
			{Name: "name", Type: "string", Locale: pointer.String("ja")},
			{Name: "location", Type: "geopoint"},
			{Name: "pricing_kind", Type: "string", Facet: pointer.True()},
			{Name: "distance_m", Type: "int32", Optional: pointer.True()},
		},
		DefaultSortingField: pointer.String("lot_id"),
	}
}

// InitSchema ensures the lots collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == LotsCollection {
			log.Debug().Str("collection", LotsCollection).Msg("Typesense collection already exists")
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, LotsSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", LotsCollection).Msg("created Typesense collection")
	return nil
}
