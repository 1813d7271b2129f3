// Package vectorindex wraps the Qdrant vector database as the optional
// similarity-search backend the normalization cascade's similarity stage
// consults when resolving an entity mention against a collection of known
// canonical-name embeddings.
package vectorindex

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/opencite/litgraph/common"
)

// Hit is one scored nearest-neighbor result.
type Hit struct {
	Score   float32
	Payload map[string]string
}

// Client is the similarity-backend surface the normalization cascade
// depends on: approximate nearest-neighbor search over a named collection.
type Client interface {
	Search(ctx context.Context, collection string, vector []float32, limit int, withPayload bool) ([]Hit, error)
}

// QdrantClient is the Client implementation backed by Qdrant's gRPC API.
type QdrantClient struct {
	conn   *qdrant.Client
	logger *common.ContextLogger
}

// Config dials a Qdrant instance.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// NewQdrantClient dials cfg.Host:cfg.Port. Keepalive pings hold the
// gRPC channel open across the idle stretches between similarity
// lookups, which arrive in bursts during normalization runs.
func NewQdrantClient(cfg Config) (*QdrantClient, error) {
	conn, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                30 * time.Second,
				Timeout:             10 * time.Second,
				PermitWithoutStream: true,
			}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: dialing qdrant: %w", err)
	}
	return &QdrantClient{conn: conn, logger: common.ServiceLogger("vectorindex", "qdrant")}, nil
}

// Search runs a top-k nearest-neighbor query against collection.
func (c *QdrantClient) Search(ctx context.Context, collection string, vector []float32, limit int, withPayload bool) ([]Hit, error) {
	limitU := uint64(limit)
	resp, err := c.conn.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limitU,
		WithPayload:    qdrant.NewWithPayload(withPayload),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: query %q: %w", collection, err)
	}

	hits := make([]Hit, 0, len(resp))
	for _, point := range resp {
		hit := Hit{Score: point.GetScore()}
		if withPayload {
			hit.Payload = flattenPayload(point.GetPayload())
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases the underlying gRPC connection.
func (c *QdrantClient) Close() error {
	return c.conn.Close()
}

func flattenPayload(payload map[string]*qdrant.Value) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		if s := v.GetStringValue(); s != "" {
			out[k] = s
		}
	}
	return out
}
