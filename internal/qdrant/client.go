package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strconv"
	"strings"

	"signvec/internal/models"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultHost     = "localhost"
	defaultGRPCPort = 6334
	restPort        = 6333
)

// Client owns the single gRPC connection used for a run.
type Client struct {
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	grpcConn    *grpc.ClientConn
}

// Endpoint is the gRPC address derived from a configured store URL.
type Endpoint struct {
	Host   string
	Port   int
	UseTLS bool
}

// NewClient connects to the store at url. A blank apiKey is left out of the
// connection entirely.
func NewClient(url, apiKey string) (*Client, error) {
	ep, err := ParseEndpoint(url)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url %q: %w", url, err)
	}

	grpcClient, err := qdrant.NewGrpcClient(clientConfig(ep, apiKey))
	if err != nil {
		return nil, err
	}

	return &Client{
		points:      grpcClient.Points(),
		collections: grpcClient.Collections(),
		grpcConn:    grpcClient.Conn(),
	}, nil
}

// clientConfig builds the go-client settings for ep. The server version
// check is skipped so that creating a client sends nothing to the store.
func clientConfig(ep Endpoint, apiKey string) *qdrant.Config {
	cfg := &qdrant.Config{
		Host:                   ep.Host,
		Port:                   ep.Port,
		UseTLS:                 ep.UseTLS,
		SkipCompatibilityCheck: true,
	}
	if apiKey = strings.TrimSpace(apiKey); apiKey != "" {
		cfg.APIKey = apiKey
	}
	return cfg
}

// ParseEndpoint maps a REST-style URL onto the gRPC endpoint of the same
// server. The REST port and a missing port both map to the gRPC port; https
// enables TLS.
func ParseEndpoint(raw string) (Endpoint, error) {
	ep := Endpoint{Host: defaultHost, Port: defaultGRPCPort}

	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return ep, nil
	}

	if strings.Contains(endpoint, "://") {
		parsed, err := neturl.Parse(endpoint)
		if err != nil {
			return Endpoint{}, err
		}
		ep.UseTLS = strings.EqualFold(parsed.Scheme, "https")
		if parsed.Host == "" {
			return ep, nil
		}
		endpoint = parsed.Host
	}

	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) && strings.Contains(addrErr.Err, "missing port") {
			ep.Host = endpoint
			return ep, nil
		}
		return Endpoint{}, err
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Endpoint{}, err
	}
	if port == restPort {
		port = defaultGRPCPort
	}
	if host != "" {
		ep.Host = host
	}
	ep.Port = port
	return ep, nil
}

func (c *Client) Close() error {
	return c.grpcConn.Close()
}

// DeleteCollection removes the entire collection and all its points. The
// store answers a missing collection with deleted == false, not an error.
func (c *Client) DeleteCollection(ctx context.Context, name string) (deleted bool, err error) {
	resp, err := c.collections.Delete(ctx, &qdrant.DeleteCollection{
		CollectionName: name,
	})
	if err != nil {
		return false, err
	}
	return resp.GetResult(), nil
}

// CreateCollection creates a collection of cosine vectors of the given size.
func (c *Client) CreateCollection(ctx context.Context, name string, vectorSize uint64) error {
	_, err := c.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     vectorSize,
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	return err
}

// Upsert writes points and waits until the store has applied them.
func (c *Client) Upsert(ctx context.Context, collectionName string, points []models.Point) error {
	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		structs = append(structs, ToPointStruct(p))
	}

	wait := true
	_, err := c.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         structs,
		Wait:           &wait,
	})
	return err
}

// CollectionExists reports whether name exists. NotFound is not an error.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, err := c.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: name,
	})
	if err == nil {
		return true, nil
	}
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	return false, err
}

// Describe returns the size, distance and point count of a collection.
func (c *Client) Describe(ctx context.Context, name string) (*models.CollectionSummary, error) {
	resp, err := c.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: name,
	})
	if err != nil {
		return nil, err
	}

	info := resp.GetResult()
	summary := &models.CollectionSummary{
		Name:        name,
		Status:      info.GetStatus().String(),
		PointsCount: info.GetPointsCount(),
	}
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		summary.VectorSize = params.GetSize()
		summary.Distance = params.GetDistance().String()
	}
	return summary, nil
}

// Count returns the exact number of points stored in a collection.
func (c *Client) Count(ctx context.Context, name string) (uint64, error) {
	exact := true
	resp, err := c.points.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          &exact,
	})
	if err != nil {
		return 0, err
	}
	return resp.GetResult().GetCount(), nil
}

// Scroll pages through the points of a collection with their payloads.
func (c *Client) Scroll(ctx context.Context, collectionName string, limit uint32, offset *qdrant.PointId) ([]*qdrant.RetrievedPoint, *qdrant.PointId, error) {
	resp, err := c.points.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: collectionName,
		Limit:          &limit,
		Offset:         offset,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, nil, err
	}
	return resp.Result, resp.NextPageOffset, nil
}
