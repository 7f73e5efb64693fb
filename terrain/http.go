package terrain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/coverage-planner/core"
	"github.com/signalsfoundry/coverage-planner/internal/logging"
	"github.com/signalsfoundry/coverage-planner/model"
)

const (
	// DefaultBatchSize is the number of locations sent per lookup request.
	DefaultBatchSize = 200
	// DefaultConcurrency bounds in-flight lookup requests.
	DefaultConcurrency = 4
	// DefaultHTTPTimeout bounds a single lookup request.
	DefaultHTTPTimeout = 10 * time.Second

	lookupPath = "/api/v1/lookup"
)

type lookupLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupRequest struct {
	Locations []lookupLocation `json:"locations"`
}

type lookupResult struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

type lookupResponse struct {
	Results []lookupResult `json:"results"`
}

// HTTPProvider queries an Open-Elevation compatible lookup service.
type HTTPProvider struct {
	baseURL     string
	client      *http.Client
	batchSize   int
	concurrency int
	log         logging.Logger
}

var _ core.TerrainProvider = (*HTTPProvider)(nil)

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// WithBatchSize sets the number of locations per request.
func WithBatchSize(n int) HTTPOption {
	return func(p *HTTPProvider) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithConcurrency bounds the number of requests in flight.
func WithConcurrency(n int) HTTPOption {
	return func(p *HTTPProvider) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithHTTPLogger sets the logger used for per-batch debug output.
func WithHTTPLogger(l logging.Logger) HTTPOption {
	return func(p *HTTPProvider) {
		if l != nil {
			p.log = l
		}
	}
}

// NewHTTPProvider returns a provider for the service at baseURL.
func NewHTTPProvider(baseURL string, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   DefaultHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		log:         logging.Noop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SampleTerrain implements core.TerrainProvider. Points are split into
// batches that are looked up concurrently; any failed batch fails the call.
func (p *HTTPProvider) SampleTerrain(ctx context.Context, points []model.GeoPoint) ([]float64, error) {
	out := make([]float64, len(points))
	if len(points) == 0 {
		return out, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.concurrency)
	for lo := 0; lo < len(points); lo += p.batchSize {
		hi := min(lo+p.batchSize, len(points))
		eg.Go(func() error {
			heights, err := p.lookup(ctx, points[lo:hi])
			if err != nil {
				return fmt.Errorf("terrain lookup [%d:%d]: %w", lo, hi, err)
			}
			copy(out[lo:hi], heights)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *HTTPProvider) lookup(ctx context.Context, points []model.GeoPoint) ([]float64, error) {
	req := lookupRequest{Locations: make([]lookupLocation, len(points))}
	for i, pt := range points {
		req.Locations[i] = lookupLocation{Latitude: pt.LatitudeDegrees(), Longitude: pt.LongitudeDegrees()}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+lookupPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Results) != len(points) {
		return nil, fmt.Errorf("%w: got %d results for %d locations", core.ErrTerrainMismatch, len(decoded.Results), len(points))
	}

	heights := make([]float64, len(points))
	for i, r := range decoded.Results {
		if r.Elevation == nil {
			heights[i] = math.NaN()
			continue
		}
		heights[i] = *r.Elevation
	}

	p.log.Debug(ctx, "terrain batch resolved",
		logging.Int("locations", len(points)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return heights, nil
}
