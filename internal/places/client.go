package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iknowaspot/backend/internal/cache"
	"github.com/iknowaspot/backend/internal/errors"
	"github.com/iknowaspot/backend/internal/logger"
	"github.com/iknowaspot/backend/internal/metrics"
	"go.uber.org/zap"
)

// Category is the search bucket passed to the places API
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryScenic     Category = "tourist_attraction"
)

const cacheTTL = 60 * time.Second

// Client queries the places-search HTTP API for nearby spots
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *cache.RedisClient
}

// NewClient creates a places search client. cache may be nil; responses are
// then fetched fresh on every call.
func NewClient(baseURL, apiKey string, redisCache *cache.RedisClient) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: redisCache,
	}
}

// searchResponse mirrors the collaborator's wire format
type searchResponse struct {
	Status  string     `json:"status"`
	Results []RawPlace `json:"results"`
}

// Search returns raw places near the given coordinate. A non-OK upstream
// status means "no results", not a failure; only transport-level problems
// surface as errors.
func (c *Client) Search(ctx context.Context, lat, lng float64, radiusMeters int, category Category) ([]RawPlace, error) {
	cacheKey := fmt.Sprintf("places:%.3f:%.3f:%d:%s", lat, lng, radiusMeters, category)

	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
			var results []RawPlace
			if err := json.Unmarshal([]byte(cached), &results); err == nil {
				metrics.Get().CacheHitsTotal.WithLabelValues("places").Inc()
				return results, nil
			}
		}
		metrics.Get().CacheMissesTotal.WithLabelValues("places").Inc()
	}

	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("radius", fmt.Sprintf("%d", radiusMeters))
	q.Set("type", string(category))
	q.Set("key", c.apiKey)

	endpoint := c.baseURL + "/nearbysearch/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.RemoteIO("places search").WithDetails(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.RemoteIO("places search").WithDetails(err.Error())
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.RemoteIO("places search").WithDetails("unparseable response")
	}

	if parsed.Status != "OK" {
		logger.Log.Debug("places search returned no results",
			zap.String("status", parsed.Status),
			zap.String("category", string(category)),
		)
		return []RawPlace{}, nil
	}

	if c.cache != nil {
		if data, err := json.Marshal(parsed.Results); err == nil {
			if err := c.cache.SetEx(ctx, cacheKey, data, cacheTTL); err != nil {
				logger.WarnWithFields("Failed to cache places response", err)
			}
		}
	}

	return parsed.Results, nil
}
