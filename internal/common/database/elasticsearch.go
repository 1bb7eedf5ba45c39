// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"strings"

	"order-notifications/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// historyMapping keeps recipient and status as keywords so the mirror can be
// filtered exactly, and the rendered content as full text.
const historyMapping = `{
  "mappings": {
    "properties": {
      "id":        {"type": "keyword"},
      "channel":   {"type": "keyword"},
      "recipient": {"type": "keyword"},
      "subject":   {"type": "text"},
      "content":   {"type": "text"},
      "status":    {"type": "keyword"},
      "event":     {"type": "keyword"},
      "orderId":   {"type": "keyword"},
      "userId":    {"type": "keyword"},
      "error":     {"type": "text"},
      "timestamp": {"type": "date"}
    }
  }
}`

// ElasticsearchClient wraps the Elasticsearch client
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch creates a new Elasticsearch client
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

// Ping tests the Elasticsearch connection
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// EnsureHistoryIndex creates the history mirror index when it does not exist.
func (c *ElasticsearchClient) EnsureHistoryIndex(ctx context.Context, index string) error {
	exists, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}

	res, err := c.Client.Indices.Create(index,
		c.Client.Indices.Create.WithContext(ctx),
		c.Client.Indices.Create.WithBody(strings.NewReader(historyMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
