package counter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

const ingestCountersKey = "qbsync:counters:ingest"

// Counter keeps running ingestion totals in a Redis hash, one field per
// entity and measure (e.g. "Bill:records", "Customer:failures").
type Counter struct {
	client *redis.Client
	key    string
}

// New returns a counter on client.
func New(client *redis.Client) *Counter {
	return &Counter{client: client, key: ingestCountersKey}
}

func field(entity quickbooks.Entity, measure string) string {
	return fmt.Sprintf("%s:%s", entity, measure)
}

// RecordPage adds one written page of records for entity.
func (c *Counter) RecordPage(ctx context.Context, entity quickbooks.Entity, records int) error {
	pipe := c.client.TxPipeline()
	pipe.HIncrBy(ctx, c.key, field(entity, "pages"), 1)
	pipe.HIncrBy(ctx, c.key, field(entity, "records"), int64(records))
	_, err := pipe.Exec(ctx)
	return err
}

// RecordFailure counts a failed fetch or write for entity.
func (c *Counter) RecordFailure(ctx context.Context, entity quickbooks.Entity) error {
	return c.client.HIncrBy(ctx, c.key, field(entity, "failures"), 1).Err()
}

// Snapshot returns all counters. Unparseable values are skipped.
func (c *Counter) Snapshot(ctx context.Context) (map[string]int64, error) {
	data, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(data))
	for k, v := range data {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}

// Reset drops all counters.
func (c *Counter) Reset(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
