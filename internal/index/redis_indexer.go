package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/fhuszti/digimedia-ms-go/internal/port"
	"github.com/redis/go-redis/v9"
)

// Indexer keeps one JSON document per handle in redis and replaces it
// wholesale on every commit. Bulk calls go through a pipeline so each
// item reports its own outcome.
type Indexer struct {
	client *redis.Client
}

// compile-time check: *Indexer must satisfy port.Indexer
var _ port.Indexer = (*Indexer)(nil)

func NewIndexer(addr, password string) *Indexer {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &Indexer{client: rdb}
}

// NewIndexerWithClient wires an existing client, used by tests.
func NewIndexerWithClient(client *redis.Client) *Indexer {
	return &Indexer{client: client}
}

func (ix *Indexer) BulkUpsert(ctx context.Context, records []model.MediaRecord) ([]port.ItemResult, error) {
	if len(records) == 0 {
		return nil, nil
	}
	log.Printf("indexing %d media documents...", len(records))

	results := make([]port.ItemResult, len(records))
	cmds := make([]*redis.StatusCmd, len(records))

	pipe := ix.client.Pipeline()
	for i, rec := range records {
		results[i].ID = rec.ID
		data, err := json.Marshal(rec)
		if err != nil {
			results[i].Err = fmt.Errorf("marshal document: %w", err)
			continue
		}
		cmds[i] = pipe.Set(ctx, indexKey(rec.ID), data, 0)
	}

	execErr := execPipeline(ctx, pipe)
	for i := range records {
		if results[i].Err != nil || cmds[i] == nil {
			continue
		}
		if err := cmds[i].Err(); err != nil {
			results[i].Err = err
		}
	}
	if execErr != nil && allFailed(results) {
		return nil, fmt.Errorf("index bulk upsert failed: %w", execErr)
	}
	return results, nil
}

func (ix *Indexer) BulkDelete(ctx context.Context, ids []string) ([]port.ItemResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	log.Printf("removing %d media documents from the index...", len(ids))

	results := make([]port.ItemResult, len(ids))
	cmds := make([]*redis.IntCmd, len(ids))

	pipe := ix.client.Pipeline()
	for i, id := range ids {
		results[i].ID = id
		cmds[i] = pipe.Del(ctx, indexKey(id))
	}

	execErr := execPipeline(ctx, pipe)
	for i := range ids {
		if err := cmds[i].Err(); err != nil {
			results[i].Err = err
		}
	}
	if execErr != nil && allFailed(results) {
		return nil, fmt.Errorf("index bulk delete failed: %w", execErr)
	}
	return results, nil
}

func execPipeline(ctx context.Context, pipe redis.Pipeliner) error {
	// Exec surfaces the first command error too; per-item errors are read
	// off the commands themselves afterwards.
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return nil
}

func allFailed(results []port.ItemResult) bool {
	for _, r := range results {
		if r.Err == nil {
			return false
		}
	}
	return true
}

func indexKey(id string) string {
	return "index:media:" + id
}
