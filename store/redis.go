package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nacionrock/album-votes/poll"
)

const DefaultRedisKey = "album-votes:table"

// Redis keeps the album table as a list of JSON encoded entries under a
// single key.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(ctx context.Context, url, key string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL (%w)", err)
	}

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error connecting to redis (%w)", err)
	}

	if key == "" {
		key = DefaultRedisKey
	}

	return &Redis{
		client: c,
		key:    key,
	}, nil
}

func (r *Redis) Load(ctx context.Context) (poll.Table, error) {
	list, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return poll.Empty(), loadError("error reading table from redis", err)
	}

	rows := [][]any{
		{poll.ARTIST, poll.ALBUM, poll.COVER, poll.VOTES},
	}

	for i, v := range list {
		var entry map[string]any
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			return poll.Empty(), loadError(fmt.Sprintf("invalid entry %v", i), err)
		}

		rows = append(rows, []any{entry[poll.ARTIST], entry[poll.ALBUM], entry[poll.COVER], entry[poll.VOTES]})
	}

	table, err := poll.MakeTable(rows)
	if err != nil {
		return poll.Empty(), loadError("error creating table", err)
	}

	return table, nil
}

// Save replaces the list in a MULTI/EXEC transaction.
func (r *Redis) Save(ctx context.Context, table poll.Table) error {
	values := make([]any, 0, table.Len())
	for _, e := range table.Entries {
		b, err := json.Marshal(e)
		if err != nil {
			return saveError("error encoding entry", err)
		}

		values = append(values, string(b))
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key)
	if len(values) > 0 {
		pipe.RPush(ctx, r.key, values...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return saveError("error executing redis transaction", err)
	}

	return nil
}

func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("error closing redis client (%w)", err)
	}

	return nil
}

func (r *Redis) String() string {
	return fmt.Sprintf("redis:%s", r.key)
}
