package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/phanxgames/canopy"
)

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key. Defaults to "canopy".
	Prefix string
}

// Redis keeps each board in two keys: a hash of id to block JSON and a list
// holding z-order. A set tracks board names.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to redis and verifies the connection with PING.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.Prefix == "" {
		opts.Prefix = "canopy"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("persist: redis ping %s: %w", opts.Addr, err)
	}
	return &Redis{client: client, prefix: opts.Prefix}, nil
}

func (r *Redis) blocksKey(board string) string { return r.prefix + ":" + board + ":blocks" }
func (r *Redis) orderKey(board string) string  { return r.prefix + ":" + board + ":order" }
func (r *Redis) boardsKey() string             { return r.prefix + ":boards" }

func (r *Redis) Load(ctx context.Context, board string) ([]canopy.Block, error) {
	if err := ValidateBoard(board); err != nil {
		return nil, err
	}
	known, err := r.client.SIsMember(ctx, r.boardsKey(), board).Result()
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, ErrNotFound
	}

	raw, err := r.client.HGetAll(ctx, r.blocksKey(board)).Result()
	if err != nil {
		return nil, err
	}
	ids, err := r.client.LRange(ctx, r.orderKey(board), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	blocks := make(map[canopy.BlockID]canopy.Block, len(raw))
	for id, data := range raw {
		var b canopy.Block
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			return nil, fmt.Errorf("persist: decode block %s: %w", id, err)
		}
		blocks[b.ID] = b
	}
	order := make([]canopy.BlockID, len(ids))
	for i, id := range ids {
		order[i] = canopy.BlockID(id)
	}
	return arrange(blocks, order), nil
}

func (r *Redis) Put(ctx context.Context, board string, b canopy.Block) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, r.boardsKey(), board)
		pipe.HSet(ctx, r.blocksKey(board), string(b.ID), data)
		return nil
	})
	return err
}

func (r *Redis) Delete(ctx context.Context, board string, ids ...canopy.BlockID) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = string(id)
	}
	return r.client.HDel(ctx, r.blocksKey(board), fields...).Err()
}

func (r *Redis) SaveOrder(ctx context.Context, board string, order []canopy.BlockID) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	values := make([]any, len(order))
	for i, id := range order {
		values[i] = string(id)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, r.boardsKey(), board)
		pipe.Del(ctx, r.orderKey(board))
		if len(values) > 0 {
			pipe.RPush(ctx, r.orderKey(board), values...)
		}
		return nil
	})
	return err
}

func (r *Redis) Boards(ctx context.Context) ([]string, error) {
	names, err := r.client.SMembers(ctx, r.boardsKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Drop deletes every key belonging to board.
func (r *Redis) Drop(ctx context.Context, board string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.blocksKey(board), r.orderKey(board))
		pipe.SRem(ctx, r.boardsKey(), board)
		return nil
	})
	return err
}

func (r *Redis) Close() error { return r.client.Close() }
