package cache

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emrgen/lexicon/internal/compress"
	"github.com/emrgen/lexicon/internal/model"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// wordVersionHash maps a word id to the highest version committed for it.
const wordVersionHash = "word:version"

// setWordScript stores a word read from the database unless a newer version
// was committed while it was being read.
var setWordScript = redis.NewScript(`
local floor = tonumber(redis.call('HGET', KEYS[2], ARGV[1]) or '0')
if tonumber(ARGV[2]) < floor then
	return 0
end
redis.call('SET', KEYS[1], ARGV[3], 'PX', ARGV[4])
return 1
`)

// expireWordScript raises the version floor of a word and drops its entry.
var expireWordScript = redis.NewScript(`
local floor = tonumber(redis.call('HGET', KEYS[2], ARGV[1]) or '0')
if tonumber(ARGV[2]) > floor then
	redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
end
redis.call('DEL', KEYS[1])
return 1
`)

func wordKey(id string) string {
	return "word:" + id
}

var _ WordCache = (*RedisWordCache)(nil)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type RedisWordCache struct {
	client  *redis.Client
	encoder compress.Compress
	ttl     time.Duration
}

func NewRedisWordCache(opts RedisOptions) *RedisWordCache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		Protocol: 2,
	})

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &RedisWordCache{client: client, encoder: compress.NewGZipLevel(gzip.BestSpeed), ttl: ttl}
}

// Ping checks the connection, used at startup.
func (r *RedisWordCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisWordCache) Close() error {
	return r.client.Close()
}

func (r *RedisWordCache) GetWord(ctx context.Context, id string) (*model.Word, error) {
	res := r.client.Get(ctx, wordKey(id))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, nil
		}
		return nil, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, err
	}

	word, err := decodeWord(r.encoder, buf)
	if err != nil {
		// a corrupt entry is treated as a miss and dropped
		logrus.Warnf("cache: dropping unreadable word %s: %v", id, err)
		_ = r.client.Del(ctx, wordKey(id)).Err()
		return nil, nil
	}

	return word, nil
}

func (r *RedisWordCache) SetWord(ctx context.Context, word *model.Word) error {
	data, err := encodeWord(r.encoder, word)
	if err != nil {
		return err
	}

	keys := []string{wordKey(word.ID), wordVersionHash}
	stored, err := setWordScript.Run(ctx, r.client, keys, word.ID, word.Version, data, r.ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if stored == 0 {
		logrus.Debugf("cache: skipped stale word %s at version %d", word.ID, word.Version)
	}

	return nil
}

func (r *RedisWordCache) ExpireWord(ctx context.Context, id string, version int64) error {
	keys := []string{wordKey(id), wordVersionHash}
	return expireWordScript.Run(ctx, r.client, keys, id, version).Err()
}

// DeleteWords drops entries without touching their version floors.
func (r *RedisWordCache) DeleteWords(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = wordKey(id)
	}

	return r.client.Del(ctx, keys...).Err()
}

func encodeWord(encoder compress.Compress, word *model.Word) ([]byte, error) {
	marshal, err := json.Marshal(word)
	if err != nil {
		return nil, err
	}

	return encoder.Encode(marshal)
}

func decodeWord(encoder compress.Compress, data []byte) (*model.Word, error) {
	buf, err := encoder.Decode(data)
	if err != nil {
		return nil, err
	}

	word := &model.Word{}
	if err = json.Unmarshal(buf, word); err != nil {
		return nil, err
	}

	return word, nil
}
