package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/emrgen/lexicon/internal/compress"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordEncoding(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	by := "m1"
	word := &model.Word{
		Entity: model.Entity{
			ID:               "w1",
			ValidationStatus: model.StatusValidated,
			ValidationDate:   &at,
			ValidatedBy:      &by,
			CreatedBy:        "u1",
			Version:          3,
			CreatedAt:        at,
			UpdatedAt:        at,
		},
		Term:          "Ngor",
		InitialLetter: "NG",
		Definition:    "honneur",
	}

	data, err := encodeWord(compress.NewGZip(), word)
	require.NoError(t, err)

	got, err := decodeWord(compress.NewGZip(), data)
	require.NoError(t, err)
	assert.Equal(t, word.Term, got.Term)
	assert.Equal(t, word.InitialLetter, got.InitialLetter)
	assert.Equal(t, word.Version, got.Version)
	assert.Equal(t, by, *got.ValidatedBy)
	assert.True(t, at.Equal(*got.ValidationDate))

	_, err = decodeWord(compress.NewGZip(), []byte("not gzip"))
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c WordCache = Nop{}

	require.NoError(t, c.SetWord(ctx, &model.Word{Term: "Aada"}))
	got, err := c.GetWord(ctx, "w1")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.ExpireWord(ctx, "w1", 2))
	assert.NoError(t, c.DeleteWords(ctx, "w1"))
	assert.Equal(t, "word:w1", wordKey("w1"))
}

// TestRedisWordCache_VersionFloor needs a disposable redis, selected with
// LEXICON_TEST_REDIS_ADDR.
func TestRedisWordCache_VersionFloor(t *testing.T) {
	addr := os.Getenv("LEXICON_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LEXICON_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	c := NewRedisWordCache(RedisOptions{Addr: addr, TTL: time.Minute})
	defer c.Close()
	require.NoError(t, c.Ping(ctx))

	id := "floor-" + time.Now().Format("150405.000000000")
	defer c.client.HDel(ctx, wordVersionHash, id)

	word := func(version int64, def string) *model.Word {
		return &model.Word{Entity: model.Entity{ID: id, Version: version}, Term: "Xaalis", Definition: def}
	}

	require.NoError(t, c.SetWord(ctx, word(1, "old")))
	got, err := c.GetWord(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.Version)

	// a reader that loaded version 1 before the commit of version 2 writes late
	require.NoError(t, c.ExpireWord(ctx, id, 2))
	require.NoError(t, c.SetWord(ctx, word(1, "old")))
	got, err = c.GetWord(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.SetWord(ctx, word(2, "new")))
	got, err = c.GetWord(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Definition)

	// the floor never moves backwards
	require.NoError(t, c.ExpireWord(ctx, id, 1))
	floor, err := c.client.HGet(ctx, wordVersionHash, id).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), floor)

	// a plain delete keeps the floor
	require.NoError(t, c.DeleteWords(ctx, id))
	require.NoError(t, c.SetWord(ctx, word(1, "old")))
	got, err = c.GetWord(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
