package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tutor-platform/internal/config"
)

type testStruct struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	store, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestSetAndGet(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	expected := testStruct{Name: "Alice", Age: 30}
	require.NoError(t, store.Set(ctx, "nst_content/key_1", expected))

	raw, found, err := store.Get(ctx, "nst_content/key_1")
	require.NoError(t, err)
	require.True(t, found)

	var actual testStruct
	require.NoError(t, json.Unmarshal(raw, &actual))
	assert.Equal(t, expected, actual)
}

func TestSetRawBytes(t *testing.T) {
	store, mr := setupTestStore(t)

	require.NoError(t, store.Set(context.Background(), "raw", []byte(`{"a":1}`)))
	got, err := mr.Get("raw")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got)
}

func TestGetNotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	raw, found, err := store.Get(context.Background(), "no_such_key")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, raw)
}

func TestDelete(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key", "value"))
	require.NoError(t, store.Delete(ctx, "key"))

	_, found, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetMarshalError(t *testing.T) {
	store, _ := setupTestStore(t)

	err := store.Set(context.Background(), "bad", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "realtime.Set")
}

func TestSubscribe_ReceivesChanges(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan []byte, 1)
	require.NoError(t, store.Subscribe(ctx, "nst_system_settings", func(b []byte) {
		received <- b
	}))

	require.NoError(t, store.Set(context.Background(), "nst_system_settings", map[string]any{"appName": "NST"}))

	select {
	case b := <-received:
		assert.JSONEq(t, `{"appName":"NST"}`, string(b))
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for change notification")
	}
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  200 * time.Millisecond,
	}

	store, err := InitServer(context.Background(), cfg)
	assert.Nil(t, store)
	assert.Error(t, err)
}
