package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mockRedisStatusCmd struct{ err error }

func (c mockRedisStatusCmd) Err() error { return c.err }

type mockRedisStringCmd struct {
	data []byte
	err  error
}

func (c mockRedisStringCmd) Bytes() ([]byte, error) { return c.data, c.err }
func (c mockRedisStringCmd) Err() error             { return c.err }

type mockRedisIntCmd struct{ err error }

func (c mockRedisIntCmd) Err() error { return c.err }

type mockRedisBoolCmd struct{ err error }

func (c mockRedisBoolCmd) Err() error { return c.err }

type mockRedisClient struct {
	mu sync.Mutex

	sets    []mockRedisSetCall
	gets    []string
	dels    [][]string
	expires []mockRedisExpireCall

	getResp map[string]mockRedisStringCmd
}

type mockRedisSetCall struct {
	key        string
	value      interface{}
	expiration time.Duration
}

type mockRedisExpireCall struct {
	key        string
	expiration time.Duration
}

func (c *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) RedisStatusCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets = append(c.sets, mockRedisSetCall{key: key, value: value, expiration: expiration})
	return mockRedisStatusCmd{}
}

func (c *mockRedisClient) Get(ctx context.Context, key string) RedisStringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets = append(c.gets, key)
	if resp, ok := c.getResp[key]; ok {
		return resp
	}
	return mockRedisStringCmd{err: ErrRedisNil}
}

func (c *mockRedisClient) Del(ctx context.Context, keys ...string) RedisIntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels = append(c.dels, keys)
	return mockRedisIntCmd{}
}

func (c *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) RedisBoolCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires = append(c.expires, mockRedisExpireCall{key: key, expiration: expiration})
	return mockRedisBoolCmd{}
}

func TestRedisStore_Keying(t *testing.T) {
	store := NewRedisStore(&mockRedisClient{}, WithRedisPrefix("pfx:"))
	if got := store.key("abc"); got != "pfx:abc" {
		t.Fatalf("key() got %q", got)
	}
	if got := NewRedisStore(&mockRedisClient{}).key("abc"); got != "themes:session:abc" {
		t.Fatalf("default key() got %q", got)
	}
}

func TestRedisStore_SaveUsesTTL(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStore(client)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Save(context.Background(), "s1", []byte("x"), now.Add(time.Hour)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.sets) != 1 {
		t.Fatalf("Set calls got %d want 1", len(client.sets))
	}
	if client.sets[0].key != "themes:session:s1" || client.sets[0].expiration != time.Hour {
		t.Fatalf("Set got %+v", client.sets[0])
	}
}

func TestRedisStore_Save_ExpiredDeletes(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStore(client)

	if err := store.Save(context.Background(), "s1", []byte("x"), time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.dels) != 1 || client.dels[0][0] != "themes:session:s1" {
		t.Fatalf("Del calls got %v", client.dels)
	}
	if len(client.sets) != 0 {
		t.Fatalf("Set calls got %d want 0", len(client.sets))
	}
}

func TestRedisStore_Load(t *testing.T) {
	client := &mockRedisClient{
		getResp: map[string]mockRedisStringCmd{
			"themes:session:hit":  {data: []byte(`{"theme":"dark"}`)},
			"themes:session:nil":  {err: errors.New("redis: nil")},
			"themes:session:boom": {err: errors.New("connection refused")},
		},
	}
	store := NewRedisStore(client)
	ctx := context.Background()

	data, err := store.Load(ctx, "hit")
	if err != nil || string(data) != `{"theme":"dark"}` {
		t.Fatalf("Load(hit) = %q, %v", data, err)
	}
	if data, err := store.Load(ctx, "nil"); err != nil || data != nil {
		t.Fatalf("Load(nil) = %v, %v; want nil, nil", data, err)
	}
	if data, err := store.Load(ctx, "unknown"); err != nil || data != nil {
		t.Fatalf("Load(unknown) = %v, %v; want nil, nil", data, err)
	}
	if _, err := store.Load(ctx, "boom"); err == nil {
		t.Fatal("Load(boom) expected error")
	}
}

func TestRedisStore_Touch(t *testing.T) {
	client := &mockRedisClient{}
	store := NewRedisStore(client)
	ctx := context.Background()

	if err := store.Touch(ctx, "s1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Touch() error: %v", err)
	}
	if err := store.Touch(ctx, "s2", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Touch() error: %v", err)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.expires) != 1 || client.expires[0].key != "themes:session:s1" {
		t.Fatalf("Expire calls got %v", client.expires)
	}
	if len(client.dels) != 1 || client.dels[0][0] != "themes:session:s2" {
		t.Fatalf("Del calls got %v", client.dels)
	}
}

func TestRedisStore_Close_MakesOperationsFail(t *testing.T) {
	store := NewRedisStore(&mockRedisClient{})
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	ctx := context.Background()
	if err := store.Save(ctx, "s", []byte("x"), time.Now().Add(time.Minute)); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("Save() after Close = %v", err)
	}
	if _, err := store.Load(ctx, "s"); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("Load() after Close = %v", err)
	}
	if err := store.Delete(ctx, "s"); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("Delete() after Close = %v", err)
	}
	if err := store.Touch(ctx, "s", time.Now().Add(time.Minute)); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("Touch() after Close = %v", err)
	}
}
