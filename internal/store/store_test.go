package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/patternlab/internal/config"
	"github.com/yungbote/patternlab/internal/platform/logger"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{"memory": NewMemory()}

	sq, err := NewSQLite(filepath.Join(t.TempDir(), "local.db"), logger.Nop())
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	out["sqlite"] = sq

	if addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR")); addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rs, err := NewRedis(ctx, RedisOptions{Addr: addr, Prefix: "patternlab-test:" + uuid.NewString() + ":"}, logger.Nop())
		if err != nil {
			t.Fatalf("NewRedis: %v", err)
		}
		out["redis"] = rs
	}
	for _, s := range out {
		s := s
		t.Cleanup(func() { _ = s.Close() })
	}
	return out
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, KeyToken); err != nil || ok {
				t.Fatalf("empty get: ok=%v err=%v", ok, err)
			}
			if err := s.Set(ctx, KeyToken, "t1"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := s.Set(ctx, KeyToken, "t2"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, ok, err := s.Get(ctx, KeyToken)
			if err != nil || !ok || got != "t2" {
				t.Fatalf("want=t2 got=%q ok=%v err=%v", got, ok, err)
			}
			_ = s.Set(ctx, KeyUser, "a@b.c")
			_ = s.Set(ctx, KeyPracticeDraft, "{}")
			if err := s.Remove(ctx, SessionKeys...); err != nil {
				t.Fatalf("remove: %v", err)
			}
			for _, k := range SessionKeys {
				if _, ok, _ := s.Get(ctx, k); ok {
					t.Fatalf("key %s survived remove", k)
				}
			}
			if err := s.Remove(ctx); err != nil {
				t.Fatalf("empty remove: %v", err)
			}
		})
	}
}

func TestStoreConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if err := s.Set(ctx, KeyPracticeDraft, fmt.Sprintf("v%d", i)); err != nil {
						t.Errorf("set: %v", err)
					}
				}(i)
			}
			wg.Wait()
			got, ok, err := s.Get(ctx, KeyPracticeDraft)
			if err != nil || !ok || !strings.HasPrefix(got, "v") {
				t.Fatalf("last write lost: %q ok=%v err=%v", got, ok, err)
			}
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.db")
	s, err := NewSQLite(path, logger.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, KeyUser, "dev@example.test"); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = s.Close()

	again, err := NewSQLite(path, logger.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	got, ok, err := again.Get(ctx, KeyUser)
	if err != nil || !ok || got != "dev@example.test" {
		t.Fatalf("want persisted user got=%q ok=%v err=%v", got, ok, err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.StorageConfig{Driver: "etcd"}, logger.Nop()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	_ = m.Close()
	if err := m.Set(context.Background(), KeyToken, "x"); err != ErrClosed {
		t.Fatalf("want ErrClosed got %v", err)
	}
}
