package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedModule struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "module:"), mr
}

func TestCacheHelper_SetAndGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	want := cachedModule{ID: 7, Title: "Phishing Basics"}
	if err := helper.Set(ctx, "id:7", want, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got cachedModule
	if err := helper.Get(ctx, "id:7", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestCacheHelper_GetMissingKey(t *testing.T) {
	helper, _ := newTestHelper(t)

	var got cachedModule
	err := helper.Get(context.Background(), "id:404", &got)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Get() error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_KeysArePrefixed(t *testing.T) {
	helper, mr := newTestHelper(t)

	if err := helper.Set(context.Background(), "id:7", cachedModule{ID: 7}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !mr.Exists("module:id:7") {
		t.Errorf("expected stored key %q, have keys %v", "module:id:7", mr.Keys())
	}
}

func TestCacheHelper_Expiration(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "id:7", cachedModule{ID: 7}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	mr.FastForward(2 * time.Minute)

	var got cachedModule
	if err := helper.Get(ctx, "id:7", &got); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	for _, key := range []string{"id:1", "id:2", "id:3"} {
		if err := helper.Set(ctx, key, cachedModule{}, time.Minute); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	if err := helper.Delete(ctx, "id:1", "id:2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	for key, want := range map[string]bool{"id:1": false, "id:2": false, "id:3": true} {
		exists, err := helper.Exists(ctx, key)
		if err != nil {
			t.Fatalf("Exists(%s) error = %v", key, err)
		}
		if exists != want {
			t.Errorf("Exists(%s) = %v, want %v", key, exists, want)
		}
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "user:1:list", cachedModule{}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := helper.Set(ctx, "user:1:detail", cachedModule{}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := helper.Set(ctx, "user:2:list", cachedModule{}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := helper.InvalidatePattern(ctx, "user:1:*"); err != nil {
		t.Fatalf("InvalidatePattern() error = %v", err)
	}

	if exists, _ := helper.Exists(ctx, "user:1:list"); exists {
		t.Error("user:1:list should have been invalidated")
	}
	if exists, _ := helper.Exists(ctx, "user:1:detail"); exists {
		t.Error("user:1:detail should have been invalidated")
	}
	if exists, _ := helper.Exists(ctx, "user:2:list"); !exists {
		t.Error("user:2:list should have survived invalidation")
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedModule{ID: 9, Title: "Password Hygiene"}, nil
	}

	var first cachedModule
	if err := helper.CacheOrExecute(ctx, "id:9", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	if first.Title != "Password Hygiene" {
		t.Errorf("first fetch = %+v", first)
	}

	var second cachedModule
	if err := helper.CacheOrExecute(ctx, "id:9", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() second call error = %v", err)
	}
	if second != first {
		t.Errorf("cached value = %+v, want %+v", second, first)
	}
	if calls != 1 {
		t.Errorf("fetchFunc called %d times, want 1", calls)
	}
}

func TestCacheHelper_CacheOrExecute_FetchError(t *testing.T) {
	helper, _ := newTestHelper(t)

	wantErr := errors.New("db offline")
	var dest cachedModule
	err := helper.CacheOrExecute(context.Background(), "id:9", &dest, time.Minute, func() (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("CacheOrExecute() error = %v, want %v", err, wantErr)
	}
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "module:")
	ctx := context.Background()

	if err := helper.Set(ctx, "id:1", cachedModule{}, time.Minute); err != nil {
		t.Errorf("Set() with nil client error = %v, want nil", err)
	}
	if err := helper.Delete(ctx, "id:1"); err != nil {
		t.Errorf("Delete() with nil client error = %v, want nil", err)
	}

	var dest cachedModule
	if err := helper.Get(ctx, "id:1", &dest); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() with nil client error = %v, want ErrCacheNotAvailable", err)
	}

	// The fetch path must still run without a cache behind it.
	calls := 0
	if err := helper.CacheOrExecute(ctx, "id:1", &dest, time.Minute, func() (interface{}, error) {
		calls++
		return cachedModule{ID: 1}, nil
	}); err != nil {
		t.Fatalf("CacheOrExecute() with nil client error = %v", err)
	}
	if calls != 1 || dest.ID != 1 {
		t.Errorf("fetch fallback: calls = %d, dest = %+v", calls, dest)
	}
}

func TestInvalidateAssessmentCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cm := NewCacheManager(client)
	ctx := context.Background()

	// Populate exactly the entries the assessment read paths create.
	if err := cm.Assessment.Set(ctx, "id:3", cachedModule{ID: 3}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cm.Assessment.Set(ctx, "module-active:7", cachedModule{ID: 3}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cm.Assessment.Set(ctx, "module-active:8", cachedModule{ID: 9}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cm.Stats.Set(ctx, "assessment:3:pass-rate", 0.5, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	InvalidateAssessmentCache(ctx, cm, 3, 7)

	for _, key := range []string{"assessment:id:3", "assessment:module-active:7", "stats:assessment:3:pass-rate"} {
		if mr.Exists(key) {
			t.Errorf("key %q should have been invalidated", key)
		}
	}
	if !mr.Exists("assessment:module-active:8") {
		t.Error("another module's active-assessment entry should survive")
	}
}

func TestInvalidateQuestionPoolCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cm := NewCacheManager(client)
	ctx := context.Background()

	if err := cm.Assessment.Set(ctx, "id:3", cachedModule{ID: 3}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	// Question rows don't know their module, so every module-active entry
	// has to go.
	if err := cm.Assessment.Set(ctx, "module-active:7", cachedModule{ID: 3}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cm.Assessment.Set(ctx, "module-active:8", cachedModule{ID: 9}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cm.Assessment.Set(ctx, "id:9", cachedModule{ID: 9}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	InvalidateQuestionPoolCache(ctx, cm, 3)

	for _, key := range []string{"assessment:id:3", "assessment:module-active:7", "assessment:module-active:8"} {
		if mr.Exists(key) {
			t.Errorf("key %q should have been invalidated", key)
		}
	}
	if !mr.Exists("assessment:id:9") {
		t.Error("other assessments' by-ID entries should survive a question mutation")
	}
}

func TestCacheManager_ClearAll(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cm := NewCacheManager(client)
	ctx := context.Background()

	if err := cm.Assessment.Set(ctx, "id:1", cachedModule{}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cm.Progress.Set(ctx, "user:1:module:2", cachedModule{}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := cm.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("keys after ClearAll = %v, want none", keys)
	}
}
