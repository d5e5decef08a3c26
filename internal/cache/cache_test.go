package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := New(20 * time.Millisecond)

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("Get = %q,%v,%v; want v,true,nil", got, ok, err)
	}

	time.Sleep(40 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestCache_BumpInvalidates(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	gen, _ := c.Generation(ctx, "public")
	if gen != 0 {
		t.Fatalf("initial generation = %d, want 0", gen)
	}

	_ = c.Set(ctx, "public:g0", []byte("stale"))

	next, err := c.Bump(ctx, "public")
	if err != nil {
		t.Fatalf("Bump error: %v", err)
	}
	if next != 1 {
		t.Fatalf("Bump = %d, want 1", next)
	}

	if _, ok, _ := c.Get(ctx, "public:g0"); ok {
		t.Fatalf("expected bump to drop cached entries")
	}
}
