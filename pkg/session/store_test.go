package session

import (
	"sync"
	"testing"
	"time"
)

// fakeClock advances manually so expiry tests never sleep.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s := NewStore(ttl, WithClock(clock.Now), WithCleanupInterval(time.Hour))
	t.Cleanup(s.Close)
	return s, clock
}

func TestStore_CreateThenGet(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)

	sess, err := s.Create()
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(sess.ID) != IDLength {
		t.Errorf("ID length = %d, want %d", len(sess.ID), IDLength)
	}

	got, ok := s.Get(sess.ID)
	if !ok {
		t.Fatal("Get returned not found immediately after Create")
	}
	if got.ID != sess.ID {
		t.Errorf("Get ID = %q, want %q", got.ID, sess.ID)
	}
}

func TestStore_UniqueIDs(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess, err := s.Create()
		if err != nil {
			t.Fatalf("Create error: %v", err)
		}
		if seen[sess.ID] {
			t.Fatalf("duplicate session ID %q", sess.ID)
		}
		seen[sess.ID] = true
	}
}

func TestStore_Values(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)

	sess, err := s.Create()
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	sess.SetValue("user", "ada")
	if v, ok := sess.Value("user"); !ok || v != "ada" {
		t.Errorf("Value(user) = %q, %v; want %q, true", v, ok, "ada")
	}
	sess.DeleteValue("user")
	if _, ok := sess.Value("user"); ok {
		t.Error("Value(user) present after DeleteValue")
	}
}

func TestStore_ExpiryIsLazy(t *testing.T) {
	s, clock := newTestStore(t, time.Minute)

	sess, err := s.Create()
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	clock.Advance(59 * time.Second)
	if _, ok := s.Get(sess.ID); !ok {
		t.Fatal("session expired before TTL elapsed")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := s.Get(sess.ID); ok {
		t.Fatal("session still live after TTL elapsed without touch")
	}
	// The expired entry is removed by the failed Get.
	if n := s.Len(); n != 0 {
		t.Errorf("Len = %d after lazy removal, want 0", n)
	}
}

func TestStore_TouchExtendsLifetime(t *testing.T) {
	s, clock := newTestStore(t, time.Minute)

	sess, err := s.Create()
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	clock.Advance(45 * time.Second)
	s.Touch(sess.ID)
	clock.Advance(45 * time.Second)

	if _, ok := s.Get(sess.ID); !ok {
		t.Fatal("touched session expired before its extended TTL")
	}
}

func TestStore_Destroy(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)

	sess, err := s.Create()
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	s.Destroy(sess.ID)
	if _, ok := s.Get(sess.ID); ok {
		t.Fatal("Get found destroyed session")
	}
	s.Destroy(sess.ID) // no-op
}

func TestStore_SweepRemovesExpired(t *testing.T) {
	s, clock := newTestStore(t, time.Minute)

	if _, err := s.Create(); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	clock.Advance(2 * time.Minute)
	s.sweep()
	if n := s.Len(); n != 0 {
		t.Errorf("Len = %d after sweep, want 0", n)
	}
}

func TestStore_ConcurrentOperations(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sess, err := s.Create()
				if err != nil {
					t.Errorf("Create error: %v", err)
					return
				}
				sess.SetValue("n", "1")
				s.Touch(sess.ID)
				if _, ok := s.Get(sess.ID); !ok {
					t.Error("Get lost a live session")
					return
				}
				s.Destroy(sess.ID)
			}
		}()
	}
	wg.Wait()

	if n := s.Len(); n != 0 {
		t.Errorf("Len = %d after all sessions destroyed, want 0", n)
	}
}
