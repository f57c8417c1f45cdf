package reconcile

import (
	"testing"
	"time"
)

func TestKeyedLocksSerializeSameKey(t *testing.T) {
	k := newKeyedLocks()
	release := k.acquire("org-1")

	acquired := make(chan struct{})
	go func() {
		r := k.acquire("org-1")
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while the key was held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded after release")
	}
}

func TestKeyedLocksIndependentKeys(t *testing.T) {
	k := newKeyedLocks()
	release := k.acquire("org-1")
	defer release()

	done := make(chan struct{})
	go func() {
		r := k.acquire("org-2")
		r()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire on an independent key blocked behind another key")
	}
}

func TestKeyedLocksReuseMutexPerKey(t *testing.T) {
	k := newKeyedLocks()
	release := k.acquire("org-1")
	release()
	release = k.acquire("org-1")
	release()

	if len(k.locks) != 1 {
		t.Errorf("expected one mutex for the reused key, got %d", len(k.locks))
	}
}
