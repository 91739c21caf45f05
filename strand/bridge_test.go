package strand

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBridgeResolvesAfterCallback(t *testing.T) {
	t.Parallel()
	const delay = 50 * time.Millisecond
	rt := New(WithWorkers(2))
	s := rt.NewScope(context.Background(), FailFast)

	start := time.Now()
	h := Spawn(s, Medium, func(tc *TaskContext) (string, error) {
		return Bridge(tc, func(resume Resume[string]) {
			go func() {
				time.Sleep(delay)
				_ = resume.Resolve("payload")
			}()
		})
	})

	v, err := h.Wait()
	elapsed := time.Since(start)
	if err != nil || v != "payload" {
		t.Fatalf("unexpected result (%q, %v)", v, err)
	}
	if elapsed < delay {
		t.Fatalf("bridge resolved after %v, sooner than the %v callback delay", elapsed, delay)
	}
	_ = s.Wait()
}

func TestBridgeReject(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	rt := New(WithWorkers(2))
	s := rt.NewScope(context.Background(), Supervisor)

	h := Spawn(s, Medium, func(tc *TaskContext) (string, error) {
		return Bridge(tc, func(resume Resume[string]) {
			_ = resume.Reject(boom)
		})
	})
	if _, err := h.Wait(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	_ = s.Wait()
}

func TestBridgeDoubleResumeReported(t *testing.T) {
	t.Parallel()
	rt := New(WithWorkers(2))
	s := rt.NewScope(context.Background(), FailFast)

	second := make(chan error, 1)
	h := Spawn(s, Medium, func(tc *TaskContext) (int, error) {
		return Bridge(tc, func(resume Resume[int]) {
			if err := resume.Resolve(1); err != nil {
				t.Errorf("first resume failed: %v", err)
			}
			second <- resume.Resolve(2)
		})
	})

	v, err := h.Wait()
	if err != nil || v != 1 {
		t.Fatalf("first delivery corrupted: (%d, %v)", v, err)
	}
	if got := <-second; !errors.Is(got, ErrContinuationMisuse) {
		t.Fatalf("expected ErrContinuationMisuse on second resume, got %v", got)
	}
	_ = s.Wait()
}

func TestBridgeNeverResumedRescuedByCancel(t *testing.T) {
	t.Parallel()
	rt := New(WithWorkers(2))
	s := rt.NewScope(context.Background(), FailFast)

	h := Spawn(s, Medium, func(tc *TaskContext) (int, error) {
		return Bridge(tc, func(Resume[int]) {
			// Legacy API drops the callback on the floor.
		})
	})

	// The runtime cannot detect the leak; an external timeout can.
	select {
	case <-h.Done():
		t.Fatal("bridge resolved without a resume")
	case <-time.After(50 * time.Millisecond):
	}

	s.Cancel(nil)
	if _, err := h.Wait(); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled after rescue, got %v", err)
	}
	_ = s.Wait()
}
