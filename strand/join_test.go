package strand

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestJoinDeclarationOrder(t *testing.T) {
	t.Parallel()
	rt := New(WithWorkers(4))
	s := rt.NewScope(context.Background(), FailFast)

	root := Spawn(s, Medium, func(tc *TaskContext) (string, error) {
		cs := tc.ChildScope(FailFast)
		a := Spawn(cs, Medium, func(_ *TaskContext) (string, error) {
			time.Sleep(50 * time.Millisecond)
			return "a", nil
		})
		b := Spawn(cs, Medium, func(_ *TaskContext) (string, error) {
			return "b", nil // finishes well before a
		})
		ra, rb, err := Join2(tc, a, b)
		if err != nil {
			return "", err
		}
		return ra + rb, nil
	})

	v, err := root.Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ab" {
		t.Fatalf("join results out of declaration order: %q", v)
	}
	_ = s.Wait()
}

func TestJoinStartsBeforeJoinPoint(t *testing.T) {
	t.Parallel()
	rt := New(WithWorkers(4))
	s := rt.NewScope(context.Background(), FailFast)

	root := Spawn(s, Medium, func(tc *TaskContext) (struct{}, error) {
		cs := tc.ChildScope(FailFast)
		started := make(chan struct{}, 2)
		a := Spawn(cs, Medium, func(_ *TaskContext) (int, error) {
			started <- struct{}{}
			return 1, nil
		})
		b := Spawn(cs, Medium, func(_ *TaskContext) (int, error) {
			started <- struct{}{}
			return 2, nil
		})
		// Both run before anyone joins.
		for i := 0; i < 2; i++ {
			select {
			case <-started:
			case <-time.After(300 * time.Millisecond):
				return struct{}{}, errors.New("declared task did not fire before join")
			}
		}
		_, _, err := Join2(tc, a, b)
		return struct{}{}, err
	})

	if _, err := root.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = s.Wait()
}

func TestJoinFirstFailureCancelsSiblings(t *testing.T) {
	t.Parallel()
	rt := New(WithWorkers(4))
	s := rt.NewScope(context.Background(), Supervisor)
	boom := errors.New("boom")

	root := Spawn(s, Medium, func(tc *TaskContext) (struct{}, error) {
		// Supervisor child scope: only the join itself cancels.
		cs := tc.ChildScope(Supervisor)
		failing := Spawn(cs, Medium, func(_ *TaskContext) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return 0, boom
		})
		sleeper := Spawn(cs, Medium, func(ctc *TaskContext) (int, error) {
			select {
			case <-time.After(500 * time.Millisecond):
				return 0, errors.New("sibling outlived the failed join")
			case <-ctc.Context().Done():
				return 0, ctc.Err()
			}
		})
		_, _, err := Join2(tc, failing, sleeper)
		return struct{}{}, err
	})

	start := time.Now()
	_, err := root.Wait()
	if !errors.Is(err, boom) {
		t.Fatalf("expected first failure, got %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 400*time.Millisecond {
		t.Fatalf("sibling was not cancelled by failed join: took %v", elapsed)
	}
	_ = s.Wait()
}

func TestJoin3AndJoin4(t *testing.T) {
	t.Parallel()
	rt := New(WithWorkers(8))
	s := rt.NewScope(context.Background(), FailFast)

	root := Spawn(s, Medium, func(tc *TaskContext) (int, error) {
		cs := tc.ChildScope(FailFast)
		mk := func(v int, d time.Duration) *Handle[int] {
			return Spawn(cs, Medium, func(_ *TaskContext) (int, error) {
				time.Sleep(d)
				return v, nil
			})
		}
		a, b, c, err := Join3(tc, mk(1, 30*time.Millisecond), mk(2, 10*time.Millisecond), mk(3, 0))
		if err != nil {
			return 0, err
		}
		d, e, f, g, err := Join4(tc, mk(4, 0), mk(5, 5*time.Millisecond), mk(6, 0), mk(7, 15*time.Millisecond))
		if err != nil {
			return 0, err
		}
		if a != 1 || b != 2 || c != 3 || d != 4 || e != 5 || f != 6 || g != 7 {
			return 0, errors.New("join results out of declaration order")
		}
		return a + b + c + d + e + f + g, nil
	})

	v, err := root.Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 28 {
		t.Fatalf("unexpected sum %d", v)
	}
	_ = s.Wait()
}
