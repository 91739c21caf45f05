package strand

// Fixed-arity declare-then-join. Handles start running the moment they
// are spawned; Join* only marks the point where the caller suspends.
// Results come back in declaration order regardless of completion
// order. On the first observed failure the remaining handles are
// cancelled, matching group semantics.

// Join2 awaits two handles.
func Join2[A, B any](tc *TaskContext, ha *Handle[A], hb *Handle[B]) (A, B, error) {
	a, errA := Await(tc, ha)
	if errA != nil {
		hb.Cancel()
	}
	b, errB := Await(tc, hb)
	return a, b, firstError(errA, errB)
}

// Join3 awaits three handles.
func Join3[A, B, C any](tc *TaskContext, ha *Handle[A], hb *Handle[B], hc *Handle[C]) (A, B, C, error) {
	a, errA := Await(tc, ha)
	if errA != nil {
		hb.Cancel()
		hc.Cancel()
	}
	b, errB := Await(tc, hb)
	if errB != nil && errA == nil {
		hc.Cancel()
	}
	c, errC := Await(tc, hc)
	return a, b, c, firstError(errA, errB, errC)
}

// Join4 awaits four handles.
func Join4[A, B, C, D any](tc *TaskContext, ha *Handle[A], hb *Handle[B], hc *Handle[C], hd *Handle[D]) (A, B, C, D, error) {
	a, errA := Await(tc, ha)
	if errA != nil {
		hb.Cancel()
		hc.Cancel()
		hd.Cancel()
	}
	b, errB := Await(tc, hb)
	if errB != nil && errA == nil {
		hc.Cancel()
		hd.Cancel()
	}
	c, errC := Await(tc, hc)
	if errC != nil && errA == nil && errB == nil {
		hd.Cancel()
	}
	d, errD := Await(tc, hd)
	return a, b, c, d, firstError(errA, errB, errC, errD)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
