package impact

import "testing"

func linesSet(ls ...int) map[int]struct{} {
	m := make(map[int]struct{}, len(ls))
	for _, l := range ls {
		m[l] = struct{}{}
	}
	return m
}

func TestTouchedMethodsReturnsOnlyIntersectingSpans(t *testing.T) {
	src := `class OrderService {
    public void placeOrder() {
        repo.save(order);
    }

    public void cancelOrder() {
        repo.delete(order);
    }
}`
	got := TouchedMethods(src, linesSet(3))
	if len(got) != 1 || got[0] != "placeOrder" {
		t.Fatalf("expected only placeOrder touched, got %v", got)
	}
}

func TestTouchedMethodsReturnsEmptyWhenNoLinesChanged(t *testing.T) {
	src := `class OrderService {
    public void placeOrder() {
        repo.save(order);
    }
}`
	got := TouchedMethods(src, linesSet())
	if len(got) != 0 {
		t.Fatalf("expected no touched methods, got %v", got)
	}
}

func TestTouchedMethodsReturnsBothWhenBothSpansChanged(t *testing.T) {
	src := `class OrderService {
    public void placeOrder() {
        repo.save(order);
    }

    public void cancelOrder() {
        repo.delete(order);
    }
}`
	got := TouchedMethods(src, linesSet(3, 7))
	if len(got) != 2 {
		t.Fatalf("expected 2 touched methods, got %v", got)
	}
}
