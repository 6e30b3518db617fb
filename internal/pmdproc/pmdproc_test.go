package pmdproc

import (
	"context"
	"testing"
)

func TestRunFileDecodesJSONFindings(t *testing.T) {
	r := NewRunner("printf", `[{"code":"EH001","severity":"MUST_FIX","category":"Exception Handling","message":"empty catch","file":"X.java","line":1}]`)
	findings, err := r.RunFile(context.Background(), "X.java")
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if len(findings) != 1 || findings[0].Code != "EH001" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}

func TestRunFileNonZeroExitReturnsError(t *testing.T) {
	r := NewRunner("false")
	if _, err := r.RunFile(context.Background(), "X.java"); err == nil {
		t.Fatal("expected error from non-zero exit")
	}
}

func TestRunFileCancelledContextReturnsError(t *testing.T) {
	r := NewRunner("sleep", "5")
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // an already-cancelled context stops the command from running at all
	if _, err := r.RunFile(ctx, "X.java"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestRunBatchMalformedOutputReturnsError(t *testing.T) {
	r := NewRunner("printf", "not json")
	if _, err := r.RunBatch(context.Background(), []string{"X.java"}); err == nil {
		t.Fatal("expected decode error")
	}
}
