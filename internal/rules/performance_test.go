package rules

import (
	"testing"

	"github.com/sindudeva/revguard/internal/model"
)

func TestOrElseExpensiveCall(t *testing.T) {
	src := `class Service {
    void run() {
        String v = cache.find(key).orElse(remote.fetch());
    }
}`
	findings := runRule("PF001", src)
	if len(findings) != 1 || findings[0].Severity != model.ShouldFix {
		t.Fatalf("expected 1 SHOULD_FIX finding, got %+v", findings)
	}
}

func TestStringConcatInLoop(t *testing.T) {
	src := `class Builder {
    String build(List<String> parts) {
        String out = "";
        for (String p : parts) {
            out = out + p;
        }
        return out;
    }
}`
	findings := runRule("PF002", src)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
}

func TestStringConcatOutsideLoopNotFlagged(t *testing.T) {
	src := `class Builder {
    String build(String a, String b) {
        String out = a + b;
        out = out + "!";
        return out;
    }
}`
	if findings := runRule("PF002", src); len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}

func TestThreadSleepLiteral(t *testing.T) {
	src := `class Retrier {
    void wait() throws InterruptedException {
        Thread.sleep(500);
    }
}`
	findings := runRule("PF003", src)
	if len(findings) != 1 || findings[0].Severity != model.Consider {
		t.Fatalf("expected 1 CONSIDER finding, got %+v", findings)
	}
}
