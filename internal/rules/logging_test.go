package rules

import (
	"testing"

	"github.com/sindudeva/revguard/internal/model"
)

func TestLogSecretFlagged(t *testing.T) {
	src := `class Auth {
    void login(String password) {
        log.info("login password={}", password);
    }
}`
	findings := runRule("LG001", src)
	if len(findings) != 1 || findings[0].Severity != model.MustFix {
		t.Fatalf("expected 1 MUST_FIX finding, got %+v", findings)
	}
}

func TestLogInLoopFlagged(t *testing.T) {
	src := `class Worker {
    void run(List<String> items) {
        for (String item : items) {
            log.info("processing {}", item);
        }
    }
}`
	findings := runRule("LG002", src)
	if len(findings) != 1 || findings[0].Severity != model.ShouldFix {
		t.Fatalf("expected 1 SHOULD_FIX finding, got %+v", findings)
	}
}

func TestConsolePrintlnFlagged(t *testing.T) {
	src := `class Worker {
    void run() {
        System.out.println("starting");
    }
}`
	if findings := runRule("LG003", src); len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
}

func TestPlaceholderMismatchFlagged(t *testing.T) {
	src := `class Worker {
    void run(String name, int count) {
        log.info("processing {} items", name, count);
    }
}`
	findings := runRule("LG004", src)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
}

func TestPlaceholderMatchNotFlagged(t *testing.T) {
	src := `class Worker {
    void run(String name) {
        log.info("processing {}", name);
    }
}`
	if findings := runRule("LG004", src); len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}

func TestPlaceholderMismatchExemptsTrailingThrowable(t *testing.T) {
	src := `class Worker {
    void run(String name) {
        try {
            doWork();
        } catch (Exception e) {
            log.error("processing {} failed", name, e);
        }
    }
}`
	if findings := runRule("LG004", src); len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}

func TestDuplicateLogFlagged(t *testing.T) {
	src := `class Worker {
    void run(String name) {
        log.info("starting {}", name);
        log.info("starting {}", name);
    }
}`
	findings := runRule("LG005", src)
	if len(findings) != 1 || findings[0].Severity != model.Consider {
		t.Fatalf("expected 1 CONSIDER finding, got %+v", findings)
	}
}
