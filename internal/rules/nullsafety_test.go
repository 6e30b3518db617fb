package rules

import (
	"testing"

	"github.com/sindudeva/revguard/internal/model"
)

func TestOptionalOfNonConstantFlagged(t *testing.T) {
	src := `class Service {
    Optional<String> wrap(User user) {
        return Optional.of(user.getName());
    }
}`
	if findings := runRule("NS001", src); len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
}

func TestOptionalGetInLoopEscalatesToMustFix(t *testing.T) {
	src := `class Service {
    void run(List<Optional<String>> values) {
        for (Optional<String> v : values) {
            String s = v.get();
        }
    }
}`
	findings := runRule("NS004", src)
	if len(findings) != 1 || findings[0].Severity != model.MustFix {
		t.Fatalf("expected 1 MUST_FIX finding, got %+v", findings)
	}
}

func TestOptionalGetOutsideLoopIsShouldFix(t *testing.T) {
	src := `class Service {
    String run(Optional<String> value) {
        return value.get();
    }
}`
	findings := runRule("NS004", src)
	if len(findings) != 1 || findings[0].Severity != model.ShouldFix {
		t.Fatalf("expected 1 SHOULD_FIX finding, got %+v", findings)
	}
}

func TestGetIntLiteralFlagged(t *testing.T) {
	src := `class Service {
    String first(List<String> items) {
        return items.get(0);
    }
}`
	if findings := runRule("NS003", src); len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
}
