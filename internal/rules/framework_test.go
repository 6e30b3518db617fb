package rules

import (
	"testing"

	"github.com/sindudeva/revguard/internal/config"
	"github.com/sindudeva/revguard/internal/model"
)

func changedAll(lines int) map[int]struct{} {
	m := make(map[int]struct{}, lines)
	for i := 1; i <= lines; i++ {
		m[i] = struct{}{}
	}
	return m
}

func runRule(code, content string) []model.Finding {
	lines := splitLines(content)
	ctx := &Context{
		File:         "Test.java",
		Content:      content,
		Lines:        lines,
		ChangedLines: changedAll(len(lines)),
		Config:       config.DefaultConfig(),
	}
	ctx.MethodScope = ExpandToMethodScope(content, ctx.ChangedLines)

	var findings []model.Finding
	for _, r := range registry {
		if r.Code != code {
			continue
		}
		findings = append(findings, r.Check(ctx)...)
	}
	return findings
}

func TestTransactionalOnPrivateMethod(t *testing.T) {
	src := `class Service {
    @Transactional
    private void doWork() {
        repo.save(x);
    }
}`
	findings := runRule("FW001", src)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(findings), findings)
	}
	if findings[0].Severity != model.MustFix {
		t.Fatalf("expected MUST_FIX, got %v", findings[0].Severity)
	}
}

func TestSelfInvocationTransactionalFlagged(t *testing.T) {
	src := `class OrderService {
    @Transactional
    public void inner() {
        repo.save(x);
    }

    public void outer() {
        this.inner();
    }
}`
	findings := runRule("FW016", src)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(findings), findings)
	}
	if findings[0].Severity != model.MustFix {
		t.Fatalf("expected MUST_FIX, got %v", findings[0].Severity)
	}
}

func TestSelfInvocationTransactionalNotFlaggedForExternalCaller(t *testing.T) {
	src := `class OrderService {
    @Transactional
    public void inner() {
        repo.save(x);
    }
}`
	findings := runRule("FW016", src)
	if len(findings) != 0 {
		t.Fatalf("expected no findings with no self-invocation, got %+v", findings)
	}
}

func TestTransactionalOnPublicMethodNotFlagged(t *testing.T) {
	src := `class Service {
    @Transactional
    public void doWork() {
        repo.save(x);
    }
}`
	if findings := runRule("FW001", src); len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}

func TestCorsWildcardOrigin(t *testing.T) {
	src := `@CrossOrigin(origins = "*")
class Controller {
}`
	findings := runRule("FW012", src)
	if len(findings) != 1 || findings[0].Severity != model.MustFix {
		t.Fatalf("expected 1 MUST_FIX finding, got %+v", findings)
	}
}

func TestValueReferencingSecret(t *testing.T) {
	src := `class Cfg {
    @Value("${db.password}")
    private String dbPassword;
}`
	findings := runRule("FW008", src)
	if len(findings) != 1 || findings[0].Severity != model.MustFix {
		t.Fatalf("expected 1 MUST_FIX finding, got %+v", findings)
	}
}

func TestValueWithoutDefaultFlagged(t *testing.T) {
	src := `class Cfg {
    @Value("${retry.count}")
    private int retryCount;
}`
	findings := runRule("FW007", src)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
}

func TestValueWithDefaultNotFlagged(t *testing.T) {
	src := `class Cfg {
    @Value("${retry.count:3}")
    private int retryCount;
}`
	if findings := runRule("FW007", src); len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}

func TestRequestBodyWithoutValid(t *testing.T) {
	src := `class Controller {
    @PostMapping("/orders")
    public void create(@RequestBody OrderRequest req) {
    }
}`
	findings := runRule("FW002", src)
	if len(findings) != 1 || findings[0].Severity != model.ShouldFix {
		t.Fatalf("expected 1 SHOULD_FIX finding, got %+v", findings)
	}
}

func TestSensitiveEntityFieldWithoutJsonIgnore(t *testing.T) {
	src := `class User {
    String password;
}`
	lines := splitLines(src)
	ctx := &Context{
		File:         "User.java",
		Content:      src,
		Lines:        lines,
		ChangedLines: changedAll(len(lines)),
		Config:       config.DefaultConfig(),
		AC:           &model.AnalysisContext{IsEntity: true},
	}
	ctx.MethodScope = ExpandToMethodScope(src, ctx.ChangedLines)

	var findings []model.Finding
	for _, r := range registry {
		if r.Code != "FW019" {
			continue
		}
		findings = append(findings, r.Check(ctx)...)
	}
	if len(findings) != 1 || findings[0].Severity != model.MustFix {
		t.Fatalf("expected 1 MUST_FIX finding, got %+v", findings)
	}
}
