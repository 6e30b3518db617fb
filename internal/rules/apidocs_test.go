package rules

import (
	"testing"

	"github.com/sindudeva/revguard/internal/config"
	"github.com/sindudeva/revguard/internal/model"
)

func runControllerRule(code, content string) []model.Finding {
	lines := splitLines(content)
	ctx := &Context{
		File:         "Controller.java",
		Content:      content,
		Lines:        lines,
		ChangedLines: changedAll(len(lines)),
		Config:       config.DefaultConfig(),
		AC:           &model.AnalysisContext{IsController: true},
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

func TestControllerWithoutTag(t *testing.T) {
	src := `@RestController
class OrderController {
}`
	if findings := runControllerRule("AD001", src); len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
}

func TestControllerWithTagNotFlagged(t *testing.T) {
	src := `@Tag(name = "orders")
@RestController
class OrderController {
}`
	if findings := runControllerRule("AD001", src); len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}

func TestMappingWithoutOperation(t *testing.T) {
	src := `class OrderController {
    @GetMapping("/orders/{id}")
    public Order get(@PathVariable String id) {
        return null;
    }
}`
	if findings := runControllerRule("AD002", src); len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
}

func TestMappingWithOperationNotFlagged(t *testing.T) {
	src := `class OrderController {
    @Operation(summary = "Get order")
    @GetMapping("/orders/{id}")
    public Order get(@PathVariable String id) {
        return null;
    }
}`
	if findings := runControllerRule("AD002", src); len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}
