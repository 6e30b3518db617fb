package testlink

import (
	"testing"

	"github.com/sindudeva/revguard/internal/model"
)

func TestResolveFindsContainingTestFile(t *testing.T) {
	status := Resolve("OrderService.java", []string{
		"src/test/java/com/example/OrderServiceTest.java",
		"src/test/java/com/example/PaymentServiceTest.java",
	})
	if !status.HasTests || len(status.RelatedTests) != 1 {
		t.Fatalf("status = %+v, want exactly one related test", status)
	}
}

func TestResolveNoMatch(t *testing.T) {
	status := Resolve("OrderService.java", []string{"src/test/java/com/example/PaymentServiceTest.java"})
	if status.HasTests {
		t.Fatalf("status = %+v, want HasTests=false", status)
	}
}

func TestEnrichAddsNoteWhenNoTests(t *testing.T) {
	entry := &model.ImpactEntry{FileName: "OrderService.java"}
	Enrich(entry, Status{HasTests: false})
	if len(entry.Notes) != 1 || entry.Notes[0] != "No related tests" {
		t.Errorf("Notes = %v, want [\"No related tests\"]", entry.Notes)
	}
}

func TestEnrichNoNoteWhenTestsExist(t *testing.T) {
	entry := &model.ImpactEntry{FileName: "OrderService.java"}
	Enrich(entry, Status{HasTests: true, RelatedTests: []string{"x"}})
	if len(entry.Notes) != 0 {
		t.Errorf("Notes = %v, want none", entry.Notes)
	}
}
