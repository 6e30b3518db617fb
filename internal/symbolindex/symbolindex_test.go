package symbolindex

import (
	"testing"

	"github.com/sindudeva/revguard/internal/model"
)

func TestParseFileExtractsClassInfo(t *testing.T) {
	src := `package com.example.orders;

import com.example.common.Auditable;

public class OrderServiceImpl extends AbstractService implements OrderService, Auditable<Order> {
    public void placeOrder() {}
}
`
	ci, imports := ParseFile("src/main/java/com/example/orders/OrderServiceImpl.java", src)
	if ci == nil {
		t.Fatal("ParseFile() returned nil ClassInfo")
	}
	if ci.PackageName != "com.example.orders" {
		t.Errorf("PackageName = %q", ci.PackageName)
	}
	if ci.SimpleName != "OrderServiceImpl" {
		t.Errorf("SimpleName = %q", ci.SimpleName)
	}
	if ci.FQN != "com.example.orders.OrderServiceImpl" {
		t.Errorf("FQN = %q", ci.FQN)
	}
	want := map[string]bool{"AbstractService": true, "OrderService": true, "Auditable": true}
	if len(ci.SupertypeSimpleNames) != len(want) {
		t.Fatalf("SupertypeSimpleNames = %v", ci.SupertypeSimpleNames)
	}
	for _, s := range ci.SupertypeSimpleNames {
		if !want[s] {
			t.Errorf("unexpected supertype %q", s)
		}
	}
	if !imports.HasExplicit("com.example.common.Auditable") {
		t.Errorf("expected explicit import of Auditable")
	}
}

func TestIsTestFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"src/main/java/com/example/OrderService.java", false},
		{"src/test/java/com/example/OrderServiceTest.java", true},
		{"src/main/java/com/example/OrderServiceTest.java", true},
		{"src/main/java/com/example/Orderer.java", false},
	}
	for _, c := range cases {
		if got := IsTestFile(c.path); got != c.want {
			t.Errorf("IsTestFile(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestDependsOnExplicitImport(t *testing.T) {
	target, _ := ParseFile("src/main/java/com/example/OrderService.java", `package com.example;
public class OrderService {}`)

	candidateContent := `package com.other;
import com.example.OrderService;
public class Controller {
    private OrderService svc;
}`
	candidate, imports := ParseFile("src/main/java/com/other/Controller.java", candidateContent)

	if !DependsOn(candidateContent, imports, candidate, target, true, DefaultInjectionAnnotations) {
		t.Error("expected DependsOn to detect explicit import dependency")
	}
}

func TestDependsOnInjectedSupertype(t *testing.T) {
	target, _ := ParseFile("src/main/java/com/example/impl/OrderServiceImpl.java", `package com.example.impl;
public class OrderServiceImpl implements OrderService {}`)

	candidateContent := `package com.other;
public class Controller {
    @Autowired
    private OrderService service;

    public void handle() {
        service.placeOrder();
    }
}`
	candidate, imports := ParseFile("src/main/java/com/other/Controller.java", candidateContent)

	if !DependsOn(candidateContent, imports, candidate, target, true, DefaultInjectionAnnotations) {
		t.Error("expected DependsOn to detect injected-supertype dependency")
	}
}

func TestBuildReverseGraphHasNoSelfEdges(t *testing.T) {
	path := "src/main/java/com/example/OrderService.java"
	content := `package com.example;
public class OrderService {
    public void placeOrder() {}
}`
	idx := New()
	ci, _ := ParseFile(path, content)
	idx.Add(ci)

	target := idx.ByFQN["com.example.OrderService"]
	contentCache := map[string]string{}
	graph := idx.BuildReverseGraph([]*model.ClassInfo{target}, contentCache, func(p string) (string, error) {
		return content, nil
	})

	if _, ok := graph[target.FQN][target.Path]; ok {
		t.Error("reverse graph must never contain a self-edge")
	}
}
