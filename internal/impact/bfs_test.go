package impact

import (
	"fmt"
	"testing"

	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/symbolindex"
)

// fakeBFSFixture models a small Repo -> Service -> Controller chain,
// plus a second controller that depends on the service but never calls
// the touched method, for the BFS exclusion case.
type fakeBFSFixture struct {
	dependents map[string][]string
	classes    map[string]*model.ClassInfo
	content    map[string]string
}

func newChainFixture() *fakeBFSFixture {
	serviceContent := `@Service
public class OrderService {
    private OrderRepository repo;

    public void process() {
        repo.save(x);
    }
}`
	controller1Content := `@RestController
@RequestMapping("/orders")
public class OrderController1 {
    private OrderService orderService;

    @GetMapping("/process")
    public void handle() {
        orderService.process();
    }
}`
	controller2Content := `@RestController
public class OrderController2 {
    private OrderService orderService;

    public void other() {
        // never calls process()
    }
}`
	return &fakeBFSFixture{
		dependents: map[string][]string{
			"com.example.OrderRepository": {"Service.java"},
			"com.example.OrderService":    {"Controller1.java", "Controller2.java"},
		},
		classes: map[string]*model.ClassInfo{
			"Service.java":     {Path: "Service.java", FQN: "com.example.OrderService", SimpleName: "OrderService"},
			"Controller1.java": {Path: "Controller1.java", FQN: "com.example.OrderController1", SimpleName: "OrderController1"},
			"Controller2.java": {Path: "Controller2.java", FQN: "com.example.OrderController2", SimpleName: "OrderController2"},
		},
		content: map[string]string{
			"Service.java":     serviceContent,
			"Controller1.java": controller1Content,
			"Controller2.java": controller2Content,
		},
	}
}

func (f *fakeBFSFixture) deps() BFSDeps {
	return BFSDeps{
		Dependents: func(fqn string) ([]string, error) { return f.dependents[fqn], nil },
		ClassOf: func(path string) (*model.ClassInfo, error) {
			ci, ok := f.classes[path]
			if !ok {
				return nil, fmt.Errorf("no class for %s", path)
			}
			return ci, nil
		},
		Content: func(path string) (string, error) {
			c, ok := f.content[path]
			if !ok {
				return "", fmt.Errorf("no content for %s", path)
			}
			return c, nil
		},
		IsTest: func(path string) bool { return false },
	}
}

func TestRunBFSTransitiveChainExcludesNonCallingController(t *testing.T) {
	f := newChainFixture()
	cfg := BFSConfig{MaxDepth: 2, MaxVisitedFiles: 10, MaxControllers: 10}

	result := RunBFS("com.example.OrderRepository", "OrderRepository", []string{"save"}, nil, f.deps(), cfg)

	if len(result.Notes) != 2 {
		t.Fatalf("expected 2 transitive-caller notes (Service, Controller1), got %d: %v", len(result.Notes), result.Notes)
	}
	if result.Notes[0] != "Transitive caller [depth 1]: OrderService.process()" {
		t.Errorf("unexpected depth-1 note: %q", result.Notes[0])
	}
	if result.Notes[1] != "Transitive caller [depth 2]: OrderController1.handle()" {
		t.Errorf("unexpected depth-2 note: %q", result.Notes[1])
	}
	if len(result.Endpoints) != 1 || result.Endpoints[0] != "OrderController1.handle [GET /orders/process]" {
		t.Fatalf("expected exactly the Controller1 endpoint, got %v", result.Endpoints)
	}
}

func TestRunBFSRespectsMaxDepth(t *testing.T) {
	f := newChainFixture()
	// Depth 1 reaches Service; Controller1 would be depth 2, which this
	// budget forbids entirely (no note, no endpoint, no further queueing).
	cfg := BFSConfig{MaxDepth: 1, MaxVisitedFiles: 10, MaxControllers: 10}

	result := RunBFS("com.example.OrderRepository", "OrderRepository", []string{"save"}, nil, f.deps(), cfg)

	if len(result.Notes) != 1 {
		t.Fatalf("expected only the depth-1 note, got %d: %v", len(result.Notes), result.Notes)
	}
	if len(result.Endpoints) != 0 {
		t.Fatalf("expected no endpoints beyond MaxDepth, got %v", result.Endpoints)
	}
}

func TestRunBFSStopsAtMaxControllers(t *testing.T) {
	f := newChainFixture()
	// A third controller also calls process(); capping MaxControllers at
	// 1 must surface only the first one reached, not both.
	f.dependents["com.example.OrderService"] = []string{"Controller1.java", "Controller2.java", "Controller3.java"}
	f.classes["Controller3.java"] = &model.ClassInfo{Path: "Controller3.java", FQN: "com.example.OrderController3", SimpleName: "OrderController3"}
	f.content["Controller3.java"] = `@RestController
@RequestMapping("/orders3")
public class OrderController3 {
    private OrderService orderService;

    @GetMapping("/process")
    public void handle() {
        orderService.process();
    }
}`
	cfg := BFSConfig{MaxDepth: 2, MaxVisitedFiles: 10, MaxControllers: 1}

	result := RunBFS("com.example.OrderRepository", "OrderRepository", []string{"save"}, nil, f.deps(), cfg)

	if len(result.Endpoints) != 1 {
		t.Fatalf("expected exactly 1 endpoint once MaxControllers=1 is hit, got %v", result.Endpoints)
	}
	if result.Endpoints[0] != "OrderController1.handle [GET /orders/process]" {
		t.Fatalf("expected only the first-reached controller's endpoint, got %v", result.Endpoints)
	}
}

func TestRunBFSDedupesRevisitedIntermediate(t *testing.T) {
	f := newChainFixture()
	// A second path resolves to the exact same intermediate FQN+methods;
	// the visited-key guard must collapse it into a single traversal.
	f.dependents["com.example.OrderRepository"] = []string{"Service.java", "ServiceAlias.java"}
	f.classes["ServiceAlias.java"] = f.classes["Service.java"]
	f.content["ServiceAlias.java"] = f.content["Service.java"]

	cfg := BFSConfig{MaxDepth: 2, MaxVisitedFiles: 10, MaxControllers: 10}
	result := RunBFS("com.example.OrderRepository", "OrderRepository", []string{"save"}, nil, f.deps(), cfg)

	depth1 := 0
	for _, n := range result.Notes {
		if n == "Transitive caller [depth 1]: OrderService.process()" {
			depth1++
		}
	}
	if depth1 != 1 {
		t.Fatalf("expected the duplicate intermediate path to be deduped to 1 note, got %d: %v", depth1, result.Notes)
	}
}

func TestClassifyDependencyInjected(t *testing.T) {
	target := &model.ClassInfo{SimpleName: "OrderService"}
	candidate := &model.ClassInfo{SimpleName: "OrderController"}
	content := `public class OrderController {
    @Autowired
    private OrderService orderService;
}`
	got := ClassifyDependency(content, candidate, target, symbolindex.DefaultInjectionAnnotations)
	if got != "INJECTED" {
		t.Fatalf("expected INJECTED, got %q", got)
	}
}

func TestClassifyDependencyExtends(t *testing.T) {
	target := &model.ClassInfo{SimpleName: "AbstractService"}
	candidate := &model.ClassInfo{SimpleName: "OrderService", SupertypeSimpleNames: []string{"AbstractService"}}
	got := ClassifyDependency("public class OrderService extends AbstractService {}", candidate, target, symbolindex.DefaultInjectionAnnotations)
	if got != "EXTENDS" {
		t.Fatalf("expected EXTENDS, got %q", got)
	}
}

func TestClassifyDependencyCalls(t *testing.T) {
	target := &model.ClassInfo{SimpleName: "OrderService"}
	candidate := &model.ClassInfo{SimpleName: "OrderController"}
	content := `public class OrderController {
    public void handle(OrderService svc) {
        svc.placeOrder();
    }
}`
	got := ClassifyDependency(content, candidate, target, symbolindex.DefaultInjectionAnnotations)
	if got != "CALLS" {
		t.Fatalf("expected CALLS, got %q", got)
	}
}
