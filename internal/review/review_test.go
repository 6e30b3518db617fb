package review

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/sindudeva/revguard/internal/config"
	"github.com/sindudeva/revguard/internal/model"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func newStagedRepo(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "revguard-review-*")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "test")
	return dir
}

func TestRunWithNoStagedFilesReportsNothingToReview(t *testing.T) {
	dir := newStagedRepo(t)

	result, err := Run(Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.StagedCount != 0 {
		t.Fatalf("expected 0 staged files, got %d", result.StagedCount)
	}
	if len(result.Findings) != 0 {
		t.Fatalf("expected no findings, got %+v", result.Findings)
	}
}

func TestRunFlagsEmptyCatchInStagedFile(t *testing.T) {
	dir := newStagedRepo(t)

	src := `class Service {
    void run() {
        try {
            doWork();
        } catch (IOException e) {}
    }
}`
	writeFile(t, dir, "Service.java", src)
	runGit(t, dir, "add", "Service.java")

	result, err := Run(Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.StagedCount != 1 {
		t.Fatalf("expected 1 staged source file, got %d", result.StagedCount)
	}

	found := false
	for _, f := range result.Findings {
		if f.Code == "EH001" {
			found = true
			if f.Severity != model.MustFix {
				t.Errorf("expected EH001 to be MUST_FIX, got %v", f.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected an EH001 finding, got %+v", result.Findings)
	}
}

func TestRunExplicitFileModeReviewsWholeFile(t *testing.T) {
	dir := newStagedRepo(t)

	src := `class Service {
    void run() {
        try {
            doWork();
        } catch (IOException e) {}
    }
}`
	writeFile(t, dir, "Service.java", src)
	// Not staged: explicit-file mode must still surface findings.

	result, err := Run(Options{WorkDir: dir, Files: []string{"Service.java"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.StagedCount != 1 {
		t.Fatalf("expected 1 explicit file counted, got %d", result.StagedCount)
	}

	found := false
	for _, f := range result.Findings {
		if f.Code == "EH001" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected EH001 in explicit-file mode, got %+v", result.Findings)
	}
}

func TestRunBuildsImpactEntryForController(t *testing.T) {
	dir := newStagedRepo(t)

	controller := `@RestController
class UserController {
    @GetMapping("/users/{id}")
    public User getUser(@PathVariable String id) {
        return service.find(id);
    }
}`
	writeFile(t, dir, "UserController.java", controller)
	runGit(t, dir, "add", "UserController.java")

	result, err := Run(Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.ImpactEntries) != 1 {
		t.Fatalf("expected 1 impact entry, got %d: %+v", len(result.ImpactEntries), result.ImpactEntries)
	}
	entry := result.ImpactEntries[0]
	if len(entry.Endpoints) != 1 {
		t.Fatalf("expected 1 endpoint, got %+v", entry.Endpoints)
	}
}

func TestRunFlagsInjectedTransitiveCallerAcrossFiles(t *testing.T) {
	dir := newStagedRepo(t)

	// OrderServiceImpl is the changed (non-controller) file; OrderController
	// depends on it only through the OrderService interface it implements,
	// injected via @Autowired, and calls the touched method.
	impl := `class OrderServiceImpl implements OrderService {
    public void placeOrder() {
        System.out.println("placing");
    }
}`
	controller := `class OrderController {
    @Autowired
    private OrderService orderService;

    public void someEnclosing() {
        orderService.placeOrder();
    }
}`
	writeFile(t, dir, "OrderServiceImpl.java", impl)
	writeFile(t, dir, "OrderController.java", controller)
	runGit(t, dir, "add", "OrderServiceImpl.java", "OrderController.java")
	runGit(t, dir, "commit", "-q", "-m", "seed")

	// Only OrderServiceImpl is staged as a change for this run. The
	// changed line must land inside placeOrder()'s body so TouchedMethods
	// picks it up.
	implChanged := `class OrderServiceImpl implements OrderService {
    public void placeOrder() {
        System.out.println("placing");
        // touched
    }
}`
	writeFile(t, dir, "OrderServiceImpl.java", implChanged)
	runGit(t, dir, "add", "OrderServiceImpl.java")

	result, err := Run(Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.ImpactEntries) != 1 {
		t.Fatalf("expected 1 impact entry, got %d: %+v", len(result.ImpactEntries), result.ImpactEntries)
	}

	want := "Impacted Method [INJECTED]: OrderController.java -> someEnclosing()"
	found := false
	for _, n := range result.ImpactEntries[0].Notes {
		if n == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected note %q, got %+v", want, result.ImpactEntries[0].Notes)
	}
}

func TestRunBuildsTransitiveBFSChainAcrossRepo(t *testing.T) {
	dir := newStagedRepo(t)

	repo := `class OrderRepository {
    public void save(Object o) {}
}`
	service := `class OrderService {
    private OrderRepository repo;

    public void process() {
        repo.save(this);
    }
}`
	controller := `@RestController
@RequestMapping("/orders")
class OrderController {
    private OrderService orderService;

    @GetMapping("/process")
    public void handle() {
        orderService.process();
    }
}`
	writeFile(t, dir, "OrderRepository.java", repo)
	writeFile(t, dir, "OrderService.java", service)
	writeFile(t, dir, "OrderController.java", controller)
	runGit(t, dir, "add", "OrderRepository.java", "OrderService.java", "OrderController.java")
	runGit(t, dir, "commit", "-q", "-m", "seed")

	// Touch the repository's save() method; everything else is unchanged
	// on disk, discovered only through the whole-repo symbol index. The
	// changed line must land inside save()'s body so TouchedMethods picks
	// it up.
	repoChanged := `class OrderRepository {
    public void save(Object o) {
        // touched
    }
}`
	writeFile(t, dir, "OrderRepository.java", repoChanged)
	runGit(t, dir, "add", "OrderRepository.java")

	result, err := Run(Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.ImpactEntries) != 1 {
		t.Fatalf("expected 1 impact entry, got %d: %+v", len(result.ImpactEntries), result.ImpactEntries)
	}
	entry := result.ImpactEntries[0]

	foundEndpoint := false
	for _, ep := range entry.Endpoints {
		if ep == "OrderController.handle [GET /orders/process]" {
			foundEndpoint = true
		}
	}
	if !foundEndpoint {
		t.Fatalf("expected transitive endpoint through Service -> Controller, got %+v", entry.Endpoints)
	}

	depth1, depth2 := false, false
	for _, n := range entry.Notes {
		if n == "Transitive caller [depth 1]: OrderService.process()" {
			depth1 = true
		}
		if n == "Transitive caller [depth 2]: OrderController.handle()" {
			depth2 = true
		}
	}
	if !depth1 || !depth2 {
		t.Fatalf("expected both transitive-caller notes, got %+v", entry.Notes)
	}
}

func TestExitCodeBlocksOnMustFix(t *testing.T) {
	result := &Result{Findings: []model.Finding{{Severity: model.MustFix, Code: "EH001"}}}

	blocking := config.DefaultConfig()
	blocking.BlockOnMustFix = true
	if result.ExitCode(blocking) != 1 {
		t.Fatalf("expected exit code 1 when MUST_FIX present and blocking enabled")
	}

	nonBlocking := config.DefaultConfig()
	nonBlocking.BlockOnMustFix = false
	if result.ExitCode(nonBlocking) != 0 {
		t.Fatalf("expected exit code 0 when blocking disabled")
	}
}
