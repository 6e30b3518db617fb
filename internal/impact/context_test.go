package impact

import "testing"

func TestClassAnnotationsDetectsController(t *testing.T) {
	src := `@RestController
@RequestMapping("/orders")
public class OrderController {
}`
	anns := ClassAnnotations(src)
	if !IsControllerAnnotations(anns) {
		t.Fatalf("expected controller annotations, got %v", anns)
	}
	if IsServiceAnnotations(anns) || IsRepositoryAnnotations(anns) || IsEntityAnnotations(anns) {
		t.Fatalf("expected only controller classification, got %v", anns)
	}
}

func TestClassAnnotationsDetectsService(t *testing.T) {
	src := `@Service
public class OrderService {
}`
	anns := ClassAnnotations(src)
	if !IsServiceAnnotations(anns) {
		t.Fatalf("expected service annotation, got %v", anns)
	}
}

func TestBuildAnalysisContextPopulatesMethodAnnotations(t *testing.T) {
	src := `@RestController
public class OrderController {
    @GetMapping("/{id}")
    public Order getOrder(String id) {
        return null;
    }
}`
	ac := BuildAnalysisContext("OrderController", src)
	if !ac.IsController {
		t.Fatalf("expected IsController = true")
	}
	anns, ok := ac.MethodAnnotations["getOrder"]
	if !ok {
		t.Fatalf("expected method annotations recorded for getOrder, got %+v", ac.MethodAnnotations)
	}
	found := false
	for _, a := range anns {
		if a == "GetMapping" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected GetMapping annotation on getOrder, got %v", anns)
	}
}
