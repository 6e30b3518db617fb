package astfallback

import "testing"

const interfaceTypedCaller = `
package com.example;

public class OrderController {
    private final OrderService service;

    public OrderController(OrderService service) {
        this.service = service;
    }

    public Order submit(OrderRequest req) {
        return service.placeOrder(req);
    }

    public void cancel(String id) {
        auditLog.record("cancel", id);
    }
}
`

func TestFindCallingMethodsMatchesTypedReceiver(t *testing.T) {
	methods, err := FindCallingMethods([]byte(interfaceTypedCaller), []string{"OrderService"}, []string{"placeOrder"})
	if err != nil {
		t.Fatalf("FindCallingMethods() error = %v", err)
	}
	if _, ok := methods["submit"]; !ok {
		t.Errorf("expected \"submit\" to be attributed as a caller, got %v", methods)
	}
	if _, ok := methods["cancel"]; ok {
		t.Errorf("\"cancel\" has no call on the typed instance, should not be attributed")
	}
}

func TestFindCallingMethodsEmptyTouchedMatchesAnyCall(t *testing.T) {
	methods, err := FindCallingMethods([]byte(interfaceTypedCaller), []string{"OrderService"}, nil)
	if err != nil {
		t.Fatalf("FindCallingMethods() error = %v", err)
	}
	if _, ok := methods["submit"]; !ok {
		t.Errorf("expected \"submit\" to match with an empty touched-method filter, got %v", methods)
	}
}

func TestFindCallingMethodsNoMatchingType(t *testing.T) {
	methods, err := FindCallingMethods([]byte(interfaceTypedCaller), []string{"NotReferenced"}, nil)
	if err != nil {
		t.Fatalf("FindCallingMethods() error = %v", err)
	}
	if len(methods) != 0 {
		t.Errorf("expected no matches for an unreferenced type, got %v", methods)
	}
}
