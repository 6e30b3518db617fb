// Package astfallback is the optional Tier 6 structural caller fallback
// (spec §4.3.2): when regex-based call-site detection finds nothing, a
// tree-sitter parse answers "which enclosing methods contain a call on
// an expression whose declared type is one of {target, supertypes}?".
//
// Grounded on the teacher's internal/parser (tree-sitter setup) and
// internal/extract/callgraph_java.go (method_invocation walking), cut
// down to exactly the single question the caller cascade needs and
// rewired to return enclosing-method names instead of a call graph.
package astfallback

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// javaTypedDeclNodeTypes are the node types whose children can declare a
// variable with an explicit type: fields, parameters, and locals.
var javaTypedDeclNodeTypes = map[string]bool{
	"field_declaration":           true,
	"formal_parameter":            true,
	"local_variable_declaration":  true,
}

// enclosingMethodNodeTypes are named-declaration boundaries the walk
// attributes a call site to; lambda and anonymous-class bodies are
// transparent and resolve to the nearest of these ancestors.
var enclosingMethodNodeTypes = map[string]bool{
	"method_declaration":      true,
	"constructor_declaration": true,
}

// parse parses Java source with tree-sitter. Any panic from the cgo
// binding (malformed input, grammar mismatch) is recovered and reported
// as an error so callers can degrade to an empty result rather than
// crash the run, per §4.3.2 Tier 6's "degrades to empty" contract.
func parse(source []byte) (tree *sitter.Tree, err error) {
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = &ParseFailure{Cause: r}
		}
	}()

	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, parseErr := parser.ParseCtx(context.Background(), nil, source)
	if parseErr != nil {
		return nil, parseErr
	}
	return tree, nil
}

// ParseFailure wraps a recovered panic from the tree-sitter binding.
type ParseFailure struct {
	Cause interface{}
}

func (f *ParseFailure) Error() string {
	return "astfallback: tree-sitter parse failed"
}

// FindCallingMethods returns the set of enclosing method names in source
// that contain a call on an instance of one of typeNames (the target's
// simple name plus its supertype simple names). When touchedMethods is
// non-empty, only calls to one of those method names count; an empty
// touchedMethods set matches any call on a qualifying instance (used
// when the caller has already confirmed the dependency some other way
// and only needs "does it call anything on this at all").
//
// Returns (nil, err) only on a parse failure; an empty, non-nil map
// means the parse succeeded but found no qualifying call.
func FindCallingMethods(source []byte, typeNames []string, touchedMethods []string) (map[string]struct{}, error) {
	tree, err := parse(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	typeSet := make(map[string]struct{}, len(typeNames))
	for _, t := range typeNames {
		typeSet[t] = struct{}{}
	}
	methodSet := make(map[string]struct{}, len(touchedMethods))
	for _, m := range touchedMethods {
		methodSet[m] = struct{}{}
	}

	root := tree.RootNode()
	instances := collectTypedInstanceNames(root, source, typeSet)
	if len(instances) == 0 {
		return map[string]struct{}{}, nil
	}

	result := make(map[string]struct{})
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "method_invocation" {
			return true
		}
		receiver, methodName := invocationTarget(n, source)
		if receiver == "" || methodName == "" {
			return true
		}
		if _, ok := instances[receiver]; !ok {
			return true
		}
		if len(methodSet) > 0 {
			if _, ok := methodSet[methodName]; !ok {
				return true
			}
		}
		if enclosing := nearestEnclosingMethod(n, source); enclosing != "" {
			result[enclosing] = struct{}{}
		}
		return true
	})

	return result, nil
}

// collectTypedInstanceNames finds every field, parameter, and local
// variable declared with a type in typeSet and returns the set of
// declared identifier names.
func collectTypedInstanceNames(root *sitter.Node, source []byte, typeSet map[string]struct{}) map[string]struct{} {
	names := make(map[string]struct{})
	walk(root, func(n *sitter.Node) bool {
		if !javaTypedDeclNodeTypes[n.Type()] {
			return true
		}
		typeNode := n.ChildByFieldName("type")
		if typeNode == nil {
			return true
		}
		typeName := simpleTypeName(typeNode, source)
		if _, ok := typeSet[typeName]; !ok {
			return true
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			switch child.Type() {
			case "variable_declarator":
				if nameNode := child.ChildByFieldName("name"); nameNode != nil {
					names[text(nameNode, source)] = struct{}{}
				}
			case "identifier":
				// formal_parameter's declarator is a bare identifier child.
				names[text(child, source)] = struct{}{}
			}
		}
		return true
	})
	return names
}

// simpleTypeName reduces a type node (possibly generic or scoped) to its
// bare simple name, e.g. List<Foo> -> List, pkg.Foo -> Foo.
func simpleTypeName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "generic_type":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Type() == "type_identifier" {
				return text(child, source)
			}
		}
	case "scoped_type_identifier":
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child.Type() == "type_identifier" {
				return text(child, source)
			}
		}
	}
	return text(node, source)
}

// invocationTarget extracts the bare receiver identifier (the leftmost
// segment for a chained access) and method name from a method_invocation
// node. Calls with no receiver ("doWork()", implicit this) yield an
// empty receiver and are never attributed to a typed instance.
func invocationTarget(n *sitter.Node, source []byte) (receiver, method string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode != nil {
		method = text(nameNode, source)
	}
	objectNode := n.ChildByFieldName("object")
	if objectNode == nil {
		return "", method
	}
	switch objectNode.Type() {
	case "identifier":
		receiver = text(objectNode, source)
	case "field_access":
		// obj.field.method(): take the leftmost identifier as the receiver.
		leftmost := objectNode
		for leftmost.Type() == "field_access" {
			obj := leftmost.ChildByFieldName("object")
			if obj == nil {
				break
			}
			leftmost = obj
		}
		if leftmost.Type() == "identifier" {
			receiver = text(leftmost, source)
		}
	}
	return receiver, method
}

// nearestEnclosingMethod walks up from n, treating lambda and anonymous
// class bodies as transparent, to find the nearest named method or
// constructor declaration and return its name.
func nearestEnclosingMethod(n *sitter.Node, source []byte) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if enclosingMethodNodeTypes[p.Type()] {
			if nameNode := p.ChildByFieldName("name"); nameNode != nil {
				return text(nameNode, source)
			}
			return ""
		}
	}
	return ""
}

func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}

func text(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	end := n.EndByte()
	if int(end) > len(source) {
		return ""
	}
	return n.Content(source)
}
