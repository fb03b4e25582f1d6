package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"brewin/internal/ast"
)

// WalkAST recursively traverses an AST and serializes it into a machine-centric map structure.
// The output mirrors the element document shape so it can be fed back to ParseTree.
func WalkAST(node ast.Node) interface{} {
	switch n := node.(type) {
	case *ast.Program:
		functions := make([]interface{}, len(n.Functions))
		for i, f := range n.Functions {
			functions[i] = WalkAST(f)
		}
		out := map[string]interface{}{
			elemTypeKey:  ast.ProgramElem,
			functionsKey: functions,
		}
		if len(n.Globals) > 0 {
			out[globalsKey] = walkStatements(n.Globals)
		}
		return out

	case *ast.FunctionDefinition:
		args := make([]interface{}, len(n.Parameters))
		for i, p := range n.Parameters {
			args[i] = map[string]interface{}{elemTypeKey: argElem, nameKey: p.Value}
		}
		return map[string]interface{}{
			elemTypeKey:   ast.FunctionElem,
			nameKey:       n.Name,
			argsKey:       args,
			statementsKey: walkStatements(n.Body),
		}

	case *ast.VarDefinition:
		return map[string]interface{}{elemTypeKey: ast.VarDefElem, nameKey: n.Name.Value}

	case *ast.Assignment:
		return map[string]interface{}{
			elemTypeKey:   ast.AssignElem,
			nameKey:       n.Name.Value,
			expressionKey: WalkAST(n.Value),
		}

	case *ast.CallStatement:
		return WalkAST(n.Call)

	case *ast.ReturnStatement:
		out := map[string]interface{}{elemTypeKey: ast.ReturnElem}
		if n.ReturnValue != nil {
			out[expressionKey] = WalkAST(n.ReturnValue)
		}
		return out

	case *ast.CallExpression:
		args := make([]interface{}, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = WalkAST(a)
		}
		return map[string]interface{}{
			elemTypeKey: ast.CallElem,
			nameKey:     n.Function.Value,
			argsKey:     args,
		}

	case *ast.BinaryExpression:
		return map[string]interface{}{
			elemTypeKey: n.Operator,
			op1Key:      WalkAST(n.Left),
			op2Key:      WalkAST(n.Right),
		}

	case *ast.Identifier:
		return map[string]interface{}{elemTypeKey: ast.IdentifierElem, nameKey: n.Value}

	case *ast.IntegerLiteral:
		return map[string]interface{}{elemTypeKey: ast.IntElem, valKey: n.Value}

	case *ast.FloatLiteral:
		return map[string]interface{}{elemTypeKey: ast.FloatElem, valKey: n.Value}

	case *ast.StringLiteral:
		return map[string]interface{}{elemTypeKey: ast.StringElem, valKey: n.Value}

	default:
		return map[string]interface{}{
			elemTypeKey: "unknown",
			"node":      fmt.Sprintf("%T", node),
		}
	}
}

func walkStatements(statements []ast.Statement) []interface{} {
	out := make([]interface{}, len(statements))
	for i, s := range statements {
		out[i] = WalkAST(s)
	}
	return out
}

func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %v", err)
	}
	return buf.String(), nil
}

// WriteASTToJSON renders the tree next to the program as <filename>.
func WriteASTToJSON(node ast.Node, filename string) error {
	rendered, err := RenderASTAsJSON(node)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("failed to write AST to '%s': %w", filename, err)
	}
	return nil
}
