package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/amorph-lang/amorph/pkg/ast"
)

// readInput reads path, or stdin when path is "-" or empty.
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// loadProgram reads path and parses it as an Amorph program. YAML
// files (.yaml/.yml) are decoded into the same generic tree JSON would
// produce and handed to ast.Parse unchanged; everything else is
// treated as JSON. This mirrors graft's own willingness to accept
// either document syntax at the file-loading boundary, scoped here to
// Amorph's program shape instead of a merge document.
func loadProgram(path string) (*ast.Program, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, usageErr("reading %s: %s", displayPath(path), err)
	}
	if isYAMLPath(path) {
		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, usageErr("parsing YAML %s: %s", displayPath(path), err)
		}
		data, err = yamlToJSON(generic)
		if err != nil {
			return nil, usageErr("converting YAML %s: %s", displayPath(path), err)
		}
	}
	prog, err := ast.Parse(data)
	if err != nil {
		return nil, staticErr("%s: %s", displayPath(path), err)
	}
	return prog, nil
}

func isYAMLPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

func displayPath(path string) string {
	if path == "" || path == "-" {
		return "<stdin>"
	}
	return path
}

// yamlToJSON round-trips a yaml.v3-decoded tree through JSON encoding
// so map[string]interface{} keys and int/float/bool/string leaves end
// up in exactly the shape ast.Parse expects (yaml.v3 already decodes
// mapping nodes as map[string]interface{} when the keys are strings,
// but this keeps the two loading paths provably identical).
func yamlToJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
