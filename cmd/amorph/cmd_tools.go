package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/amorph-lang/amorph/internal/config"
	"github.com/amorph-lang/amorph/internal/errs"
	"github.com/amorph-lang/amorph/pkg/ast"
	"github.com/amorph-lang/amorph/pkg/canon"
	"github.com/amorph-lang/amorph/pkg/ops"
	"github.com/amorph-lang/amorph/pkg/validate"
)

// --- add-uid -----------------------------------------------------------

// idStamper hands out sequential ids: fn_<n> for function definitions,
// n_<n> for every other statement, as SPEC_FULL.md §4 specifies.
type idStamper struct {
	nextFn, nextStmt int
}

func (s *idStamper) next(key string) string {
	if key == "def" {
		s.nextFn++
		return fmt.Sprintf("fn_%d", s.nextFn)
	}
	s.nextStmt++
	return fmt.Sprintf("n_%d", s.nextStmt)
}

// stamp walks stmts, assigning an id to every statement that lacks
// one. deep also descends into def bodies and if-branch bodies.
func (s *idStamper) stamp(stmts []interface{}, deep bool) int {
	count := 0
	for _, stmt := range stmts {
		m, isMap := stmt.(map[string]interface{})
		if !isMap {
			continue
		}
		id, key, payload, ok := ast.Discriminator(stmt)
		if !ok {
			continue
		}
		if id == "" {
			m["id"] = s.next(key)
			count++
		}
		if !deep {
			continue
		}
		switch key {
		case "def":
			if body, has := ast.Field(payload, "body"); has {
				if seq, ok := body.([]interface{}); ok {
					count += s.stamp(seq, deep)
				}
			}
		case "if":
			if then, has := ast.Field(payload, "then"); has {
				if seq, ok := then.([]interface{}); ok {
					count += s.stamp(seq, deep)
				}
			}
			if els, has := ast.Field(payload, "else"); has {
				if seq, ok := els.([]interface{}); ok {
					count += s.stamp(seq, deep)
				}
			}
		}
	}
	return count
}

func cmdAddUID(o addUIDOpts) error {
	if len(o.Files) == 0 {
		return usageErr("add-uid: expected at least one program file")
	}
	if len(o.Files) > 1 && !o.InPlace {
		return usageErr("add-uid: -i is required when more than one file is given")
	}

	// Batch mode: a failure on one file must not stop the others — the
	// same "accumulate, report together" discipline as graft's own
	// MultiError, rather than aborting on the first bad file.
	var multi errs.MultiError
	for _, path := range o.Files {
		if err := addUIDOne(path, o); err != nil {
			multi.Append(fmt.Errorf("%s: %w", displayPath(path), err))
		}
	}
	if err := multi.OrNil(); err != nil {
		return staticErr("%s", err)
	}
	return nil
}

func addUIDOne(path string, o addUIDOpts) error {
	prog, err := loadProgram(path)
	if err != nil {
		return err
	}
	s := &idStamper{}
	n := s.stamp(prog.Body, o.Deep)
	fmt.Fprintf(os.Stderr, "%s: stamped %d id(s)\n", displayPath(path), n)

	dest := ""
	if o.InPlace {
		dest = path
	}
	return writeOutput(dest, canon.Pretty(prog))
}

// --- migrate-calls -------------------------------------------------------

type callSymbol struct {
	name, id string
}

func buildCallSymbols(prog *ast.Program) []callSymbol {
	var syms []callSymbol
	for _, stmt := range prog.Body {
		id, key, payload, ok := ast.Discriminator(stmt)
		if !ok || key != "def" {
			continue
		}
		name, _ := ast.Field(payload, "name")
		n, _ := name.(string)
		syms = append(syms, callSymbol{name: n, id: id})
	}
	return syms
}

func cmdMigrateCalls(o migrateOpts) error {
	if len(o.Files) == 0 {
		return usageErr("migrate-calls: expected at least one program file")
	}
	if len(o.Files) > 1 && !o.InPlace && !o.DryRun {
		return usageErr("migrate-calls: -i is required when more than one file is given")
	}
	if o.To != "id" && o.To != "name" {
		return usageErr("migrate-calls: --to must be 'id' or 'name'")
	}

	var multi errs.MultiError
	for _, path := range o.Files {
		if err := migrateCallsOne(path, o); err != nil {
			multi.Append(fmt.Errorf("%s: %w", displayPath(path), err))
		}
	}
	if err := multi.OrNil(); err != nil {
		return staticErr("%s", err)
	}
	return nil
}

func migrateCallsOne(path string, o migrateOpts) error {
	prog, err := loadProgram(path)
	if err != nil {
		return err
	}
	syms := buildCallSymbols(prog)
	byName := map[string]string{}
	byID := map[string]string{}
	for _, s := range syms {
		if s.name != "" && s.id != "" {
			byName[s.name] = s.id
			byID[s.id] = s.name
		}
	}

	changed, left := 0, 0
	prog.Walk(func(path *ast.Path, n ast.Node) bool {
		_, key, payload, ok := ast.Discriminator(n)
		if !ok || key != "call" {
			return true
		}
		m, isMap := payload.(map[string]interface{})
		if !isMap {
			return true
		}
		switch o.To {
		case "id":
			if name, ok := m["name"].(string); ok {
				if id, resolvable := byName[name]; resolvable {
					delete(m, "name")
					m["id"] = id
					changed++
					return true
				}
				left++
			}
		case "name":
			if id, ok := m["id"].(string); ok {
				if name, resolvable := byID[id]; resolvable {
					delete(m, "id")
					m["name"] = name
					changed++
					return true
				}
				left++
			}
		}
		return true
	})

	fmt.Fprintf(os.Stderr, "%s: migrated %d call(s), %d left unresolved\n", displayPath(path), changed, left)
	if o.DryRun {
		return nil
	}
	dest := ""
	if o.InPlace {
		dest = path
	}
	return writeOutput(dest, canon.Pretty(prog))
}

// --- suggest -------------------------------------------------------------

// Suggestion is one entry in the `suggest` command's read-only advisory
// report.
type Suggestion struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func cmdSuggest(o suggestOpts, cfg *config.Config) error {
	if len(o.Files) != 1 {
		return usageErr("suggest: expected exactly one program file")
	}
	prog, err := loadProgram(o.Files[0])
	if err != nil {
		return err
	}

	var suggestions []Suggestion
	suggestions = append(suggestions, missingIDSuggestions(prog)...)
	suggestions = append(suggestions, renameToIDSuggestions(prog)...)
	suggestions = append(suggestions, extractFunctionSuggestions(prog)...)

	if o.JSON {
		out, _ := json.MarshalIndent(suggestions, "", jsonIndent(cfg))
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(os.Stdout, "no suggestions")
		return nil
	}
	for _, s := range suggestions {
		fmt.Fprintf(os.Stdout, "[%s] %s: %s\n", s.Kind, s.Path, s.Message)
	}
	return nil
}

func missingIDSuggestions(prog *ast.Program) []Suggestion {
	var out []Suggestion
	var walk func(stmts []interface{}, base *ast.Path)
	walk = func(stmts []interface{}, base *ast.Path) {
		for i, stmt := range stmts {
			path := base.Copy().PushIndex(i)
			id, key, payload, ok := ast.Discriminator(stmt)
			if !ok {
				continue
			}
			if id == "" {
				out = append(out, Suggestion{Kind: "missing-id", Path: path.String(), Message: fmt.Sprintf("%s statement has no stable id", key)})
			}
			switch key {
			case "def":
				if body, has := ast.Field(payload, "body"); has {
					if seq, ok := body.([]interface{}); ok {
						walk(seq, path.Copy().Push(key).Push("body"))
					}
				}
			case "if":
				if then, has := ast.Field(payload, "then"); has {
					if seq, ok := then.([]interface{}); ok {
						walk(seq, path.Copy().Push(key).Push("then"))
					}
				}
				if els, has := ast.Field(payload, "else"); has {
					if seq, ok := els.([]interface{}); ok {
						walk(seq, path.Copy().Push(key).Push("else"))
					}
				}
			}
		}
	}
	walk(prog.Body, ast.Root())
	return out
}

func renameToIDSuggestions(prog *ast.Program) []Suggestion {
	vr := validate.Validate(prog, ops.Default)
	var out []Suggestion
	for _, d := range vr.Diagnostics {
		if d.Code == ast.WCodePreferID {
			out = append(out, Suggestion{Kind: "rename-to-id", Path: d.Path, Message: d.Message})
		}
	}
	return out
}

// extractFunctionSuggestions looks for runs of 3+ consecutive
// statements, in the same function body, that are structurally equal
// up to variable renaming, and appear more than once — a naive
// extract-function candidate per SPEC_FULL.md §4.
func extractFunctionSuggestions(prog *ast.Program) []Suggestion {
	var out []Suggestion
	bodies := map[string][]interface{}{"/": prog.Body}
	for _, def := range prog.FunctionDefs() {
		_, _, payload, ok := ast.Discriminator(def.Node)
		if !ok {
			continue
		}
		body, _ := ast.Field(payload, "body")
		seq, ok := body.([]interface{})
		if !ok {
			continue
		}
		name, _ := ast.Field(payload, "name")
		label := fmt.Sprintf("fn[%v]", name)
		bodies[label] = seq
	}

	const windowSize = 3
	for label, stmts := range bodies {
		if len(stmts) < windowSize*2 {
			continue
		}
		seen := map[string]int{}
		for i := 0; i+windowSize <= len(stmts); i++ {
			sig := normalizeWindow(stmts[i : i+windowSize])
			seen[sig]++
		}
		keys := make([]string, 0, len(seen))
		for k := range seen {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, sig := range keys {
			if seen[sig] > 1 {
				out = append(out, Suggestion{
					Kind:    "extract-function",
					Path:    label,
					Message: fmt.Sprintf("a %d-statement run repeats %d times (up to variable renaming); consider extract_function", windowSize, seen[sig]),
				})
			}
		}
	}
	return out
}

// normalizeWindow renders a statement window to a string with every
// distinct variable name replaced by a position-assigned placeholder,
// so two windows that differ only by variable naming compare equal.
func normalizeWindow(stmts []interface{}) string {
	mapping := map[string]string{}
	renamed := make([]interface{}, len(stmts))
	for i, s := range stmts {
		renamed[i] = renameVars(s, mapping)
	}
	b, _ := json.Marshal(renamed)
	return string(b)
}

func renameVars(n ast.Node, mapping map[string]string) ast.Node {
	switch v := n.(type) {
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = renameVars(e, mapping)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = renameVars(e, mapping)
		}
		if key, payload, ok := singleKey(out); ok && key == "var" {
			if s, ok := payload.(string); ok {
				out["var"] = placeholderFor(s, mapping)
			}
		}
		if name, ok := out["name"].(string); ok {
			if _, isLetOrSet := out["value"]; isLetOrSet {
				out["name"] = placeholderFor(name, mapping)
			}
		}
		return out
	default:
		return v
	}
}

func singleKey(m map[string]interface{}) (key string, payload interface{}, ok bool) {
	nonID := 0
	for k, v := range m {
		if k == "id" {
			continue
		}
		nonID++
		key, payload = k, v
	}
	return key, payload, nonID == 1
}

func placeholderFor(name string, mapping map[string]string) string {
	if p, ok := mapping[name]; ok {
		return p
	}
	p := fmt.Sprintf("_v%d", len(mapping))
	mapping[name] = p
	return p
}
