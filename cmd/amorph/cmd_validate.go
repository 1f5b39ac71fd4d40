package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/starkandwayne/goutils/ansi"

	"github.com/amorph-lang/amorph/internal/config"
	"github.com/amorph-lang/amorph/pkg/ast"
	"github.com/amorph-lang/amorph/pkg/ops"
	"github.com/amorph-lang/amorph/pkg/scope"
	"github.com/amorph-lang/amorph/pkg/types"
	"github.com/amorph-lang/amorph/pkg/validate"
)

// diagnosticsJSON is the §6 wire shape: {ok, issues: [...]}.
type diagnosticsJSON struct {
	OK     bool             `json:"ok"`
	Issues []ast.Diagnostic `json:"issues"`
}

// jsonIndent renders the config's canonical indent width as the
// repeated-space prefix json.MarshalIndent expects.
func jsonIndent(cfg *config.Config) string {
	n := 2
	if cfg != nil && cfg.Format.IndentWidth > 0 {
		n = cfg.Format.IndentWidth
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}

func cmdValidate(o validateOpts, cfg *config.Config) error {
	if len(o.Files) != 1 {
		return usageErr("validate: expected exactly one program file")
	}
	prog, err := loadProgram(o.Files[0])
	if err != nil {
		return err
	}

	var all []ast.Diagnostic
	vr := validate.Validate(prog, ops.Default)
	all = append(all, vr.Diagnostics...)
	ok := vr.OK()

	if o.CheckScopes {
		sr := scope.Analyze(prog)
		all = append(all, sr.Diagnostics...)
		ok = ok && sr.OK()
	}
	if o.CheckTypes {
		tr := types.Infer(prog)
		all = append(all, tr.Diagnostics...)
		ok = ok && tr.OK()
	}

	if o.JSON {
		out, _ := json.MarshalIndent(diagnosticsJSON{OK: ok, Issues: all}, "", jsonIndent(cfg))
		fmt.Fprintln(os.Stdout, string(out))
		if !ok {
			return &cliError{code: 1, msg: ""}
		}
		return nil
	}

	if ok && len(all) == 0 {
		fmt.Fprintln(os.Stdout, "OK")
		return nil
	}
	for _, d := range all {
		printHumanDiagnostic(d)
	}
	if !ok {
		return &cliError{code: 1, msg: fmt.Sprintf("Invalid: %d issue(s)", len(all))}
	}
	fmt.Fprintln(os.Stdout, "OK")
	return nil
}

func printHumanDiagnostic(d ast.Diagnostic) {
	tag := "@y{warning}"
	if d.Severity == ast.SeverityError {
		tag = "@r{error}"
	}
	line := ansi.Sprintf("%s [%s] %s: %s", tag, d.Code, d.Path, d.Message)
	if d.Hint != "" {
		line += ansi.Sprintf(" @K{(hint: %s)}", d.Hint)
	}
	fmt.Fprintln(os.Stderr, line)
}
