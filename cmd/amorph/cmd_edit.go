package main

import (
	"fmt"
	"os"

	"github.com/amorph-lang/amorph/pkg/canon"
	"github.com/amorph-lang/amorph/pkg/edit"
	"github.com/amorph-lang/amorph/pkg/rewrite"
)

func cmdEdit(o editOpts) error {
	if len(o.Files) != 2 {
		return usageErr("edit: expected <program> <edits>")
	}
	prog, err := loadProgram(o.Files[0])
	if err != nil {
		return err
	}
	editsData, err := readInput(o.Files[1])
	if err != nil {
		return usageErr("edit: reading %s: %s", displayPath(o.Files[1]), err)
	}
	ops, err := edit.ParseOps(editsData)
	if err != nil {
		return staticErr("edit: %s", err)
	}

	result, rep, err := edit.Apply(prog, ops, o.DryRun)
	if err != nil {
		return staticErr("edit: %s", err)
	}

	for _, r := range rep.Results {
		fmt.Fprintf(os.Stderr, "applied %s: %s\n", r.Op, r.Detail)
	}
	if rep.Diff != "" {
		fmt.Fprintln(os.Stderr, rep.Diff)
	}

	if o.DryRun {
		return nil
	}
	fmt.Fprint(os.Stdout, string(canon.Pretty(result)))
	return nil
}

func cmdRewrite(o rewriteOpts) error {
	if len(o.Files) != 2 {
		return usageErr("rewrite: expected <program> <rules>")
	}
	prog, err := loadProgram(o.Files[0])
	if err != nil {
		return err
	}
	rulesData, err := readInput(o.Files[1])
	if err != nil {
		return usageErr("rewrite: reading %s: %s", displayPath(o.Files[1]), err)
	}
	rules, err := rewrite.ParseRules(rulesData)
	if err != nil {
		return staticErr("rewrite: %s", err)
	}

	result, rep, err := rewrite.Apply(prog, rules, o.Limit)
	if err != nil {
		return staticErr("rewrite: %s", err)
	}

	fmt.Fprintf(os.Stderr, "%d replacement(s) over %d pass(es)\n", rep.Replacements, rep.Passes)
	for _, w := range rep.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if o.DryRun {
		return nil
	}
	fmt.Fprint(os.Stdout, string(canon.Pretty(result)))
	return nil
}
