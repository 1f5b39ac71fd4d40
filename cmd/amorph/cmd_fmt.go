package main

import (
	"github.com/amorph-lang/amorph/pkg/ast"
	"github.com/amorph-lang/amorph/pkg/canon"
)

func cmdFmt(o fmtOpts) error {
	if len(o.Files) != 1 {
		return usageErr("fmt: expected exactly one program file")
	}
	prog, err := loadProgram(o.Files[0])
	if err != nil {
		return err
	}
	out := canon.Pretty(prog)
	dest := ""
	if o.InPlace {
		dest = o.Files[0]
	}
	if err := writeOutput(dest, out); err != nil {
		return usageErr("fmt: writing output: %s", err)
	}
	return nil
}

func cmdMinify(o fmtOpts) error {
	if len(o.Files) != 1 {
		return usageErr("minify: expected exactly one program file")
	}
	prog, err := loadProgram(o.Files[0])
	if err != nil {
		return err
	}
	out, err := canon.Minify(prog)
	if err != nil {
		return staticErr("minify: %s", err)
	}
	dest := ""
	if o.InPlace {
		dest = o.Files[0]
	}
	if err := writeOutput(dest, out); err != nil {
		return usageErr("minify: writing output: %s", err)
	}
	return nil
}

func cmdUnminify(o fmtOpts) error {
	if len(o.Files) != 1 {
		return usageErr("unminify: expected exactly one minified program file")
	}
	data, err := readInput(o.Files[0])
	if err != nil {
		return usageErr("unminify: reading %s: %s", displayPath(o.Files[0]), err)
	}
	prog, err := canon.Unminify(data)
	if err != nil {
		return staticErr("unminify: %s", err)
	}
	out := canon.Pretty(prog)
	dest := ""
	if o.InPlace {
		dest = o.Files[0]
	}
	if err := writeOutput(dest, out); err != nil {
		return usageErr("unminify: writing output: %s", err)
	}
	return nil
}

func cmdPack(o codecOpts) error {
	if len(o.Files) != 1 {
		return usageErr("pack: expected exactly one program file")
	}
	prog, err := loadProgram(o.Files[0])
	if err != nil {
		return err
	}

	format := o.Format
	if format == "" {
		format = "cbor"
	}

	var out []byte
	switch format {
	case "cbor":
		out, err = canon.Pack(prog)
	case "json":
		out, err = canon.Minify(prog)
	default:
		return usageErr("pack: unknown --format %q (want cbor or json)", format)
	}
	if err != nil {
		return staticErr("pack: %s", err)
	}
	if err := writeOutput(o.Out, out); err != nil {
		return usageErr("pack: writing output: %s", err)
	}
	return nil
}

func cmdUnpack(o codecOpts) error {
	if len(o.Files) != 1 {
		return usageErr("unpack: expected exactly one packed program file")
	}
	data, err := readInput(o.Files[0])
	if err != nil {
		return usageErr("unpack: reading %s: %s", displayPath(o.Files[0]), err)
	}

	format := o.Format
	if format == "" {
		format = "cbor"
	}

	var prog *ast.Program
	switch format {
	case "cbor":
		prog, err = canon.Unpack(data)
	case "json":
		prog, err = canon.Unminify(data)
	default:
		return usageErr("unpack: unknown --format %q (want cbor or json)", format)
	}
	if err != nil {
		return staticErr("unpack: %s", err)
	}

	if err := writeOutput(o.Out, canon.Pretty(prog)); err != nil {
		return usageErr("unpack: writing output: %s", err)
	}
	return nil
}
