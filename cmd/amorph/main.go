// Command amorph is the thin CLI front-end over the Amorph core
// packages (pkg/vm, pkg/validate, pkg/scope, pkg/types, pkg/canon,
// pkg/edit, pkg/rewrite): it parses flags, loads a program file, calls
// into the core, and prints the result — the same "goptions verb
// struct, ansi-colored human output, --json for machines" shape as
// graft's own cmd/graft/main.go, retargeted from merging YAML
// documents to running/analyzing/transforming Amorph programs.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/starkandwayne/goutils/ansi"
	"github.com/voxelbrain/goptions"

	"github.com/amorph-lang/amorph/internal/alog"
	"github.com/amorph-lang/amorph/internal/config"
)

// Version is set at build time in a release; left as "(development)"
// for a plain `go build`.
var Version = "(development)"

var getopts = func(o interface{}) {
	if err := goptions.Parse(o); err != nil {
		usage()
	}
}

var exit = func(code int) { os.Exit(code) }

var usage = func() {
	goptions.PrintHelp()
	exit(2)
}

type runOpts struct {
	Trace      bool               `goptions:"--trace, description='Emit NDJSON trace events to stderr'"`
	TraceJSON  bool               `goptions:"--trace-json, description='Alias of --trace (trace is always NDJSON)'"`
	TraceNats  string             `goptions:"--trace-nats, description='Also publish trace events to this NATS URL'"`
	Quiet      bool               `goptions:"--quiet, description='Discard stdout and trace output'"`
	DenyInput  bool               `goptions:"--deny-input, description='Deny the input operator'"`
	DenyPrint  bool               `goptions:"--deny-print, description='Deny print statements'"`
	RichErrors bool               `goptions:"--rich-errors, description='Attach path/call-stack/excerpt context to runtime errors'"`
	Help       bool               `goptions:"--help, -h"`
	Files      goptions.Remainder `goptions:"description='Program file to run'"`
}

type validateOpts struct {
	JSON        bool               `goptions:"--json, description='Emit {ok, issues} JSON instead of human text'"`
	CheckTypes  bool               `goptions:"--check-types, description='Also run the type inferencer'"`
	CheckScopes bool               `goptions:"--check-scopes, description='Also run the scope analyzer'"`
	Help        bool               `goptions:"--help, -h"`
	Files       goptions.Remainder `goptions:"description='Program file to validate'"`
}

type fmtOpts struct {
	InPlace bool               `goptions:"-i, description='Write canonical form back to the file instead of stdout'"`
	Help    bool               `goptions:"--help, -h"`
	Files   goptions.Remainder `goptions:"description='Program file to canonicalize'"`
}

type codecOpts struct {
	Out    string             `goptions:"-o, description='Output file (default: stdout)'"`
	Format string             `goptions:"--format, description='cbor or json (pack/unpack only, default cbor)'"`
	Help   bool               `goptions:"--help, -h"`
	Files  goptions.Remainder `goptions:"description='Program file'"`
}

type editOpts struct {
	DryRun bool               `goptions:"--dry-run, description='Report the diff without writing'"`
	Help   bool               `goptions:"--help, -h"`
	Files  goptions.Remainder `goptions:"description='<program> <edits>'"`
}

type rewriteOpts struct {
	DryRun bool               `goptions:"--dry-run, description='Report the diff without writing'"`
	Limit  int                `goptions:"--limit, description='Maximum total replacements (0 = unbounded)'"`
	Help   bool               `goptions:"--help, -h"`
	Files  goptions.Remainder `goptions:"description='<program> <rules>'"`
}

type addUIDOpts struct {
	InPlace bool               `goptions:"-i, description='Write back to the file instead of stdout'"`
	Deep    bool               `goptions:"--deep, description='Also stamp ids inside nested def bodies and if branches'"`
	Help    bool               `goptions:"--help, -h"`
	Files   goptions.Remainder `goptions:"description='Program file'"`
}

type migrateOpts struct {
	To      string             `goptions:"--to, description='Target call style: id or name'"`
	InPlace bool               `goptions:"-i, description='Write back to each file instead of stdout (required when more than one file is given, unless --dry-run)'"`
	DryRun  bool               `goptions:"--dry-run, description='Report what would change without writing'"`
	Help    bool               `goptions:"--help, -h"`
	Files   goptions.Remainder `goptions:"description='Program file(s)'"`
}

type suggestOpts struct {
	JSON  bool               `goptions:"--json, description='Emit suggestions as JSON'"`
	Help  bool               `goptions:"--help, -h"`
	Files goptions.Remainder `goptions:"description='Program file'"`
}

func envFlag(name string) bool {
	v := os.Getenv(name)
	return v != "" && strings.ToLower(v) != "false" && v != "0"
}

func main() {
	var options struct {
		Debug   bool   `goptions:"-D, --debug, description='Enable debug logging'"`
		Version bool   `goptions:"-v, --version, description='Display version information'"`
		Color   string `goptions:"--color, description='on/off/auto (default: auto)'"`
		Config  string `goptions:"--config, description='Path to a .amorph.toml config file'"`
		Action  goptions.Verbs
		Run     runOpts      `goptions:"run"`
		Validate validateOpts `goptions:"validate"`
		Fmt     fmtOpts      `goptions:"fmt"`
		Minify  fmtOpts      `goptions:"minify"`
		Unminify fmtOpts     `goptions:"unminify"`
		Pack    codecOpts    `goptions:"pack"`
		Unpack  codecOpts    `goptions:"unpack"`
		Edit    editOpts     `goptions:"edit"`
		Rewrite rewriteOpts  `goptions:"rewrite"`
		AddUID  addUIDOpts   `goptions:"add-uid"`
		Migrate migrateOpts  `goptions:"migrate-calls"`
		Suggest suggestOpts  `goptions:"suggest"`
	}
	getopts(&options)

	if envFlag("AMORPH_DEBUG") || options.Debug {
		alog.SetLevel(alog.LevelDebug)
	}

	if options.Version {
		fmt.Fprintf(os.Stdout, "amorph - Version %s\n", Version)
		exit(0)
		return
	}

	switch options.Color {
	case "on":
		ansi.Color(true)
	case "off":
		ansi.Color(false)
	default:
		ansi.Color(isatty.IsTerminal(os.Stderr.Fd()))
	}

	cfg, err := config.Load(options.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, ansi.Sprintf("@R{config error}: %s", err))
		exit(2)
		return
	}
	if options.Color == "" {
		switch cfg.Color {
		case "on":
			ansi.Color(true)
		case "off":
			ansi.Color(false)
		}
	}

	var runErr error
	switch options.Action {
	case "run":
		runErr = cmdRun(options.Run, cfg)
	case "validate":
		runErr = cmdValidate(options.Validate, cfg)
	case "fmt":
		runErr = cmdFmt(options.Fmt)
	case "minify":
		runErr = cmdMinify(options.Minify)
	case "unminify":
		runErr = cmdUnminify(options.Unminify)
	case "pack":
		runErr = cmdPack(options.Pack)
	case "unpack":
		runErr = cmdUnpack(options.Unpack)
	case "edit":
		runErr = cmdEdit(options.Edit)
	case "rewrite":
		runErr = cmdRewrite(options.Rewrite)
	case "add-uid":
		runErr = cmdAddUID(options.AddUID)
	case "migrate-calls":
		runErr = cmdMigrateCalls(options.Migrate)
	case "suggest":
		runErr = cmdSuggest(options.Suggest, cfg)
	default:
		usage()
		return
	}

	if runErr != nil {
		if ce, ok := runErr.(*cliError); ok {
			if ce.msg != "" {
				fmt.Fprintln(os.Stderr, ansi.Sprintf("@R{%s}", ce.Error()))
			}
			exit(ce.code)
			return
		}
		fmt.Fprintln(os.Stderr, ansi.Sprintf("@R{%s}", runErr.Error()))
		exit(1)
		return
	}
	exit(0)
}

// cliError carries the process exit code alongside the message, per
// spec.md §7: 1 for static/runtime errors, 2 for usage/I/O errors.
type cliError struct {
	code int
	msg  string
}

func (e *cliError) Error() string { return e.msg }

func usageErr(format string, args ...interface{}) error {
	return &cliError{code: 2, msg: fmt.Sprintf(format, args...)}
}

func staticErr(format string, args ...interface{}) error {
	return &cliError{code: 1, msg: fmt.Sprintf(format, args...)}
}
