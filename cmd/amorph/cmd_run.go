package main

import (
	"fmt"
	"io"
	"os"

	"github.com/amorph-lang/amorph/internal/config"
	"github.com/amorph-lang/amorph/internal/tracesink"
	"github.com/amorph-lang/amorph/pkg/ast"
	"github.com/amorph-lang/amorph/pkg/vm"
)

func cmdRun(o runOpts, cfg *config.Config) error {
	if len(o.Files) != 1 {
		return usageErr("run: expected exactly one program file")
	}
	prog, err := loadProgram(o.Files[0])
	if err != nil {
		return err
	}

	var backend vm.Backend
	if o.Quiet {
		backend = vm.NewQuietBackend()
	} else {
		var traceOut io.Writer
		if o.Trace || o.TraceJSON || cfg.Trace.Enabled {
			traceOut = os.Stderr
		}
		backend = vm.NewStdBackend(os.Stdout, os.Stdin, traceOut)
	}

	natsURL := o.TraceNats
	if natsURL == "" {
		natsURL = cfg.Trace.NatsURL
	}
	if natsURL != "" {
		subject := cfg.Trace.Subject
		if subject == "" {
			subject = "amorph.trace"
		}
		nb, err := tracesink.Dial(natsURL, subject, backend)
		if err != nil {
			return staticErr("run: %s", err)
		}
		defer nb.Close()
		backend = nb
	}

	opts := vm.Options{
		Trace:      o.Trace || o.TraceJSON || cfg.Trace.Enabled,
		RichErrors: o.RichErrors || cfg.Trace.RichErrs,
		DenyInput:  o.DenyInput || cfg.Capabilities.DenyInput,
		DenyPrint:  o.DenyPrint || cfg.Capabilities.DenyPrint,
	}

	machine := vm.New(prog, backend, opts)
	if _, err := machine.Run(); err != nil {
		if re, ok := err.(*ast.RuntimeError); ok {
			return staticErr("%s", describeRuntimeError(re))
		}
		return staticErr("%s", err)
	}
	return nil
}

func describeRuntimeError(re *ast.RuntimeError) string {
	msg := fmt.Sprintf("%s: %s", re.Code, re.Message)
	if re.Path == "" {
		return msg
	}
	detail := fmt.Sprintf("%s\n  at %s", msg, re.Path)
	if len(re.CallStack) > 0 {
		detail += fmt.Sprintf("\n  call stack: %v", re.CallStack)
	}
	if re.Excerpt != "" {
		detail += fmt.Sprintf("\n  %s", re.Excerpt)
	}
	return detail
}
