// 13 Oct 2026

// Package nmrxlate is the command line program. It is a package so
// tests can call Mymain.
package nmrxlate

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/andrew-torda/nmr_xlate/atomname"
	"github.com/andrew-torda/nmr_xlate/ccd"
	"github.com/andrew-torda/nmr_xlate/dict"
	"github.com/andrew-torda/nmr_xlate/internal/config"
	. "github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/xlate"
)

const usageText = `usage: nmrxlate [-c config] command args
commands:
  translate [-json] in.nef out.str    translate NEF to NMR-STAR
  validate [-t all|shifts|restraints] [-json] file
  ccdload components.cif store.sqlite load residue definitions
  resolve [-aux aux.cif] model.cif in.nef
                                      find the atoms of a NEF file in a model
`

// env is what every command needs.
type env struct {
	cfg            *config.Config
	logger         *log.Logger
	stdout, stderr io.Writer
	closers        []io.Closer
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i].Close()
	}
}

// names makes the atom name resolver, with the residue dictionary if
// the config names one.
func (e *env) names(tables *dict.Tables) (*atomname.Resolver, error) {
	var acc ccd.Accessor
	switch {
	case e.cfg.CCD.Store != "":
		s, err := ccd.OpenStore(context.Background(), e.cfg.CCD.Store)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, s)
		acc = s
	case e.cfg.CCD.Components != "":
		m, err := ccd.NewMemAccessorFromFile(e.cfg.CCD.Components)
		if err != nil {
			return nil, err
		}
		acc = m
	}
	if acc == nil {
		return atomname.New(tables, nil), nil
	}
	return atomname.New(tables, ccd.NewCache(acc, e.logger)), nil
}

func (e *env) translator() (*xlate.Translator, error) {
	tables := dict.Load(e.cfg.Dict, e.logger)
	names, err := e.names(tables)
	if err != nil {
		return nil, err
	}
	t, err := xlate.New(tables, names, e.logger)
	if err != nil {
		return nil, err
	}
	t.MaxExpand = e.cfg.MaxExpand
	return t, nil
}

// printReport writes the report as JSON or as one line per message.
func (e *env) printReport(rep *xlate.Report, asJSON bool) {
	if asJSON {
		b, err := rep.JSON()
		if err != nil {
			fmt.Fprintln(e.stderr, err)
			return
		}
		fmt.Fprintln(e.stdout, string(b))
		return
	}
	fmt.Fprintln(e.stdout, "file type:", rep.FileType)
	for _, s := range rep.Info {
		fmt.Fprintln(e.stdout, "info:", s)
	}
	for _, s := range rep.Warning {
		fmt.Fprintln(e.stdout, "warning:", s)
	}
	for _, s := range rep.Error {
		fmt.Fprintln(e.stdout, "error:", s)
	}
}

func exitFor(ok bool) int {
	if ok {
		return ExitSuccess
	}
	return ExitFailure
}

func (e *env) newFlagSet(name, args string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(e.stderr)
	f.Usage = func() {
		fmt.Fprintln(e.stderr, "usage: nmrxlate", name, args)
		f.PrintDefaults()
	}
	return f
}

func (e *env) translate(args []string) int {
	f := e.newFlagSet("translate", "[-json] in.nef out.str")
	asJSON := f.Bool("json", false, "print the report as JSON")
	if err := f.Parse(args); err != nil {
		return ExitUsageError
	}
	if f.NArg() != 2 {
		f.Usage()
		return ExitUsageError
	}
	t, err := e.translator()
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return ExitFailure
	}
	ok, rep := t.TranslateFile(f.Arg(0), f.Arg(1))
	e.printReport(rep, *asJSON)
	return exitFor(ok)
}

func (e *env) validate(args []string) int {
	f := e.newFlagSet("validate", "[-t all|shifts|restraints] [-json] file")
	asJSON := f.Bool("json", false, "print the report as JSON")
	subS := f.String("t", "all", "which loops to check: all, shifts or restraints")
	if err := f.Parse(args); err != nil {
		return ExitUsageError
	}
	sub, err := xlate.ParseSubtype(*subS)
	if err != nil || f.NArg() != 1 {
		if err != nil {
			fmt.Fprintln(e.stderr, err)
		}
		f.Usage()
		return ExitUsageError
	}
	t, err := e.translator()
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return ExitFailure
	}
	ok, rep := t.ValidateFile(f.Arg(0), sub)
	e.printReport(rep, *asJSON)
	return exitFor(ok)
}

func (e *env) ccdload(args []string) int {
	f := e.newFlagSet("ccdload", "components.cif store.sqlite")
	if err := f.Parse(args); err != nil {
		return ExitUsageError
	}
	if f.NArg() != 2 {
		f.Usage()
		return ExitUsageError
	}
	m, err := ccd.NewMemAccessorFromFile(f.Arg(0))
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return ExitFailure
	}
	ctx := context.Background()
	s, err := ccd.OpenStore(ctx, f.Arg(1))
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return ExitFailure
	}
	defer s.Close()
	if err := s.Load(ctx, m.Components()); err != nil {
		fmt.Fprintln(e.stderr, err)
		return ExitFailure
	}
	n, err := s.Count(ctx)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return ExitFailure
	}
	fmt.Fprintln(e.stdout, "read", m.Len(), "components,", n, "in", f.Arg(1))
	return ExitSuccess
}

// Mymain runs the program. args do not include the program name.
func Mymain(args []string, stdout, stderr io.Writer) int {
	f := flag.NewFlagSet("nmrxlate", flag.ContinueOnError)
	f.SetOutput(stderr)
	f.Usage = func() {
		fmt.Fprint(stderr, usageText)
		f.PrintDefaults()
	}
	cfgPath := f.String("c", "", "config file (default $"+config.EnvConfigPath+" or ./"+config.ConfigFileName+")")
	if err := f.Parse(args); err != nil {
		return ExitUsageError
	}
	if f.NArg() < 1 {
		f.Usage()
		return ExitUsageError
	}
	var cfg *config.Config
	var err error
	if *cfgPath != "" {
		cfg, _, err = config.LoadFromPath(*cfgPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitFailure
	}
	logger, closer, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitFailure
	}
	e := &env{cfg: cfg, logger: logger, stdout: stdout, stderr: stderr, closers: []io.Closer{closer}}
	defer e.close()

	cmd, rest := f.Arg(0), f.Args()[1:]
	switch strings.ToLower(cmd) {
	case "translate":
		return e.translate(rest)
	case "validate":
		return e.validate(rest)
	case "ccdload":
		return e.ccdload(rest)
	case "resolve":
		return e.resolve(rest)
	}
	fmt.Fprintln(stderr, "unknown command", strconv.Quote(cmd))
	f.Usage()
	return ExitUsageError
}
