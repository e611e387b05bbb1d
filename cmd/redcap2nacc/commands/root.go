package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	nacc "github.com/SimonDaKappa/go-nacc"
)

// app holds the state of one command tree: the run config being built
// from flags and the catalog and logger set up before any command runs.
type app struct {
	configPath string
	cfg        nacc.RunConfig
	catalog    *nacc.Catalog
	logger     nacc.Logger

	sessions map[string]*bool
	modules  map[string]*bool
}

func newApp() *app {
	a := &app{
		cfg:      nacc.DefaultRunConfig(),
		logger:   nacc.NopLogger(),
		sessions: make(map[string]*bool, len(sessionNames)),
		modules:  make(map[string]*bool, len(moduleNames)),
	}
	for _, name := range sessionNames {
		a.sessions[name] = new(bool)
	}
	for _, name := range moduleNames {
		a.modules[name] = new(bool)
	}
	return a
}

var (
	sessionNames = []string{nacc.SessionIVP, nacc.SessionFVP, nacc.SessionTFP, nacc.SessionTFP3, nacc.SessionNP, nacc.SessionM}
	moduleNames  = []string{nacc.ModuleLBD, nacc.ModuleLBDSV, nacc.ModuleFTLD, nacc.ModuleCSF, nacc.ModuleCV}
)

var sessionHelp = map[string]string{
	nacc.SessionIVP:  "process as initial visit data (default)",
	nacc.SessionFVP:  "process as follow-up visit data",
	nacc.SessionTFP:  "process as telephone follow-up version 3.2 data",
	nacc.SessionTFP3: "process as telephone follow-up version 3.0 (pre-June 2020) data",
	nacc.SessionNP:   "process as neuropathology data",
	nacc.SessionM:    "process as milestone data",
}

var moduleHelp = map[string]string{
	nacc.ModuleLBD:   "process as Lewy Body Dementia data",
	nacc.ModuleLBDSV: "process as Lewy Body Dementia short version data",
	nacc.ModuleFTLD:  "process as Frontotemporal Lobar Degeneration data",
	nacc.ModuleCSF:   "process as Cerebrospinal Fluid data",
	nacc.ModuleCV:    "process as COVID-19 data",
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := newApp()

	root := &cobra.Command{
		Use:               "redcap2nacc",
		Short:             "Convert REDCap exports to NACC fixed-width packets",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: a.setup,
		RunE:              a.runConvert,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "TOML run config")
	flags.StringVar((*string)(&a.cfg.LogLevel), "log-level", string(a.cfg.LogLevel), "debug, info, warn, error or disabled")
	flags.BoolVar(&a.cfg.LogJSON, "log-json", a.cfg.LogJSON, "log as JSON")

	local := root.Flags()
	local.StringVar(&a.cfg.Input, "file", "", "path of the export to convert (default stdin)")
	local.StringVar(&a.cfg.Format, "format", a.cfg.Format, "input format: csv or jsonl")
	local.StringVarP(&a.cfg.Output, "output", "o", "", "write packets here (default stdout)")
	local.StringVar(&a.cfg.Summary, "summary", "", "write a JSON run summary here")
	local.StringVar(&a.cfg.RuleSet, "rule-set", "", "override the protocol's blanking rule set")

	for _, name := range sessionNames {
		local.BoolVar(a.sessions[name], name, false, sessionHelp[name])
	}
	for _, name := range moduleNames {
		local.BoolVar(a.modules[name], name, false, moduleHelp[name])
	}
	root.MarkFlagsMutuallyExclusive(sessionNames...)
	root.MarkFlagsMutuallyExclusive(moduleNames...)

	root.AddCommand(extractCmd(a), protocolsCmd(a))
	return root
}

// setup resolves the run config and loads the logger and catalog before
// any command runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.configPath != "" {
		loaded, err := nacc.LoadRunConfig(a.configPath, a.cfg)
		if err != nil {
			return err
		}
		a.cfg = a.mergeFlags(cmd, loaded)
	}
	a.applySelection()

	a.logger = nacc.NewLogger(&nacc.LogConfig{
		Level:      a.cfg.LogLevel,
		Output:     cmd.ErrOrStderr(),
		JSON:       a.cfg.LogJSON,
		TimeFormat: "15:04:05",
	})

	var err error
	a.catalog, err = nacc.LoadCatalog()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	a.logger.Debug("catalog loaded", "protocols", len(a.catalog.Protocols.Names()))
	return nil
}

// mergeFlags lets explicitly set flags win over the config file.
func (a *app) mergeFlags(cmd *cobra.Command, loaded nacc.RunConfig) nacc.RunConfig {
	flagged := a.cfg
	out := loaded
	set := func(name string, apply func()) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			apply()
		}
	}
	set("log-level", func() { out.LogLevel = flagged.LogLevel })
	set("log-json", func() { out.LogJSON = flagged.LogJSON })
	set("file", func() { out.Input = flagged.Input })
	set("format", func() { out.Format = flagged.Format })
	set("output", func() { out.Output = flagged.Output })
	set("summary", func() { out.Summary = flagged.Summary })
	set("rule-set", func() { out.RuleSet = flagged.RuleSet })
	return out
}

// applySelection copies session and module flags into the run config.
// Flags override the config file's selection.
func (a *app) applySelection() {
	for name, v := range a.sessions {
		if *v {
			a.cfg.Session = name
		}
	}
	for name, v := range a.modules {
		if *v {
			a.cfg.Module = name
		}
	}
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	protocol, err := cfg.Protocol()
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(cfg.Input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := a.openOutput(cfg.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	src, err := nacc.NewSource(cfg.Format, in)
	if err != nil {
		return err
	}

	conv, err := nacc.NewConverter(nacc.ConverterOpts{
		Catalog:     a.catalog,
		Protocol:    protocol,
		RuleSet:     cfg.RuleSet,
		Output:      out,
		Diagnostics: cmd.ErrOrStderr(),
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := conv.Convert(ctx, src)
	if cfg.Summary != "" {
		if werr := writeSummaryFile(cfg.Summary, summary); werr != nil {
			a.logger.Error("write summary", "path", cfg.Summary, "err", werr)
		}
	}
	return err
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func (a *app) openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	w := bufio.NewWriter(f)
	return w, func() {
		if err := w.Flush(); err != nil {
			a.logger.Error("flush output", "path", path, "err", err)
		}
		f.Close()
	}, nil
}

func writeSummaryFile(path string, summary *nacc.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return nacc.WriteSummary(f, summary)
}
