// Package pipeline runs a complete fix pass on the local host: it installs the checker,
// gathers facts, reads the report, downloads the fixes, checks them and installs those
// that can go in together.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	fixv1alpha1 "github.com/dlminvestments/ansible-power-aix/api/v1alpha1"
	"github.com/dlminvestments/ansible-power-aix/internal/config"
	"github.com/dlminvestments/ansible-power-aix/internal/epkg"
	"github.com/dlminvestments/ansible-power-aix/internal/fetch"
	"github.com/dlminvestments/ansible-power-aix/internal/flrtvc"
	"github.com/dlminvestments/ansible-power-aix/internal/install"
	"github.com/dlminvestments/ansible-power-aix/internal/inventory"
	"github.com/dlminvestments/ansible-power-aix/internal/metrics"
	"github.com/dlminvestments/ansible-power-aix/internal/resolver"
	"github.com/dlminvestments/ansible-power-aix/internal/system"
)

const (
	MsgCheckOnly    = "exit on check only"
	MsgDownloadOnly = "exit on download only"
	MsgReportFailed = "Failed to get vulnerabilities report, system will not be updated"
	MsgInstallFail  = "Failed to install fixes, please check meta and log data."
	MsgSucceeded    = "FLRTVC completed successfully"
)

// Run outcomes recorded in metrics.
const (
	OutcomeSucceeded    = "succeeded"
	OutcomeFailed       = "failed"
	OutcomeCheckOnly    = "check-only"
	OutcomeDownloadOnly = "download-only"
)

// Pipeline holds the collaborators of a run. Only Config and Runner are required.
type Pipeline struct {
	Config   *config.Config
	Runner   system.Runner
	Resolver resolver.Resolver
	// Wget overrides the wget binary used for every transfer.
	Wget string
	Host string
}

func (p *Pipeline) resolver() resolver.Resolver {
	if p.Resolver != nil {
		return p.Resolver
	}
	r := resolver.NewDefault(&epkg.EmgrDescriber{Runner: p.Runner})
	r.Parallelism = p.Config.Parallelism
	return r
}

// Run executes every stage and always returns a report. The error is non-nil when the run
// stopped on a failure; the report then says which stage failed.
func (p *Pipeline) Run(ctx context.Context) (*fixv1alpha1.FixReport, error) {
	logger := log.FromContext(ctx).WithName("pipeline")
	cfg := p.Config

	report := fixv1alpha1.NewFixReport(p.Host)
	report.Spec = fixv1alpha1.FixReportSpec{
		APAR:         cfg.APAR,
		Filesets:     cfg.Filesets,
		CSV:          cfg.CSV,
		Path:         cfg.Path,
		Force:        cfg.Force,
		CheckOnly:    cfg.CheckOnly,
		DownloadOnly: cfg.DownloadOnly,
	}
	st := &report.Status

	workdir := cfg.WorkDir()
	if cfg.Clean {
		defer func() {
			if err := os.RemoveAll(workdir); err != nil {
				logger.Error(err, "cannot clean work directory", "dir", workdir)
			}
		}()
	}

	outcome, err := p.run(ctx, st)
	metrics.ObserveRun(outcome)
	if err != nil {
		st.Succeeded = false
		logger.Error(err, "run failed", "phase", st.Phase)
		return report, err
	}
	st.Succeeded = true
	logger.Info(st.Message, "phase", st.Phase)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, st *fixv1alpha1.FixReportStatus) (string, error) {
	logger := log.FromContext(ctx).WithName("pipeline")
	cfg := p.Config
	workdir := cfg.WorkDir()

	fail := func(msg string, err error) (string, error) {
		st.Message = msg
		return OutcomeFailed, err
	}

	if err := os.MkdirAll(workdir, 0o744); err != nil {
		return fail("Cannot create work directory", fmt.Errorf("create %s: %w", workdir, err))
	}

	fetcher := &fetch.Fetcher{
		Runner:   p.Runner,
		Dir:      cfg.Path,
		Wget:     p.Wget,
		Insecure: cfg.InsecureSkipVerify,
		GrowFS:   cfg.IncreaseFS,
	}

	// Tool
	st.Phase = fixv1alpha1.PhaseTool
	started := time.Now()
	tool, err := fetcher.FetchTool(ctx, cfg.ToolURL, workdir, cfg.ToolDir)
	metrics.ObserveStage(string(st.Phase), started)
	if err != nil {
		return fail(err.Error(), err)
	}

	// Facts
	st.Phase = fixv1alpha1.PhaseFacts
	started = time.Now()
	if cfg.Force {
		msgs, err := install.RemoveInstalled(ctx, p.Runner, system.EmgrCommand)
		st.Messages = append(st.Messages, msgs...)
		if len(msgs) > 0 {
			st.Changed = true
		}
		if err != nil {
			logger.Info("some installed efixes were not removed", "error", err.Error())
		}
	}
	facts, err := system.GatherFacts(ctx, p.Runner, workdir)
	metrics.ObserveStage(string(st.Phase), started)
	if err != nil {
		st.Messages = append(st.Messages, err.Error())
		return fail(MsgReportFailed, err)
	}

	// Report
	st.Phase = fixv1alpha1.PhaseReport
	started = time.Now()
	lines, msgs, err := flrtvc.Run(ctx, p.Runner, tool, facts, flrtvc.Params{
		APARType: cfg.APAR,
		APARCSV:  cfg.CSV,
		Filesets: cfg.Filesets,
		SaveDir:  cfg.Path,
		Verbose:  cfg.Verbose,
	})
	metrics.ObserveStage(string(st.Phase), started)
	st.Messages = append(st.Messages, msgs...)
	if err != nil {
		st.Messages = append(st.Messages, err.Error())
		return fail(MsgReportFailed, err)
	}
	st.Report = lines
	if cfg.CheckOnly {
		st.Message = MsgCheckOnly
		return OutcomeCheckOnly, nil
	}

	// Parse
	st.Phase = fixv1alpha1.PhaseParse
	started = time.Now()
	urls, err := flrtvc.ParseReport(lines)
	metrics.ObserveStage(string(st.Phase), started)
	if err != nil {
		st.Messages = append(st.Messages, err.Error())
	}
	st.Parse = urls

	// Download
	st.Phase = fixv1alpha1.PhaseDownload
	started = time.Now()
	fetched := fetcher.Fetch(ctx, urls)
	metrics.ObserveStage(string(st.Phase), started)
	st.Discover = fetched.Discover
	st.Download = fetched.Download
	st.Messages = append(st.Messages, fetched.Messages...)

	// Check
	st.Phase = fixv1alpha1.PhaseCheck
	started = time.Now()
	plan, err := p.check(ctx, facts, fetched.Download)
	metrics.ObserveStage(string(st.Phase), started)
	if err != nil {
		return fail(err.Error(), err)
	}
	st.Messages = append(st.Messages, plan.Diagnostics.Messages...)
	st.Reject = plan.RejectedReasons()
	st.Check = plan.AcceptedPaths()
	st.Interlocks = plan.Interlocks.Lines()
	if cfg.DownloadOnly {
		st.Message = MsgDownloadOnly
		return OutcomeDownloadOnly, nil
	}

	// Install
	st.Phase = fixv1alpha1.PhaseInstall
	started = time.Now()
	in := &install.Installer{Runner: p.Runner, Dir: cfg.Path, GrowFS: cfg.IncreaseFS}
	res, err := in.Install(ctx, st.Check)
	metrics.ObserveStage(string(st.Phase), started)
	st.Install = res.Output
	st.Messages = append(st.Messages, res.Messages...)
	if len(st.Check) > 0 && !errors.Is(err, install.ErrNothingCopied) {
		st.Changed = true
	}
	if err != nil {
		return fail(MsgInstallFail, err)
	}

	st.Phase = fixv1alpha1.PhaseDone
	st.Message = MsgSucceeded
	return OutcomeSucceeded, nil
}

// check parses the gathered listings and resolves the downloaded packages against them.
func (p *Pipeline) check(ctx context.Context, facts *system.Facts, paths []string) (resolver.Plan, error) {
	filesets, warnings, err := inventory.ParseFilesets(ctx, bytes.NewReader(facts.Lslpp))
	if err != nil {
		return resolver.Plan{}, fmt.Errorf("parse %s: %w", facts.LslppPath, err)
	}
	efixes, err := inventory.ParseEfixes(ctx, bytes.NewReader(facts.Emgr))
	if err != nil {
		return resolver.Plan{}, fmt.Errorf("parse %s: %w", facts.EmgrPath, err)
	}

	plan, err := p.resolver().Resolve(ctx, resolver.Input{Paths: paths, Filesets: filesets, Efixes: efixes})
	if err != nil {
		return resolver.Plan{}, err
	}
	plan.Diagnostics.Messages = append(warnings, plan.Diagnostics.Messages...)
	return plan, nil
}
