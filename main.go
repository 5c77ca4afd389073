package main

import (
	"flag"
	"fmt"
	"os"

	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/yaml"

	"github.com/dlminvestments/ansible-power-aix/internal/config"
	"github.com/dlminvestments/ansible-power-aix/internal/metrics"
	"github.com/dlminvestments/ansible-power-aix/internal/pipeline"
	"github.com/dlminvestments/ansible-power-aix/internal/system"
)

var setupLog = ctrl.Log.WithName("setup")

func main() {
	var configFile string
	cfg := config.Default()

	flag.StringVar(&configFile, "config", "", "YAML file with run options. Flags override its values.")
	cfg.BindFlags(flag.CommandLine)

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	if configFile != "" {
		if err := cfg.Load(configFile); err != nil {
			setupLog.Error(err, "unable to load config")
			os.Exit(1)
		}
		// flags win over the file
		flag.Parse()
	}
	if err := cfg.Validate(); err != nil {
		setupLog.Error(err, "invalid options")
		os.Exit(1)
	}

	host, err := os.Hostname()
	if err != nil {
		setupLog.Error(err, "unable to read hostname")
	}

	ctx := ctrl.SetupSignalHandler()
	ctx = log.IntoContext(ctx, ctrl.Log.WithName("flrtvc"))

	p := &pipeline.Pipeline{
		Config: cfg,
		Runner: system.NewRunner(),
		Host:   host,
	}

	setupLog.Info("starting run", "path", cfg.Path, "apar", cfg.APAR, "force", cfg.Force)
	report, runErr := p.Run(ctx)

	out, err := yaml.Marshal(report)
	if err != nil {
		setupLog.Error(err, "unable to encode report")
		os.Exit(1)
	}
	fmt.Print(string(out))
	if cfg.ReportFile != "" {
		if err := os.WriteFile(cfg.ReportFile, out, 0o644); err != nil {
			setupLog.Error(err, "unable to write report", "file", cfg.ReportFile)
		}
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			setupLog.Error(err, "unable to write metrics", "file", cfg.MetricsFile)
		}
	}

	if runErr != nil {
		os.Exit(1)
	}
}
