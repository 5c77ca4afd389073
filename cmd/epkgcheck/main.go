// Command epkgcheck resolves local epkg files against saved lslpp -Lcq and emgr -lv3 listings
// and prints the install order and the rejections. With -describe-dir the emgr previews are
// read from <dir>/<epkg>.txt instead of running emgr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/yaml"

	"github.com/dlminvestments/ansible-power-aix/internal/epkg"
	"github.com/dlminvestments/ansible-power-aix/internal/inventory"
	"github.com/dlminvestments/ansible-power-aix/internal/resolver"
	"github.com/dlminvestments/ansible-power-aix/internal/system"
)

type output struct {
	Check      []string `json:"check"`
	Reject     []string `json:"reject"`
	Interlocks []string `json:"interlocks,omitempty"`
	Messages   []string `json:"messages,omitempty"`
}

func main() {
	var lslppFile, emgrFile, describeDir string
	var parallelism int
	flag.StringVar(&lslppFile, "lslpp", system.LslppFile, "Saved lslpp -Lcq output.")
	flag.StringVar(&emgrFile, "emgr", system.EmgrFile, "Saved emgr -lv3 output.")
	flag.StringVar(&describeDir, "describe-dir", "", "Directory of saved emgr -dXv3 previews.")
	flag.IntVar(&parallelism, "parallelism", 4, "Concurrent epkg previews.")

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	logger := zap.New(zap.UseFlagOptions(&opts))
	ctx := log.IntoContext(context.Background(), logger)

	if err := run(ctx, lslppFile, emgrFile, describeDir, parallelism, flag.Args()); err != nil {
		logger.Error(err, "check failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, lslppFile, emgrFile, describeDir string, parallelism int, paths []string) error {
	if len(paths) == 0 {
		return errors.New("no epkg given")
	}

	lf, err := os.Open(lslppFile)
	if err != nil {
		return err
	}
	defer lf.Close()
	filesets, warnings, err := inventory.ParseFilesets(ctx, lf)
	if err != nil {
		return err
	}

	ef, err := os.Open(emgrFile)
	if err != nil {
		return err
	}
	defer ef.Close()
	efixes, err := inventory.ParseEfixes(ctx, ef)
	if err != nil {
		return err
	}

	var d epkg.Describer = &epkg.EmgrDescriber{Runner: system.NewRunner()}
	if describeDir != "" {
		d = epkg.DescriberFunc(func(_ context.Context, path string) (string, error) {
			b, err := os.ReadFile(filepath.Join(describeDir, filepath.Base(path)+".txt"))
			if err != nil {
				return "", err
			}
			return epkg.Paragraphs(string(b), "PREREQ", "PACKAG"), nil
		})
	}

	r := resolver.NewDefault(d)
	r.Parallelism = parallelism
	plan, err := r.Resolve(ctx, resolver.Input{Paths: paths, Filesets: filesets, Efixes: efixes})
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(output{
		Check:      plan.AcceptedPaths(),
		Reject:     plan.RejectedReasons(),
		Interlocks: plan.Interlocks.Lines(),
		Messages:   append(warnings, plan.Diagnostics.Messages...),
	})
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
