package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pgforge/pgforge/compiler/gen"
	"github.com/pgforge/pgforge/compiler/plugin"
	"github.com/pgforge/pgforge/config"
	"github.com/pgforge/pgforge/schema"
	"github.com/pgforge/pgforge/writer"
)

var (
	dryRun bool

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Run the configured plugins and write the output files",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runGenerate(cmd)
			if err != nil {
				reportError(err)
			}
			return err
		},
	}
)

func init() {
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be written without writing")
}

func runGenerate(cmd *cobra.Command) error {
	project, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	schemaPath := project.Schema
	if !filepath.IsAbs(schemaPath) {
		schemaPath = filepath.Join(filepath.Dir(cfgFile), schemaPath)
	}
	sc, err := schema.Load(schemaPath)
	if err != nil {
		return err
	}
	plugins, err := project.PluginSet()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	res, err := gen.Generate(ctx, sc, plugins, project.GenOptions()...)
	if err != nil {
		return err
	}
	logger.Debug("generation complete",
		"plugins", len(res.Order), "symbols", res.Registry.Len(), "artifacts", len(res.Artifacts))

	files, err := gen.EmitFiles(res, gen.EmitOptions{})
	if err != nil {
		return err
	}

	outDir := res.OutputDir()
	if outDir == "" {
		outDir = project.Out
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(filepath.Dir(cfgFile), outDir)
	}
	w := writer.New(outDir, writer.WithDryRun(dryRun), writer.WithLogger(logger))
	results, err := w.Write(ctx, files)
	if err != nil {
		return err
	}

	written := 0
	for _, r := range results {
		if r.Written {
			written++
		}
	}
	logger.Info("done", "files", len(files), "written", written, "dry-run", dryRun)
	return nil
}

// reportError prints run failures with the detail each kind carries,
// instead of one flattened message.
func reportError(err error) {
	var (
		confErr     *plugin.ConfigError
		conflictErr *plugin.ConflictError
		cycleErr    *plugin.CycleError
		circErr     *gen.CircularError
		collErr     *gen.CollisionError
		unsatErr    *gen.UnsatisfiedError
	)
	switch {
	case errors.As(err, &confErr):
		logger.Error("invalid plugin config", "plugin", confErr.Plugin)
		for _, f := range confErr.Fields {
			logger.Error("  field", "path", f.Path, "problem", f.Message)
		}
	case errors.As(err, &conflictErr):
		logger.Error("capability conflict",
			"capability", conflictErr.Capability.String(), "providers", conflictErr.Providers)
	case errors.As(err, &cycleErr):
		logger.Error("plugin dependency cycle", "cycle", cycleErr.Cycle)
	case errors.As(err, &circErr):
		logger.Error("symbol dependency cycle", "cycle", circErr.Cycle)
	case errors.As(err, &collErr):
		logger.Error("symbol collision", "detail", collErr.Error())
	case errors.As(err, &unsatErr):
		logger.Error("unsatisfied capability",
			"capability", unsatErr.Capability.String(), "plugin", unsatErr.Plugin)
	default:
		logger.Error("generation failed", "err", err)
	}
}
