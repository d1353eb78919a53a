package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skysurvey/msr/internal/build"
	"github.com/skysurvey/msr/internal/burndown"
	"github.com/skysurvey/msr/internal/cache"
	"github.com/skysurvey/msr/internal/config"
	"github.com/skysurvey/msr/internal/graph"
	"github.com/skysurvey/msr/internal/report"
	"github.com/skysurvey/msr/internal/store"
	"github.com/spf13/cobra"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build [target...]",
	Short: "Bring generated artifacts up to date",
	Long: `Bring the generated documentation artifacts up to date: the index
document, the burndown image, the per-WBS dependency graph images, and
optionally the final site.

A target is rebuilt only when an output is missing or older than a
milestone store file. Graph images are laid out with the configured
graphviz command; the site target runs the configured document builder
and is skipped when no site_cmd is set, as is the bib target without a
bib_cmd. With no arguments every configured target runs.

Examples:
  msr build                    # everything that is stale
  msr build index burndown     # just those targets
  msr build --force            # rebuild regardless of timestamps
  msr build --watch            # rebuild on milestone store changes`,
	RunE: runBuild,
}

var (
	buildForce bool
	buildWatch bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolVar(&buildForce, "force", false, "Rebuild all targets regardless of staleness")
	buildCmd.Flags().BoolVar(&buildWatch, "watch", false, "Watch the milestone store and rebuild on change")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := loadStore(cfg)
	if err != nil {
		return err
	}

	runner, err := newBuildRunner(cfg, s)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = runner.Names()
	}

	if err := runner.Run(names, buildForce); err != nil {
		return err
	}
	if !buildWatch {
		return nil
	}

	rebuild := func() error {
		fresh, err := store.Load(s.Dir())
		if err != nil {
			return err
		}
		reportWarnings(fresh.Warnings)
		r, err := newBuildRunner(cfg, fresh)
		if err != nil {
			return err
		}
		return r.Run(names, false)
	}
	w, err := build.NewWatcher(s.Dir(), rebuild, func(format string, args ...interface{}) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})
	if err != nil {
		return err
	}
	defer w.Stop()
	return w.Watch()
}

// newBuildRunner wires the target graph for one store snapshot.
func newBuildRunner(cfg *config.Config, s *store.Store) (*build.Runner, error) {
	outDir := cfg.Build.OutputDir
	staticDir := filepath.Join(outDir, cfg.Build.StaticDir)
	indexPath := filepath.Join(outDir, "index.rst")
	burndownPNG := filepath.Join(staticDir, "burndown.png")
	storeFiles := s.SourceFiles()

	runner := build.NewRunner()
	runner.Log = os.Stderr

	if cfg.Build.BibCmd != "" {
		err := runner.Add(&build.Target{
			Name: "bib",
			Run: func() error {
				return build.Command(cfg.Build.BibCmd)
			},
		})
		if err != nil {
			return nil, err
		}
	}

	err := runner.Add(&build.Target{
		Name:    "index",
		Outputs: []string{indexPath},
		Prereqs: storeFiles,
		Run: func() error {
			opts := &report.Options{
				Prefix:    cfg.WBS,
				StaticDir: cfg.Build.StaticDir,
				TitleFor:  cfg.WBSTitle,
				BibGlob:   "lsstbib/*.bib",
			}
			doc, err := report.Generate(s, opts)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return err
			}
			return os.WriteFile(indexPath, []byte(doc), 0644)
		},
	})
	if err != nil {
		return nil, err
	}

	err = runner.Add(&build.Target{
		Name:    "burndown",
		Outputs: []string{burndownPNG},
		Prereqs: storeFiles,
		Run: func() error {
			series, err := cachedSeries(cfg, s)
			if err != nil {
				return err
			}
			reportWarnings(series.Warnings)
			return series.RenderFile(burndownPNG, &burndown.ChartOptions{
				Title:  fmt.Sprintf("Milestone burndown (%s)", cfg.WBS),
				Width:  cfg.Burndown.Width,
				Height: cfg.Burndown.Height,
			})
		},
	})
	if err != nil {
		return nil, err
	}

	var graphPNGs []string
	for _, code := range s.SubWBSCodes(cfg.WBS) {
		graphPNGs = append(graphPNGs, filepath.Join(staticDir, "graph_"+code+".png"))
	}
	err = runner.Add(&build.Target{
		Name:    "graphs",
		Outputs: graphPNGs,
		Prereqs: storeFiles,
		Run: func() error {
			return buildGraphs(cfg, s, staticDir)
		},
	})
	if err != nil {
		return nil, err
	}

	if cfg.Build.SiteCmd != "" {
		names := []string{"index", "burndown", "graphs"}
		if cfg.Build.BibCmd != "" {
			names = append([]string{"bib"}, names...)
		}
		err = runner.Add(&build.Target{
			Name:  "site",
			After: names,
			Run: func() error {
				return build.Command(cfg.Build.SiteCmd)
			},
		})
		if err != nil {
			return nil, err
		}
	}

	return runner, nil
}

// buildGraphs writes one DOT file per sub-WBS element and lays each out as
// a PNG with the configured graphviz command.
func buildGraphs(cfg *config.Config, s *store.Store, staticDir string) error {
	if err := build.LookTool(cfg.Build.DotCmd); err != nil {
		return err
	}
	if err := os.MkdirAll(staticDir, 0755); err != nil {
		return err
	}
	asOf := s.AsOf()
	for _, code := range s.SubWBSCodes(cfg.WBS) {
		g, err := graph.Build(s, code)
		if err != nil {
			return fmt.Errorf("graph %s: %w", code, err)
		}
		dotPath := filepath.Join(staticDir, "graph_"+code+".dot")
		pngPath := filepath.Join(staticDir, "graph_"+code+".png")
		if err := os.WriteFile(dotPath, []byte(g.Dot(graph.DefaultDotOptions(asOf))), 0644); err != nil {
			return fmt.Errorf("graph %s: %w", code, err)
		}
		if err := build.Command(cfg.Build.DotCmd, "-Tpng", "-o", pngPath, dotPath); err != nil {
			return fmt.Errorf("graph %s: %w", code, err)
		}
	}
	return nil
}

// cacheDir resolves the .msr directory the cache lives in: next to an
// explicit --config file, else the nearest .msr up the tree, else a fresh
// one in the working directory.
func cacheDir() (string, error) {
	if configPath != "" {
		return filepath.Dir(configPath), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if dir, err := config.FindConfigDir(cwd); err == nil {
		return dir, nil
	}
	return config.EnsureConfigDir(cwd)
}

// cachedSeries returns the burndown series for the store, consulting the
// sqlite cache keyed by a content hash of the store files. Cache failures
// fall back to recomputing; the cache only ever holds derived data.
func cachedSeries(cfg *config.Config, s *store.Store) (*burndown.Series, error) {
	months := cfg.Burndown.Months
	selected := s.WithPrefix(cfg.WBS)

	msrDir, err := cacheDir()
	if err != nil {
		return burndown.Compute(selected, months, s.AsOf())
	}
	c, err := cache.Open(msrDir)
	if err != nil {
		return burndown.Compute(selected, months, s.AsOf())
	}
	defer c.Close()

	hash, err := cache.HashFiles(s.SourceFiles())
	if err != nil {
		return burndown.Compute(selected, months, s.AsOf())
	}
	if series, err := c.GetSeries(hash, months); err == nil {
		return series, nil
	}

	series, err := burndown.Compute(selected, months, s.AsOf())
	if err != nil {
		return nil, err
	}
	if err := c.PutSeries(hash, months, series); err != nil {
		verbosef("cache write failed: %v", err)
	}
	return series, nil
}
