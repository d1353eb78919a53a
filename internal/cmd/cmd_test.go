package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skysurvey/msr/internal/config"
	"github.com/skysurvey/msr/internal/store"
)

// writeFixtureStore lays out a minimal milestone store and returns a config
// file pointing at it.
func writeFixtureStore(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	dataDir := filepath.Join(dir, "store")
	if err := os.MkdirAll(filepath.Join(dataDir, "pmcs"), 0755); err != nil {
		t.Fatal(err)
	}
	baseline := "code,name,wbs,level,due,effort,predecessors,successors\n" +
		"DM-AP-01,Alert pipeline prototype,02C.03.01,3,2026-02-01,3,,DM-AP-02\n" +
		"DM-AP-02,Alert pipeline production,02C.03.01,2,2026-05-15,5,DM-AP-01,\n" +
		"DM-DF-01,Data facility ready,02C.07.02,1,2026-04-01,2,,\n"
	if err := os.WriteFile(filepath.Join(dataDir, "pmcs", "202606-ME.csv"), []byte(baseline), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, "local"), 0755); err != nil {
		t.Fatal(err)
	}
	ann := "DM-AP-01:\n  completed: 2026-01-20\n"
	if err := os.WriteFile(filepath.Join(dataDir, "local", "completed.yaml"), []byte(ann), 0644); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "data_dir: " + dataDir + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func useFixture(t *testing.T) {
	t.Helper()
	cfgPath := writeFixtureStore(t)
	oldConfig := configPath
	configPath = cfgPath
	t.Cleanup(func() { configPath = oldConfig })
}

func TestRunGraph_WritesDot(t *testing.T) {
	useFixture(t)

	out := filepath.Join(t.TempDir(), "graph.dot")
	oldWBS, oldOut := graphWBS, graphOutput
	graphWBS, graphOutput = "02C.03", out
	t.Cleanup(func() { graphWBS, graphOutput = oldWBS, oldOut })

	if err := runGraph(graphCmd, nil); err != nil {
		t.Fatalf("runGraph: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	dot := string(data)
	if !strings.HasPrefix(dot, "digraph") {
		t.Errorf("output is not a digraph:\n%s", dot)
	}
	if !strings.Contains(dot, "DM_AP_01") || !strings.Contains(dot, "DM_AP_02") {
		t.Errorf("output missing milestone nodes:\n%s", dot)
	}
}

func TestRunGraph_NoMatches(t *testing.T) {
	useFixture(t)

	oldWBS, oldOut := graphWBS, graphOutput
	graphWBS, graphOutput = "99Z", filepath.Join(t.TempDir(), "graph.dot")
	t.Cleanup(func() { graphWBS, graphOutput = oldWBS, oldOut })

	if err := runGraph(graphCmd, nil); err == nil {
		t.Error("expected error for prefix with no milestones")
	}
}

func TestRunIndex_WritesDocument(t *testing.T) {
	useFixture(t)

	out := filepath.Join(t.TempDir(), "index.rst")
	oldOut := indexOutput
	indexOutput = out
	t.Cleanup(func() { indexOutput = oldOut })

	if err := runIndex(indexCmd, nil); err != nil {
		t.Fatalf("runIndex: %v", err)
	}

	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Contains(first, []byte("Summary")) {
		t.Errorf("index missing summary section:\n%s", first)
	}

	// Regenerating from the same store must be byte-identical.
	if err := runIndex(indexCmd, nil); err != nil {
		t.Fatalf("runIndex rerun: %v", err)
	}
	second, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read rerun output: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("index output changed between identical runs")
	}
}

func TestRunBurndown_WritesPNG(t *testing.T) {
	useFixture(t)

	out := filepath.Join(t.TempDir(), "burndown.png")
	oldOut, oldMonths := burndownOutput, burndownMonths
	burndownOutput, burndownMonths = out, 3
	t.Cleanup(func() { burndownOutput, burndownMonths = oldOut, oldMonths })

	if err := runBurndown(burndownCmd, nil); err != nil {
		t.Fatalf("runBurndown: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output is not a PNG")
	}
}

func TestCacheDir(t *testing.T) {
	oldConfig := configPath
	t.Cleanup(func() { configPath = oldConfig })

	// An explicit --config puts the cache next to the config file.
	cfgDir := t.TempDir()
	configPath = filepath.Join(cfgDir, "config.yaml")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if dir != cfgDir {
		t.Errorf("cacheDir = %s, want %s", dir, cfgDir)
	}

	// Without --config the nearest .msr up the tree wins over the cwd.
	configPath = ""
	root := t.TempDir()
	msrDir := filepath.Join(root, ".msr")
	if err := os.MkdirAll(msrDir, 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "docs", "reports")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	dir, err = cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	wantDir, err := filepath.EvalSymlinks(msrDir)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != wantDir {
		t.Errorf("cacheDir = %s, want %s", resolved, wantDir)
	}
}

func TestCachedSeries_HitKeepsWarnings(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "store")
	if err := os.MkdirAll(filepath.Join(dataDir, "pmcs"), 0755); err != nil {
		t.Fatal(err)
	}
	baseline := "code,name,wbs,level,due,effort,predecessors,successors\n" +
		"DM-AP-01,Alert pipeline prototype,02C.03.01,3,2026-02-01,3,,\n" +
		"DM-NL-01,No date yet,02C.03.02,2,,4,,\n"
	if err := os.WriteFile(filepath.Join(dataDir, "pmcs", "202606-ME.csv"), []byte(baseline), 0644); err != nil {
		t.Fatal(err)
	}

	oldConfig := configPath
	configPath = filepath.Join(dir, "config.yaml")
	t.Cleanup(func() { configPath = oldConfig })

	s, err := store.Load(dataDir)
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	cfg := config.DefaultConfig()

	first, err := cachedSeries(cfg, s)
	if err != nil {
		t.Fatalf("cachedSeries: %v", err)
	}
	if len(first.Warnings) != 1 || first.Excluded != 1 {
		t.Fatalf("fresh series warnings = %v", first.Warnings)
	}

	// The second call hits the cache and must report the same exclusion.
	second, err := cachedSeries(cfg, s)
	if err != nil {
		t.Fatalf("cachedSeries rerun: %v", err)
	}
	if len(second.Warnings) != 1 || second.Warnings[0] != first.Warnings[0] {
		t.Errorf("cached series warnings = %v, want %v", second.Warnings, first.Warnings)
	}
	if second.Excluded != 1 {
		t.Errorf("cached series excluded = %d, want 1", second.Excluded)
	}
}

func TestResolveFormat(t *testing.T) {
	useFixture(t)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	oldFormat := outputFormat
	t.Cleanup(func() { outputFormat = oldFormat })

	outputFormat = ""
	f, err := resolveFormat(cfg)
	if err != nil {
		t.Fatalf("resolveFormat: %v", err)
	}
	if string(f) != cfg.Output.DefaultFormat {
		t.Errorf("default format = %s, want %s", f, cfg.Output.DefaultFormat)
	}

	outputFormat = "json"
	f, err = resolveFormat(cfg)
	if err != nil {
		t.Fatalf("resolveFormat: %v", err)
	}
	if string(f) != "json" {
		t.Errorf("format = %s, want json", f)
	}

	outputFormat = "xml"
	if _, err := resolveFormat(cfg); err == nil {
		t.Error("expected error for unsupported format")
	}
}
