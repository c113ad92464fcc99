package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"nkscape/internal/storage"
	nkapi "nkscape/pkg/nkscape"
)

const exportsDir = "exports"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "performance":
		return runHistory(ctx, args[1:], "performance")
	case "synchrony":
		return runHistory(ctx, args[1:], "synchrony")
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "nkscape.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := nkapi.New(nkapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "JSON run configuration file")
	n := fs.Int("n", 0, "bits per agent")
	k := fs.Int("k", 0, "within-agent interdependencies")
	c := fs.Int("c", 0, "coupled bits per external agent")
	s := fs.Int("s", 0, "external agents coupled to each bit")
	rho := fs.Float64("rho", 0, "cross-landscape correlation in [-1,1]")
	p := fs.Int("p", 0, "number of agents")
	shape := fs.String("shape", "", "interaction shape: roll|diag|updiag|downdiag|sqdiag|random")
	network := fs.String("network", "", "peer network: random|line|cycle|ring|star")
	deg := fs.Int("deg", 0, "peer degree")
	nsoc := fs.Int("nsoc", 0, "social bits per agent")
	tm := fs.Int("tm", 0, "social memory depth")
	w := fs.Float64("w", 0, "utility weight for incentives vs conformity")
	wf := fs.Float64("wf", 0, "incentive weight for own vs peer performance")
	alt := fs.Int("alt", 0, "alternatives screened per round")
	prop := fs.Int("prop", 0, "proposals kept per round")
	method := fs.String("method", "", "screening policy: utility|performance|random")
	rounds := fs.Int("rounds", 0, "rounds to simulate")
	seed := fs.Int64("seed", 0, "random seed (0 for time-based)")
	workers := fs.Int("workers", 0, "screening worker count")
	normalize := fs.Bool("normalize", false, "normalize performance by the global maximum")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "nkscape.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyRunOverrides(&req, set, runOverrides{
		N: *n, K: *k, C: *c, S: *s, Rho: *rho, P: *p,
		Shape: *shape, Network: *network, Deg: *deg,
		Nsoc: *nsoc, Tm: *tm, W: *w, WF: *wf,
		Alt: *alt, Prop: *prop, Method: *method,
		Rounds: *rounds, Seed: *seed, Workers: *workers,
		Normalize: *normalize,
	})

	client, err := nkapi.New(nkapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("run_id=%s rounds=%d final_performance=%.6f final_synchrony=%.6f\n",
		summary.RunID, summary.Rounds, summary.FinalPerformance, summary.FinalSynchrony)
	if summary.Normalized {
		fmt.Printf("global_maximum=%.6f\n", summary.GlobalMaximum)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "nkscape.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := nkapi.New(nkapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, nkapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	for _, item := range items {
		fmt.Printf("run_id=%s seed=%d agents=%d rounds=%d final_performance=%.6f final_synchrony=%.6f normalized=%t\n",
			item.RunID, item.Seed, item.Agents, item.Rounds,
			item.FinalPerformance, item.FinalSynchrony, item.Normalized)
	}
	return nil
}

func runHistory(ctx context.Context, args []string, kind string) error {
	fs := flag.NewFlagSet(kind, flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max rounds to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "nkscape.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("%s requires --run-id", kind)
	}

	client, err := nkapi.New(nkapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	req := nkapi.HistoryRequest{RunID: *runID, Limit: *limit}
	var history []float64
	if kind == "performance" {
		history, err = client.PerformanceHistory(ctx, req)
	} else {
		history, err = client.SynchronyHistory(ctx, req)
	}
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	for i, v := range history {
		fmt.Printf("round=%d %s=%.6f\n", i, kind, v)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	outDir := fs.String("out", exportsDir, "export output directory")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "nkscape.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("export requires --run-id")
	}

	client, err := nkapi.New(nkapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, nkapi.ExportRequest{RunID: *runID, OutDir: *outDir})
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, exported.Path)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: nkscapectl <init|run|runs|performance|synchrony|export> [flags]", msg)
}
