package nkscape

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind:  "memory",
		ExportsDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func testRunRequest() RunRequest {
	return RunRequest{
		N:       4,
		K:       1,
		P:       4,
		Network: "cycle",
		Deg:     2,
		Nsoc:    2,
		Tm:      2,
		W:       0.5,
		WF:      1.0,
		Alt:     2,
		Prop:    1,
		Rounds:  5,
		Seed:    42,
		Workers: 2,
	}
}

func TestRunPersistsSummaryAndSeries(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	if err := client.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	summary, err := client.Run(ctx, testRunRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("Run did not assign a run id")
	}
	if summary.Rounds != 5 {
		t.Fatalf("Rounds = %d, want 5", summary.Rounds)
	}

	items, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(items) != 1 || items[0].RunID != summary.RunID {
		t.Fatalf("Runs = %+v, want the single completed run", items)
	}
	if items[0].FinalPerformance != summary.FinalPerformance {
		t.Errorf("listed final performance %f, run reported %f",
			items[0].FinalPerformance, summary.FinalPerformance)
	}

	performance, err := client.PerformanceHistory(ctx, HistoryRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("PerformanceHistory: %v", err)
	}
	synchrony, err := client.SynchronyHistory(ctx, HistoryRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("SynchronyHistory: %v", err)
	}
	if len(performance) != 5 || len(synchrony) != 5 {
		t.Fatalf("history lengths = %d/%d, want 5", len(performance), len(synchrony))
	}
	if performance[4] != summary.FinalPerformance {
		t.Errorf("stored final performance %f, summary reports %f",
			performance[4], summary.FinalPerformance)
	}
}

func TestRunsRespectLimit(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	for seed := int64(1); seed <= 3; seed++ {
		req := testRunRequest()
		req.Seed = seed
		if _, err := client.Run(ctx, req); err != nil {
			t.Fatalf("Run(seed=%d): %v", seed, err)
		}
	}

	items, err := client.Runs(ctx, RunsRequest{Limit: 2})
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
}

func TestHistoryLimitKeepsTail(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, testRunRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	tail, err := client.PerformanceHistory(ctx, HistoryRequest{RunID: summary.RunID, Limit: 2})
	if err != nil {
		t.Fatalf("PerformanceHistory: %v", err)
	}
	if len(tail) != 2 {
		t.Fatalf("len(tail) = %d, want 2", len(tail))
	}
	if tail[1] != summary.FinalPerformance {
		t.Errorf("tail ends at %f, want final performance %f", tail[1], summary.FinalPerformance)
	}
}

func TestExportWritesRoundSeriesCSV(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, testRunRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	outDir := t.TempDir()
	exported, err := client.Export(ctx, ExportRequest{RunID: summary.RunID, OutDir: outDir})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Dir(exported.Path) != outDir {
		t.Fatalf("export path %s not under %s", exported.Path, outDir)
	}

	file, err := os.Open(exported.Path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("export has %d rows, want header plus 5 rounds", len(records))
	}
	header := records[0]
	if header[0] != "round" || header[1] != "performance" || header[2] != "synchrony" {
		t.Fatalf("unexpected header %v", header)
	}
	if records[1][0] != "0" || records[5][0] != "4" {
		t.Fatalf("round column runs %s..%s, want 0..4", records[1][0], records[5][0])
	}
}

func TestExportUnknownRunFails(t *testing.T) {
	client := testClient(t)
	if _, err := client.Export(context.Background(), ExportRequest{RunID: "missing"}); err == nil {
		t.Fatal("export of unknown run succeeded")
	}
}

func TestRunRejectsBadParameters(t *testing.T) {
	client := testClient(t)
	req := testRunRequest()
	req.Prop = 3
	req.Alt = 2
	if _, err := client.Run(context.Background(), req); err == nil {
		t.Fatal("run with prop > alt succeeded")
	}
}

func TestRunInitializesStoreLazily(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	// no explicit Init; the first Run must bring the store up itself
	summary, err := client.Run(ctx, testRunRequest())
	if err != nil {
		t.Fatalf("Run without Init: %v", err)
	}

	// a later explicit Init must not erase the stored run
	if err := client.Init(ctx); err != nil {
		t.Fatalf("Init after Run: %v", err)
	}
	items, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(items) != 1 || items[0].RunID != summary.RunID {
		t.Fatalf("Runs = %+v, want the run completed before Init", items)
	}
}

func TestRunDefaultsUtilityWeights(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	req := testRunRequest()
	req.W = 0
	req.WF = 0
	summary, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	stored, ok, err := client.store.GetRunSummary(ctx, summary.RunID)
	if err != nil || !ok {
		t.Fatalf("stored summary: ok=%v err=%v", ok, err)
	}
	if stored.Parameters.W != 1.0 || stored.Parameters.WF != 1.0 {
		t.Fatalf("stored weights w=%f wf=%f, want the defaults of 1",
			stored.Parameters.W, stored.Parameters.WF)
	}
}
