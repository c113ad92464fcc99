// Package nkscape is the public client API: it wires the organization
// driver to a store and exposes run, query and export operations.
package nkscape

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"nkscape/internal/landscape"
	"nkscape/internal/model"
	"nkscape/internal/org"
	"nkscape/internal/social"
	"nkscape/internal/storage"
)

const (
	defaultDBPath     = "nkscape.db"
	defaultExportsDir = "exports"
)

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
}

type Client struct {
	store       storage.Store
	exportsDir  string
	initialized bool
}

// RunRequest carries the knobs of one simulation run. Zero values fall
// back to the defaults applied in Run; in particular a zero W or WF is
// replaced by the pure-incentive weighting of 1.
type RunRequest struct {
	RunID              string
	N                  int
	K                  int
	C                  int
	S                  int
	Rho                float64
	P                  int
	Shape              string
	Network            string
	Deg                int
	Nsoc               int
	Tm                 int
	W                  float64
	WF                 float64
	Alt                int
	Prop               int
	Method             string
	Rounds             int
	Seed               int64
	Workers            int
	Normalize          bool
	EnumerationCeiling int
}

type RunSummary struct {
	RunID            string
	Rounds           int
	FinalPerformance float64
	FinalSynchrony   float64
	GlobalMaximum    float64
	Normalized       bool
	Performance      []float64
	Synchrony        []float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	Seed             int64
	Agents           int
	Rounds           int
	FinalPerformance float64
	FinalSynchrony   float64
	Normalized       bool
}

type HistoryRequest struct {
	RunID string
	Limit int
}

type ExportRequest struct {
	RunID  string
	OutDir string
}

type ExportSummary struct {
	RunID string
	Path  string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureInit(ctx)
}

// ensureInit initializes the store exactly once; every operation that
// touches the store goes through it, so an explicit Init is optional.
func (c *Client) ensureInit(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Run executes one full simulation and persists its summary and series.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.ensureInit(ctx); err != nil {
		return RunSummary{}, err
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.N <= 0 {
		req.N = 4
	}
	if req.P <= 0 {
		req.P = 10
	}
	if req.Shape == "" {
		req.Shape = landscape.ShapeRoll
	}
	if req.Network == "" {
		req.Network = social.NetworkCycle
	}
	if req.Deg <= 0 {
		req.Deg = 2
	}
	if req.Nsoc <= 0 {
		req.Nsoc = (req.N + 1) / 2
	}
	if req.Tm <= 0 {
		req.Tm = 1
	}
	if req.W == 0 {
		req.W = 1.0
	}
	if req.WF == 0 {
		req.WF = 1.0
	}
	if req.Alt <= 0 {
		req.Alt = req.N
	}
	if req.Prop <= 0 {
		req.Prop = 1
	}
	if req.Method == "" {
		req.Method = "utility"
	}
	if req.Rounds <= 0 {
		req.Rounds = 100
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}

	params := model.RunParameters{
		N:                  req.N,
		K:                  req.K,
		C:                  req.C,
		S:                  req.S,
		Rho:                req.Rho,
		P:                  req.P,
		Shape:              req.Shape,
		Network:            req.Network,
		Deg:                req.Deg,
		Nsoc:               req.Nsoc,
		Tm:                 req.Tm,
		W:                  req.W,
		WF:                 req.WF,
		Alt:                req.Alt,
		Prop:               req.Prop,
		Method:             req.Method,
		Rounds:             req.Rounds,
		Seed:               req.Seed,
		Workers:            req.Workers,
		Normalize:          req.Normalize,
		EnumerationCeiling: req.EnumerationCeiling,
	}

	organization, err := org.New(params, rand.New(rand.NewSource(req.Seed)))
	if err != nil {
		return RunSummary{}, err
	}
	result, err := organization.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	summary := model.RunSummary{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:               req.RunID,
		Parameters:       params,
		Rounds:           len(result.Performance),
		FinalPerformance: result.Performance[len(result.Performance)-1],
		FinalSynchrony:   result.Synchrony[len(result.Synchrony)-1],
		GlobalMaximum:    result.GlobalMaximum,
		Normalized:       result.Normalized,
	}
	if err := c.store.SaveRunSummary(ctx, summary); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SavePerformanceHistory(ctx, req.RunID, result.Performance); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveSynchronyHistory(ctx, req.RunID, result.Synchrony); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            req.RunID,
		Rounds:           summary.Rounds,
		FinalPerformance: summary.FinalPerformance,
		FinalSynchrony:   summary.FinalSynchrony,
		GlobalMaximum:    summary.GlobalMaximum,
		Normalized:       summary.Normalized,
		Performance:      result.Performance,
		Synchrony:        result.Synchrony,
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	summaries, err := c.store.ListRunSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(summaries) > req.Limit {
		summaries = summaries[:req.Limit]
	}
	items := make([]RunItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, RunItem{
			RunID:            s.ID,
			Seed:             s.Parameters.Seed,
			Agents:           s.Parameters.P,
			Rounds:           s.Rounds,
			FinalPerformance: s.FinalPerformance,
			FinalSynchrony:   s.FinalSynchrony,
			Normalized:       s.Normalized,
		})
	}
	return items, nil
}

// PerformanceHistory returns the stored per-round mean performance.
func (c *Client) PerformanceHistory(ctx context.Context, req HistoryRequest) ([]float64, error) {
	if req.RunID == "" {
		return nil, errors.New("performance history requires a run id")
	}
	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetPerformanceHistory(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run %s has no performance history", req.RunID)
	}
	return clipHistory(history, req.Limit), nil
}

// SynchronyHistory returns the stored per-round synchrony series.
func (c *Client) SynchronyHistory(ctx context.Context, req HistoryRequest) ([]float64, error) {
	if req.RunID == "" {
		return nil, errors.New("synchrony history requires a run id")
	}
	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetSynchronyHistory(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run %s has no synchrony history", req.RunID)
	}
	return clipHistory(history, req.Limit), nil
}

func clipHistory(history []float64, limit int) []float64 {
	if limit > 0 && len(history) > limit {
		return history[len(history)-limit:]
	}
	return history
}

// Export writes a run's round series to a CSV file under the exports
// directory and returns the file path.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID == "" {
		return ExportSummary{}, errors.New("export requires a run id")
	}
	if err := c.ensureInit(ctx); err != nil {
		return ExportSummary{}, err
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = c.exportsDir
	}

	summary, ok, err := c.store.GetRunSummary(ctx, req.RunID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("run %s not found", req.RunID)
	}
	performance, ok, err := c.store.GetPerformanceHistory(ctx, req.RunID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("run %s has no performance history", req.RunID)
	}
	synchrony, ok, err := c.store.GetSynchronyHistory(ctx, req.RunID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("run %s has no synchrony history", req.RunID)
	}
	if len(performance) != len(synchrony) {
		return ExportSummary{}, fmt.Errorf("run %s: series lengths differ (%d vs %d)",
			req.RunID, len(performance), len(synchrony))
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return ExportSummary{}, err
	}
	path := filepath.Join(outDir, summary.ID+".csv")
	file, err := os.Create(path)
	if err != nil {
		return ExportSummary{}, err
	}
	defer func() {
		_ = file.Close()
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"round", "performance", "synchrony"}); err != nil {
		return ExportSummary{}, err
	}
	for i := range performance {
		record := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(performance[i], 'f', -1, 64),
			strconv.FormatFloat(synchrony[i], 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return ExportSummary{}, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return ExportSummary{}, err
	}

	return ExportSummary{RunID: summary.ID, Path: path}, nil
}
