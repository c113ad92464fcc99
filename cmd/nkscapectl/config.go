package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	nkapi "nkscape/pkg/nkscape"
)

// loadRunRequestFromConfig reads a JSON run configuration. Keys match
// the stored run parameter names; unknown keys are ignored so saved
// summaries round-trip as configs.
func loadRunRequestFromConfig(path string) (nkapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nkapi.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nkapi.RunRequest{}, err
	}

	var req nkapi.RunRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asInt(raw["n"]); ok {
		req.N = v
	}
	if v, ok := asInt(raw["k"]); ok {
		req.K = v
	}
	if v, ok := asInt(raw["c"]); ok {
		req.C = v
	}
	if v, ok := asInt(raw["s"]); ok {
		req.S = v
	}
	if v, ok := asFloat64(raw["rho"]); ok {
		req.Rho = v
	}
	if v, ok := asInt(raw["p"]); ok {
		req.P = v
	}
	if v, ok := asString(raw["shape"]); ok {
		req.Shape = v
	}
	if v, ok := asString(raw["network"]); ok {
		req.Network = v
	}
	if v, ok := asInt(raw["deg"]); ok {
		req.Deg = v
	}
	if v, ok := asInt(raw["nsoc"]); ok {
		req.Nsoc = v
	}
	if v, ok := asInt(raw["tm"]); ok {
		req.Tm = v
	}
	if v, ok := asFloat64(raw["w"]); ok {
		req.W = v
	}
	if v, ok := asFloat64(raw["wf"]); ok {
		req.WF = v
	}
	if v, ok := asInt(raw["alt"]); ok {
		req.Alt = v
	}
	if v, ok := asInt(raw["prop"]); ok {
		req.Prop = v
	}
	if v, ok := asString(raw["method"]); ok {
		req.Method = v
	}
	if v, ok := asInt(raw["rounds"]); ok {
		req.Rounds = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asBool(raw["normalize"]); ok {
		req.Normalize = v
	}
	if v, ok := asInt(raw["enumeration_ceiling"]); ok {
		req.EnumerationCeiling = v
	}
	return req, nil
}

func loadOrDefaultRunRequest(configPath string) (nkapi.RunRequest, error) {
	if configPath == "" {
		return nkapi.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return nkapi.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

// runOverrides carries the parsed run flags; applyRunOverrides copies
// onto the request only the flags the user actually set, so a config
// file and flags compose with flags winning.
type runOverrides struct {
	N, K, C, S     int
	Rho            float64
	P              int
	Shape, Network string
	Deg, Nsoc, Tm  int
	W, WF          float64
	Alt, Prop      int
	Method         string
	Rounds         int
	Seed           int64
	Workers        int
	Normalize      bool
}

func applyRunOverrides(req *nkapi.RunRequest, set map[string]bool, o runOverrides) {
	if set["n"] {
		req.N = o.N
	}
	if set["k"] {
		req.K = o.K
	}
	if set["c"] {
		req.C = o.C
	}
	if set["s"] {
		req.S = o.S
	}
	if set["rho"] {
		req.Rho = o.Rho
	}
	if set["p"] {
		req.P = o.P
	}
	if set["shape"] {
		req.Shape = o.Shape
	}
	if set["network"] {
		req.Network = o.Network
	}
	if set["deg"] {
		req.Deg = o.Deg
	}
	if set["nsoc"] {
		req.Nsoc = o.Nsoc
	}
	if set["tm"] {
		req.Tm = o.Tm
	}
	if set["w"] {
		req.W = o.W
	}
	if set["wf"] {
		req.WF = o.WF
	}
	if set["alt"] {
		req.Alt = o.Alt
	}
	if set["prop"] {
		req.Prop = o.Prop
	}
	if set["method"] {
		req.Method = o.Method
	}
	if set["rounds"] {
		req.Rounds = o.Rounds
	}
	if set["seed"] {
		req.Seed = o.Seed
	}
	if set["workers"] {
		req.Workers = o.Workers
	}
	if set["normalize"] {
		req.Normalize = o.Normalize
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asFloat64(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func asInt64(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
