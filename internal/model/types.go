package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunParameters fixes every knob of a simulation run at construction.
type RunParameters struct {
	N                  int     `json:"n"`         // bits per agent
	K                  int     `json:"k"`         // within-agent interdependencies
	C                  int     `json:"c"`         // coupled bits per external agent
	S                  int     `json:"s"`         // external agents coupled to each bit
	Rho                float64 `json:"rho"`       // cross-landscape correlation
	P                  int     `json:"p"`         // number of agents
	Shape              string  `json:"shape"`     // interaction matrix shape
	Network            string  `json:"network"`   // peer topology kind
	Deg                int     `json:"deg"`       // peer degree
	Nsoc               int     `json:"nsoc"`      // social bits per agent
	Tm                 int     `json:"tm"`        // social memory depth
	W                  float64 `json:"w"`         // utility weight: incentive vs conformity
	WF                 float64 `json:"wf"`        // incentive weight: own vs peers
	Alt                int     `json:"alt"`       // alternatives screened per round
	Prop               int     `json:"prop"`      // proposals kept per round
	Method             string  `json:"method"`    // screening policy name
	Rounds             int     `json:"rounds"`    // run length
	Seed               int64   `json:"seed"`      // random seed (0 means time-based)
	Workers            int     `json:"workers"`   // screening parallelism
	Normalize          bool    `json:"normalize"` // divide performance by the global maximum
	EnumerationCeiling int     `json:"enumeration_ceiling,omitempty"`
}

// RunSummary is the persistent record of one completed run.
type RunSummary struct {
	VersionedRecord
	ID               string        `json:"id"`
	Parameters       RunParameters `json:"parameters"`
	Rounds           int           `json:"rounds"`
	FinalPerformance float64       `json:"final_performance"`
	FinalSynchrony   float64       `json:"final_synchrony"`
	GlobalMaximum    float64       `json:"global_maximum,omitempty"`
	Normalized       bool          `json:"normalized"`
}
