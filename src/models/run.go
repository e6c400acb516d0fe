package models

// RunState is a stage of the preprocessing pipeline.
type RunState string

const (
	StateIdle         RunState = "IDLE"
	StateValidating   RunState = "VALIDATING"
	StateEnsuringData RunState = "ENSURING_DATA"
	StateBuilding     RunState = "BUILDING"
	StatePersisting   RunState = "PERSISTING"
	StateAnalysing    RunState = "ANALYSING"
	StateDone         RunState = "DONE"
	StateFailed       RunState = "FAILED"
)

// MRunEvent is published on every state transition of a run.
type MRunEvent struct {
	RunID     string   `json:"run_id"`
	State     RunState `json:"state"`
	Message   string   `json:"message,omitempty"`
	Artifact  string   `json:"artifact,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// MTokenScore is one row of the top movers table.
type MTokenScore struct {
	Token    string  `json:"token"`
	BtcPrice float64 `json:"btc_price"`
}

// MCorrelationMatrix is a square matrix over Labels.
type MCorrelationMatrix struct {
	Labels []string    `json:"labels"`
	Values [][]float64 `json:"values"`
}

// MAnalysisReport is the outcome of a complete analysis run.
type MAnalysisReport struct {
	RunID       string             `json:"run_id"`
	TablePath   string             `json:"table_path"`
	PlotPath    string             `json:"plot_path"`
	HeatMapPath string             `json:"heat_map_path"`
	TopTokens   []MTokenScore      `json:"top_tokens"`
	Correlation MCorrelationMatrix `json:"correlation"`
	FinishedAt  int64              `json:"finished_at"`
}

// MArtifact describes one file written by a run.
type MArtifact struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Size       int64  `json:"size"`
	ModifiedAt int64  `json:"modified_at"`
}

// MServerMessage is what the report server pushes to websocket clients.
type MServerMessage struct {
	Type   string           `json:"type"` // INITIAL, EVENT or REPORT
	Event  *MRunEvent       `json:"event,omitempty"`
	Report *MAnalysisReport `json:"report,omitempty"`
}

// MClientCommand is a websocket request from a client.
type MClientCommand struct {
	Command string `json:"command"`
}
