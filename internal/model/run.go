package model

import (
	"time"

	"github.com/google/uuid"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunSettings records how an evaluation was configured.
type RunSettings struct {
	Layout        string   `json:"layout"`
	Map           []string `json:"map"`
	Order         string   `json:"order"`
	Gamma         float64  `json:"gamma"`
	Threshold     float64  `json:"threshold"`
	BaseReward    float64  `json:"base_reward"`
	BorderReset   string   `json:"border_reset"`
	TerminalReset string   `json:"terminal_reset"`
	Seed          int64    `json:"seed"`
	MaxSweeps     int      `json:"max_sweeps"`
	Actions       int      `json:"actions"`
}

// Run is one completed (or abandoned) policy evaluation.
type Run struct {
	VersionedRecord
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Settings  RunSettings `json:"settings"`
	Sweeps    int         `json:"sweeps"`
	Delta     float64     `json:"delta"`
	Converged bool        `json:"converged"`
	Deltas    []float64   `json:"deltas"`
	Values    [][]float64 `json:"values"`
}

func NewRunID() string {
	return uuid.NewString()
}
