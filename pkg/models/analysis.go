package models

import (
	"time"
)

// File processing statuses
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// FileReport represents the outcome of processing one sweep log
type FileReport struct {
	Path          string        `json:"path" yaml:"path"`
	Label         string        `json:"label" yaml:"label"`
	Status        string        `json:"status" yaml:"status" enum:"ok,failed"`
	ErrorKind     string        `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	ErrorMsg      string        `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	Rows          int           `json:"rows" yaml:"rows"`
	Bins          int           `json:"bins" yaml:"bins"`
	FreqLowHz     float64       `json:"freq_low_hz,omitempty" yaml:"freq_low_hz,omitempty"`
	FreqHighHz    float64       `json:"freq_high_hz,omitempty" yaml:"freq_high_hz,omitempty"`
	BaselineDB    float64       `json:"baseline_db" yaml:"baseline_db"`
	ThresholdDB   float64       `json:"threshold_db" yaml:"threshold_db"`
	Candidates    int           `json:"candidates" yaml:"candidates"`
	HeatmapPath   string        `json:"heatmap_path,omitempty" yaml:"heatmap_path,omitempty"`
	CandidatePath string        `json:"candidate_path,omitempty" yaml:"candidate_path,omitempty"`
	FirstSweep    *time.Time    `json:"first_sweep,omitempty" yaml:"first_sweep,omitempty"`
	LastSweep     *time.Time    `json:"last_sweep,omitempty" yaml:"last_sweep,omitempty"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// BatchSummary represents one run over a resolved list of input files
type BatchSummary struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" yaml:"finished_at"`
	MarginDB   float64       `json:"margin_db" yaml:"margin_db"`
	Reducer    string        `json:"reducer" yaml:"reducer"`
	Files      []*FileReport `json:"files" yaml:"files"`
	Succeeded  int           `json:"succeeded" yaml:"succeeded"`
	Failed     int           `json:"failed" yaml:"failed"`
}

// Add appends a file report and updates the counters
func (s *BatchSummary) Add(r *FileReport) {
	s.Files = append(s.Files, r)
	if r.Status == StatusOK {
		s.Succeeded++
	} else {
		s.Failed++
	}
}
