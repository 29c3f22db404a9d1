// SPDX-License-Identifier: MIT
package pipeline

import "noiseless/internal/analysis"

// Stage names a pipeline step in progress events.
type Stage string

const (
	StageDecode  Stage = "decode"
	StageDenoise Stage = "denoise"
	StageEffects Stage = "effects"
	StageEncode  Stage = "encode"
	StageDone    Stage = "done"
	StageFailed  Stage = "failed"
)

// numStages counts the steps that report progress.
const numStages = 4

// Event is sent on the run's transport when a stage starts, once more when
// the run finishes and once if it fails.
type Event struct {
	JobID    string           `json:"job_id,omitempty"`
	Stage    Stage            `json:"stage"`
	Progress float64          `json:"progress"` // fraction of stages finished
	Elapsed  int64            `json:"elapsed_ms"`
	Error    string           `json:"error,omitempty"`
	File     string           `json:"file,omitempty"`
	Input    *analysis.Report `json:"input,omitempty"`
	Output   *analysis.Report `json:"output,omitempty"`
}

// Terminal reports whether no further events follow ev.
func (ev Event) Terminal() bool {
	return ev.Stage == StageDone || ev.Stage == StageFailed
}
