package pipeline

import (
	"github.com/modootree/searchstream/pkg/aggregate"
	"github.com/modootree/searchstream/pkg/classify"
	"github.com/modootree/searchstream/pkg/synth"
)

// Stage identifies which step of the pipeline an event belongs to.
type Stage string

const (
	StageCache     Stage = "cache"
	StageClassify  Stage = "classify"
	StageSearch    Stage = "search"
	StageFilter    Stage = "filter"
	StageScrape    Stage = "scrape"
	StageSynthesis Stage = "synthesis"
	StageComplete  Stage = "complete"
	StageError     Stage = "error"
)

// Status qualifies a stage event.
type Status string

const (
	StatusStarted   Status = "started"
	StatusFinished  Status = "finished"
	StatusStreaming Status = "streaming"
	StatusSkipped   Status = "skipped"
	StatusHit       Status = "hit"
)

// Event is one frame of the pipeline's progress stream. Only the
// fields relevant to the stage are populated.
type Event struct {
	Stage         Stage                   `json:"stage"`
	Status        Status                  `json:"status"`
	Message       string                  `json:"message,omitempty"`
	Category      classify.Category       `json:"category,omitempty"`
	Count         int                     `json:"count,omitempty"`
	PartialAnswer string                  `json:"partial_answer,omitempty"`
	Item          *synth.StructuredItem   `json:"item,omitempty"`
	Summary       string                  `json:"summary,omitempty"`
	Items         []synth.StructuredItem  `json:"items,omitempty"`
	Sources       []aggregate.Candidate   `json:"sources,omitempty"`
	Elapsed       float64                 `json:"elapsed,omitempty"`
	FromCache     bool                    `json:"from_cache,omitempty"`
	Error         string                  `json:"error,omitempty"`
}
