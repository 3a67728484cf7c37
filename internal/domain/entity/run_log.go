package entity

import "time"

// Run kinds
const (
	RunKindReconcile = "reconcile"
	RunKindUpdate    = "update"
)

// RunLog records one reconciliation or update pass
type RunLog struct {
	RunID      string         `json:"runId" bson:"runId"`
	Kind       string         `json:"kind" bson:"kind"`
	StartedAt  time.Time      `json:"startedAt" bson:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt" bson:"finishedAt"`
	Counts     map[string]int `json:"counts" bson:"counts"`
	Errors     []string       `json:"errors,omitempty" bson:"errors,omitempty"`
}
