package model

import "time"

// RunStatus is the lifecycle state of a harvest run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunKind names what a run harvested.
type RunKind string

const (
	RunKindPostal RunKind = "postal"
	RunKindState  RunKind = "state"
	RunKindEmails RunKind = "emails"
)

// RunCounts summarizes a finished run.
type RunCounts struct {
	Completed int `json:"completed"`
	Empty     int `json:"empty"`
	Skipped   int `json:"skipped"`
	Rows      int `json:"rows"`
}

// Run is one entry in the run ledger.
type Run struct {
	ID        string    `json:"id"`
	Kind      RunKind   `json:"kind"`
	Region    string    `json:"region"`
	Status    RunStatus `json:"status"`
	Counts    RunCounts `json:"counts"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
