package schema

import (
	"encoding/json"
	"time"
)

// Report summarises one initializer run.
type Report struct {
	Database    string             `json:"database"`
	StartedAt   time.Time          `json:"startedAt"`
	FinishedAt  time.Time          `json:"finishedAt"`
	Projects    []string           `json:"projects,omitempty"`
	Collections []CollectionResult `json:"collections"`
	Error       string             `json:"error,omitempty"`
}

// NewReport starts a report for database.
func NewReport(database string) *Report {
	return &Report{Database: database, StartedAt: time.Now().UTC()}
}

// Add appends collection results.
func (r *Report) Add(results ...CollectionResult) {
	r.Collections = append(r.Collections, results...)
}

// Finish stamps the end time and records err, if any.
func (r *Report) Finish(err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Error = err.Error()
	}
}

// Created counts the collections this run created.
func (r *Report) Created() int {
	n := 0
	for _, c := range r.Collections {
		if c.Created {
			n++
		}
	}
	return n
}

// JSON renders the report with indentation.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
