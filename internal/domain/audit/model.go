package audit

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// History types recorded against a monitoree.
const (
	HistoryEnrollment      = "Enrollment"
	HistoryRecordEdit      = "Record Edit"
	HistoryMonitoring      = "Monitoring Change"
	HistoryContact         = "Close Contact"
	HistoryContactEdit     = "Close Contact Edit"
	HistoryVaccination     = "Vaccination"
	HistoryVaccinationEdit = "Vaccination Edit"
)

// History is an append-only audit entry on a monitoree's record.
type History struct {
	ID          int64     `db:"id" json:"id"`
	PatientID   int64     `db:"patient_id" json:"patient_id"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	HistoryType string    `db:"history_type" json:"history_type"`
	Comment     string    `db:"comment" json:"comment"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (h *History) Identifier() int64 { return h.ID }

// Transfer records a monitoree moving between jurisdictions.
type Transfer struct {
	ID                 int64     `db:"id" json:"id"`
	PatientID          int64     `db:"patient_id" json:"patient_id"`
	FromJurisdictionID int64     `db:"from_jurisdiction_id" json:"from_jurisdiction_id"`
	ToJurisdictionID   int64     `db:"to_jurisdiction_id" json:"to_jurisdiction_id"`
	WhoID              int64     `db:"who_id" json:"who_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// Change is one attribute that differs between the stored and submitted
// record.
type Change struct {
	Label string
	From  string
	To    string
}

// DescribeChanges renders changes for a history comment.
func DescribeChanges(changes []Change) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, fmt.Sprintf("%s (%q to %q)", c.Label, c.From, c.To))
	}
	return strings.Join(parts, ", ")
}

// Diff lists the attributes whose rendered values differ, in attribute
// order, named by labels.
func Diff(before, after, labels map[string]string) []Change {
	attrs := make([]string, 0, len(before))
	for attr := range before {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	var out []Change
	for _, attr := range attrs {
		if before[attr] != after[attr] {
			out = append(out, Change{Label: labels[attr], From: before[attr], To: after[attr]})
		}
	}
	return out
}
