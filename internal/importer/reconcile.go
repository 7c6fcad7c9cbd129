package importer

import (
	"sort"
)

// Unlimited is the quota limit that never blocks.
const Unlimited = -1

// DuplicatePreviewCap bounds the identifiers echoed back for persisted duplicates.
const DuplicatePreviewCap = 10

// DuplicateSplit separates a selection into rows that may proceed and rows
// whose natural key already exists in the store.
type DuplicateSplit struct {
	Accepted []int    `json:"accepted"`
	Rejected []int    `json:"rejected"`
	Preview  []string `json:"preview"`
}

// Err returns a PersistedDuplicateError when anything was rejected.
func (d DuplicateSplit) Err() error {
	if len(d.Rejected) == 0 {
		return nil
	}
	return &PersistedDuplicateError{Count: len(d.Rejected), Remaining: len(d.Accepted), Sample: d.Preview}
}

// SelectionKeys returns the natural keys of the selected rows, in order.
func SelectionKeys(rows []NormalizedRow, selection []int) []string {
	keys := make([]string, 0, len(selection))
	for _, i := range selection {
		keys = append(keys, rows[i].NaturalKey())
	}
	return keys
}

// SplitPersistedDuplicates removes rows whose natural key is in persisted.
func SplitPersistedDuplicates(rows []NormalizedRow, selection []int, persisted KeySet) DuplicateSplit {
	split := DuplicateSplit{Accepted: make([]int, 0, len(selection))}
	for _, i := range selection {
		k := rows[i].NaturalKey()
		if persisted.Has(k) {
			split.Rejected = append(split.Rejected, i)
			if len(split.Preview) < DuplicatePreviewCap {
				split.Preview = append(split.Preview, displayKey(rows[i]))
			}
			continue
		}
		split.Accepted = append(split.Accepted, i)
	}
	return split
}

func displayKey(row NormalizedRow) string {
	switch r := row.(type) {
	case *BostaShipmentRow:
		return r.TrackingNumber
	case *ShipbluTrackingRow:
		return r.TrackingNumber
	}
	return row.NaturalKey()
}

// QuotaOutcome is the result of checking a selection against a plan limit.
type QuotaOutcome string

const (
	QuotaUnlimited       QuotaOutcome = "unlimited"
	QuotaWithin          QuotaOutcome = "within"
	QuotaWouldBeExceeded QuotaOutcome = "would_be_exceeded"
	QuotaAlreadyExceeded QuotaOutcome = "already_exceeded"
)

// QuotaDecision carries the outcome and the capacity left. RemainingCapacity
// is Unlimited when no limit applies.
type QuotaDecision struct {
	Outcome           QuotaOutcome `json:"outcome"`
	Resource          Resource     `json:"resource,omitempty"`
	Selected          int          `json:"selected"`
	Current           int          `json:"current"`
	Limit             int          `json:"limit"`
	RemainingCapacity int          `json:"remainingCapacity"`
}

// EvaluateQuota applies the plan limit to a selection of size selected.
func EvaluateQuota(resource Resource, selected, current, limit int) QuotaDecision {
	d := QuotaDecision{Resource: resource, Selected: selected, Current: current, Limit: limit}

	switch {
	case limit == Unlimited || resource == ResourceNone:
		d.Outcome = QuotaUnlimited
		d.RemainingCapacity = Unlimited
	case current >= limit:
		d.Outcome = QuotaAlreadyExceeded
		d.RemainingCapacity = 0
	case current+selected > limit:
		d.Outcome = QuotaWouldBeExceeded
		d.RemainingCapacity = max(0, limit-current)
	default:
		d.Outcome = QuotaWithin
		d.RemainingCapacity = limit - current
	}
	return d
}

// Err maps blocking outcomes onto their typed errors.
func (d QuotaDecision) Err() error {
	switch d.Outcome {
	case QuotaAlreadyExceeded:
		return &QuotaAlreadyExceededError{Resource: d.Resource, Current: d.Current, Limit: d.Limit}
	case QuotaWouldBeExceeded:
		return &QuotaWouldBeExceededError{
			Resource:          d.Resource,
			Current:           d.Current,
			Limit:             d.Limit,
			Selected:          d.Selected,
			RemainingCapacity: d.RemainingCapacity,
		}
	}
	return nil
}

// Truncate keeps the first capacity indexes of selection in file order.
// A negative capacity means unlimited.
func Truncate(selection []int, capacity int) []int {
	sorted := NormalizeSelection(selection)
	if capacity < 0 || capacity >= len(sorted) {
		return sorted
	}
	return sorted[:capacity]
}

// NormalizeSelection returns a sorted copy of selection with repeats removed.
func NormalizeSelection(selection []int) []int {
	out := make([]int, 0, len(selection))
	seen := make(map[int]struct{}, len(selection))
	for _, i := range selection {
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
