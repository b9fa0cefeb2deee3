package core

// preview.go analyzes an update-mode file without writing anything, so an
// operator can see which plans a file would replace, insert or drop.

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	maxNewSamples     = 10
	maxUpdateDiffs    = 10
	maxDuplicateLines = 10
)

// PreviewSummary counts what UpdatePlans would do with the file.
type PreviewSummary struct {
	TotalRows        int `json:"total_rows"`
	NewRows          int `json:"new_rows"`
	UpdateRows       int `json:"update_rows"`
	UnchangedRows    int `json:"unchanged_rows"`
	UnresolvableRows int `json:"unresolvable_rows"`
	DuplicateIDs     int `json:"duplicate_ids"`
}

// FieldChange is one column whose stored value would be replaced.
type FieldChange struct {
	Column   string `json:"column"`
	Current  string `json:"current"`
	Incoming string `json:"incoming"`
}

// UpdateDiff lists the changes for one existing plan.
type UpdateDiff struct {
	Line    int           `json:"line"`
	ID      int64         `json:"id"`
	Changes []FieldChange `json:"changes"`
}

// NewRowSample is a row whose id is not stored yet.
type NewRowSample struct {
	Line   int    `json:"line"`
	ID     int64  `json:"id"`
	Sigeam string `json:"sigeam"`
}

// DuplicateID is an id that appears on more than one line; the last line wins.
type DuplicateID struct {
	ID    int64 `json:"id"`
	Lines []int `json:"lines"`
}

// UpdatePreview is the read-only analysis of an update-mode file.
type UpdatePreview struct {
	Summary      PreviewSummary `json:"summary"`
	NewRows      []NewRowSample `json:"new_rows"`
	UpdateDiffs  []UpdateDiff   `json:"update_diffs"`
	Duplicates   []DuplicateID  `json:"duplicates"`
	ProcessingMs int64          `json:"processing_ms"`
}

// PreviewUpdate runs the checks of UpdatePlans and compares every row with
// the stored plan. A structural mismatch is returned as an error, exactly as
// UpdatePlans would.
func (s *Service) PreviewUpdate(ctx context.Context, data []byte) (UpdatePreview, error) {
	start := time.Now()

	text, err := DecodeText(data)
	if err != nil {
		return UpdatePreview{}, err
	}
	lines, err := splitUpdateLines(text)
	if err != nil {
		return UpdatePreview{}, err
	}

	preview := UpdatePreview{
		Summary:     PreviewSummary{TotalRows: len(lines)},
		NewRows:     []NewRowSample{},
		UpdateDiffs: []UpdateDiff{},
		Duplicates:  []DuplicateID{},
	}
	seen := make(map[int64][]int)

	for _, line := range lines {
		incoming, ok := planFromUpdateLine(line.fields)
		if !ok {
			preview.Summary.UnresolvableRows++
			continue
		}
		seen[incoming.ID] = append(seen[incoming.ID], line.number)

		current, err := s.store.GetPlan(ctx, incoming.ID)
		if errors.Is(err, ErrNotFound) {
			preview.Summary.NewRows++
			if len(preview.NewRows) < maxNewSamples {
				preview.NewRows = append(preview.NewRows, NewRowSample{Line: line.number, ID: incoming.ID, Sigeam: incoming.Sigeam})
			}
			continue
		}
		if err != nil {
			return UpdatePreview{}, fmt.Errorf("load plan %d: %w", incoming.ID, err)
		}

		changes := diffPlans(current, incoming)
		if len(changes) == 0 {
			preview.Summary.UnchangedRows++
			continue
		}
		preview.Summary.UpdateRows++
		if len(preview.UpdateDiffs) < maxUpdateDiffs {
			preview.UpdateDiffs = append(preview.UpdateDiffs, UpdateDiff{Line: line.number, ID: incoming.ID, Changes: changes})
		}
	}

	for _, line := range lines {
		id, ok := ParseID(line.fields[0])
		if !ok || len(seen[id]) < 2 {
			continue
		}
		preview.Summary.DuplicateIDs++
		if len(preview.Duplicates) < maxDuplicateLines {
			preview.Duplicates = append(preview.Duplicates, DuplicateID{ID: id, Lines: seen[id]})
		}
		delete(seen, id)
	}

	preview.ProcessingMs = time.Since(start).Milliseconds()
	return preview, nil
}

// diffPlans compares the columns update mode writes, rendered as cells.
func diffPlans(current, incoming ActionPlan) []FieldChange {
	var changes []FieldChange
	for _, spec := range PlanImportColumns {
		cur, in := planField(current, spec.DBColumn), planField(incoming, spec.DBColumn)
		if cur != in {
			changes = append(changes, FieldChange{Column: spec.DBColumn, Current: cur, Incoming: in})
		}
	}
	return changes
}

// String is used in log lines.
func (p PreviewSummary) String() string {
	return "total=" + strconv.Itoa(p.TotalRows) +
		" new=" + strconv.Itoa(p.NewRows) +
		" update=" + strconv.Itoa(p.UpdateRows) +
		" unresolvable=" + strconv.Itoa(p.UnresolvableRows)
}
