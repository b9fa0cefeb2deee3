package core

// update.go implements update mode: a positional file, usually produced by
// the data export, that replaces or inserts plans by identifier.
//
// The first line is a header and is ignored. Every other line must split into
// exactly PlanUpdateArity fields on ";"; only trailing blank lines are
// tolerated. The whole file is checked
// before anything is written, so a malformed line aborts without side effects.

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seduc-am/planoacao/internal/logging"
	"github.com/seduc-am/planoacao/internal/metrics"
)

// updateLine is one data line split into fields, with its 1-based line number.
type updateLine struct {
	number int
	fields []string
}

// splitUpdateLines returns every data line, or a MismatchError for the first
// line whose arity is wrong.
func splitUpdateLines(text []byte) ([]updateLine, error) {
	var lines []updateLine

	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	number, blank := 0, 0
	for scanner.Scan() {
		number++
		if number == 1 {
			continue
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if blank == 0 {
				blank = number
			}
			continue
		}
		// A blank line followed by data is a one-field row.
		if blank != 0 {
			return nil, &MismatchError{Line: blank, Got: 1, Expected: PlanUpdateArity}
		}
		fields := strings.Split(line, ";")
		if len(fields) != PlanUpdateArity {
			return nil, &MismatchError{Line: number, Got: len(fields), Expected: PlanUpdateArity}
		}
		for i := range fields {
			fields[i] = unquoteField(fields[i])
		}
		lines = append(lines, updateLine{number: number, fields: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return lines, nil
}

// unquoteField undoes the quoting the data export applies to cells that
// start with a quote: `"""a"" b"` becomes `"a" b`. Other fields are returned
// unchanged.
func unquoteField(f string) string {
	t := strings.TrimSpace(f)
	if len(t) < 2 || t[0] != '"' || t[len(t)-1] != '"' {
		return f
	}
	return strings.ReplaceAll(t[1:len(t)-1], `""`, `"`)
}

// planFromUpdateLine maps positional fields. It reports false when the
// identifier is empty or not a positive integer.
func planFromUpdateLine(fields []string) (ActionPlan, bool) {
	id, ok := ParseID(fields[0])
	if !ok {
		return ActionPlan{}, false
	}
	plan := ActionPlan{ID: id}
	for i, spec := range PlanUpdateColumns[1:] {
		setPlanField(&plan, spec.DBColumn, fields[i+1])
	}
	return plan, true
}

// UpdatePlans runs update mode over a raw upload.
func (s *Service) UpdatePlans(ctx context.Context, data []byte) (UpdateResult, error) {
	start := time.Now()
	log := logging.FromContext(ctx)

	text, err := DecodeText(data)
	if err != nil {
		return UpdateResult{}, err
	}

	lines, err := splitUpdateLines(text)
	if err != nil {
		return UpdateResult{}, err
	}

	var (
		result UpdateResult
		now    = s.clock.Now()
		batch  = make([]ActionPlan, 0, s.opts.BatchSize)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.store.UpsertPlans(ctx, batch)
		if err != nil {
			return fmt.Errorf("upsert plans: %w", err)
		}
		result.Upserted += n
		metrics.AddImportRows(metrics.ModeUpdate, metrics.OutcomeUpserted, n)
		batch = batch[:0]
		return nil
	}

	for _, line := range lines {
		plan, ok := planFromUpdateLine(line.fields)
		if !ok {
			result.Skipped++
			log.Debug("update row without identifier dropped", "line", line.number)
			continue
		}
		// Only used when the id is new; the store keeps the stored
		// created_at and ano of existing rows.
		stampCreation(&plan, now)
		batch = append(batch, plan)

		if len(batch) >= s.opts.BatchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	metrics.AddImportRows(metrics.ModeUpdate, metrics.OutcomeSkipped, int64(result.Skipped))
	result.Duration = time.Since(start)
	log.Info("plans updated",
		"upserted", result.Upserted,
		"skipped", result.Skipped,
		"duration", result.Duration,
	)
	return result, nil
}
