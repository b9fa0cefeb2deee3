package core

// upload.go implements import mode: a header-aware, semicolon-delimited
// spreadsheet whose rows become new action plans.
//
// Rows are collected into batches of Options.BatchSize and flushed through
// Store.InsertPlans. There is no transaction around the whole file: batches
// already flushed stay committed when a later one fails.

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/seduc-am/planoacao/internal/logging"
	"github.com/seduc-am/planoacao/internal/metrics"
)

// contextCheckInterval is how many rows are read between cancellation checks.
const contextCheckInterval = 100

// newSpreadsheetReader configures encoding/csv for the department's files.
func newSpreadsheetReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	return reader
}

// importColumns resolves each import column to its position in header, or
// -1 when the file does not carry it.
func importColumns(header []string) []int {
	idx := MakeHeaderIndex(header)
	positions := make([]int, len(PlanImportColumns))
	for i, spec := range PlanImportColumns {
		pos, ok := idx[strings.ToLower(spec.Name)]
		if !ok {
			pos = -1
		}
		positions[i] = pos
	}
	return positions
}

// ImportPlans runs import mode over a raw upload and returns how many
// records were registered.
func (s *Service) ImportPlans(ctx context.Context, data []byte) (ImportResult, error) {
	start := time.Now()
	log := logging.FromContext(ctx)

	text, err := DecodeText(data)
	if err != nil {
		return ImportResult{}, err
	}

	reader := newSpreadsheetReader(bytes.NewReader(text))
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ImportResult{Duration: time.Since(start)}, nil
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("invalid csv header: %w", err)
	}
	positions := importColumns(header)

	var (
		result ImportResult
		batch  = make([]ActionPlan, 0, s.opts.BatchSize)
		now    = s.clock.Now()
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.store.InsertPlans(ctx, batch)
		if err != nil {
			return fmt.Errorf("insert batch %d: %w", result.Batches+1, err)
		}
		result.Inserted += n
		result.Batches++
		metrics.AddImportRows(metrics.ModeImport, metrics.OutcomeInserted, n)
		batch = batch[:0]
		return nil
	}

	for line := 2; ; line++ {
		if line%contextCheckInterval == 0 && ctx.Err() != nil {
			return result, ctx.Err()
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("invalid csv on line %d: %w", line, err)
		}

		plan, ok := planFromImportRow(record, positions)
		if !ok {
			result.Skipped++
			continue
		}
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

	metrics.AddImportRows(metrics.ModeImport, metrics.OutcomeSkipped, int64(result.Skipped))
	result.Duration = time.Since(start)
	log.Info("plans imported",
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"batches", result.Batches,
		"duration", result.Duration,
	)
	return result, nil
}

// planFromImportRow maps one data row. It reports false when every mapped
// cell is empty.
func planFromImportRow(record []string, positions []int) (ActionPlan, bool) {
	var (
		plan  ActionPlan
		empty = true
	)
	for i, spec := range PlanImportColumns {
		raw := ""
		if pos := positions[i]; pos >= 0 && pos < len(record) {
			raw = record[pos]
		}
		if strings.TrimSpace(raw) != "" {
			empty = false
		}
		setPlanField(&plan, spec.DBColumn, raw)
	}
	return plan, !empty
}
