package core

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/seduc-am/planoacao/internal/logging"
	"github.com/seduc-am/planoacao/internal/metrics"
)

// RegionalCoordination is the coordenadoria split into one row per municipio.
const RegionalCoordination = "REGIONAL"

var coordinatorHeader = []string{"gestao", "coordenadoria", "municipio", "coordenador", "assessor"}

// AssignRequest is the body of a coordinator or advisor assignment.
type AssignRequest struct {
	Coordenadoria string `json:"coordenadoria" validate:"required"`
	Municipio     string `json:"municipio"`
}

// ListCoordinators returns one page of jurisdiction rows ordered by id.
func (s *Service) ListCoordinators(ctx context.Context, page int) (Page[Coordinator], error) {
	req := PageRequest{Page: page, PerPage: CoordinatorsPerPage}
	rows, total, err := s.store.ListCoordinators(ctx, req)
	if err != nil {
		return Page[Coordinator]{}, fmt.Errorf("list coordinators: %w", err)
	}
	return NewPage(req, total, rows), nil
}

// CoordinatorsByUser returns the rows assigned to a coordinator.
func (s *Service) CoordinatorsByUser(ctx context.Context, userID int64) ([]Coordinator, error) {
	rows, err := s.store.CoordinatorsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("coordinators of user %d: %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("coordinators of user %d: %w", userID, ErrNotFound)
	}
	return rows, nil
}

// CoordinatorsByAdvisor returns the rows assigned to an advisor.
func (s *Service) CoordinatorsByAdvisor(ctx context.Context, userID int64) ([]Coordinator, error) {
	rows, err := s.store.CoordinatorsByAdvisor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("advisor rows of user %d: %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("advisor rows of user %d: %w", userID, ErrNotFound)
	}
	return rows, nil
}

// Assign links a user to jurisdiction rows as coordinator or advisor. The
// user must carry the matching role. REGIONAL assignments need a municipio
// and touch only that municipio's row; any other coordenadoria touches all
// of its rows. It returns how many rows were assigned.
func (s *Service) Assign(ctx context.Context, userID int64, role AssignRole, req AssignRequest) (int64, error) {
	req.Coordenadoria = normalizeCode(req.Coordenadoria)
	req.Municipio = normalizeCode(req.Municipio)
	if err := validateStruct(req); err != nil {
		return 0, err
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get user %d: %w", userID, err)
	}
	if !canAssign(u.Roles, role) {
		return 0, NewValidationError("user", fmt.Sprintf("user lacks the %s role", role))
	}

	match := CoordinatorMatch{Coordenadoria: req.Coordenadoria}
	if req.Coordenadoria == RegionalCoordination {
		if req.Municipio == "" {
			return 0, NewValidationError("municipio", "required for REGIONAL")
		}
		match.Municipio = req.Municipio
	}

	n, err := s.store.AssignCoordinator(ctx, match, role, userID)
	if err != nil {
		return 0, fmt.Errorf("assign %s: %w", role, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("assign %s to %s: %w", role, req.Coordenadoria, ErrNotFound)
	}

	logging.FromContext(ctx).Info("jurisdiction assigned",
		"role", role.String(),
		"target_user_id", userID,
		"coordenadoria", match.Coordenadoria,
		"municipio", match.Municipio,
		"rows", n,
	)
	return n, nil
}

func canAssign(r Roles, role AssignRole) bool {
	if role == AssignAdvisor {
		return r.Assessor
	}
	return r.Coordenador || r.CoordNIG
}

// DeleteCoordinator removes one jurisdiction row.
func (s *Service) DeleteCoordinator(ctx context.Context, id int64) error {
	if err := s.store.DeleteCoordinator(ctx, id); err != nil {
		return fmt.Errorf("delete coordinator %d: %w", id, err)
	}
	return nil
}

// ImportCoordinators loads a positional
// gestao;coordenadoria;municipio;coordenador;assessor file. The first line is
// a header. Values are trimmed and upper-cased. A line with fewer than five
// fields aborts the file before anything is written.
func (s *Service) ImportCoordinators(ctx context.Context, data []byte) (int64, error) {
	text, err := DecodeText(data)
	if err != nil {
		return 0, err
	}

	var rows []Coordinator
	scanner := bufio.NewScanner(bytes.NewReader(text))
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}
		raw := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		fields := strings.Split(raw, ";")
		if len(fields) < len(coordinatorHeader) {
			return 0, &MismatchError{Line: line, Got: len(fields), Expected: len(coordinatorHeader)}
		}
		rows = append(rows, Coordinator{
			Gestao:        normalizeCode(fields[0]),
			Coordenadoria: normalizeCode(fields[1]),
			Municipio:     normalizeCode(fields[2]),
			Coordenador:   normalizeCode(fields[3]),
			Assessor:      normalizeCode(fields[4]),
		})
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("invalid csv: %w", err)
	}

	var inserted int64
	for start := 0; start < len(rows); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(rows))
		n, err := s.store.InsertCoordinators(ctx, rows[start:end])
		if err != nil {
			return inserted, fmt.Errorf("insert coordinators: %w", err)
		}
		inserted += n
	}

	metrics.AddImportRows(metrics.ModeCoord, metrics.OutcomeInserted, inserted)
	logging.FromContext(ctx).Info("coordinators imported", "inserted", inserted)
	return inserted, nil
}
