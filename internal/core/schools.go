package core

// schools.go relates schools to the plans filed for them and to the
// jurisdiction row responsible for them.
//
// A school whose distrito is set (anything but "-") belongs to the row whose
// coordenadoria equals that distrito. Otherwise it belongs to the row whose
// municipio matches the school's municipio after FoldName.

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/seduc-am/planoacao/internal/logging"
)

// NoDistrict marks a school correlated by municipality.
const NoDistrict = "-"

var schoolHeader = []string{"sigeam", "escola", "municipio", "distrito"}

// CoordinatorFor returns the row responsible for school, or nil.
func CoordinatorFor(school School, rows []Coordinator) *Coordinator {
	distrito := normalizeCode(school.Distrito)
	if distrito != "" && distrito != NoDistrict {
		for i := range rows {
			if normalizeCode(rows[i].Coordenadoria) == distrito {
				return &rows[i]
			}
		}
		return nil
	}

	municipio := FoldName(school.Municipio)
	if municipio == "" {
		return nil
	}
	for i := range rows {
		if FoldName(rows[i].Municipio) == municipio {
			return &rows[i]
		}
	}
	return nil
}

// ListSchools returns every school ordered by sigeam.
func (s *Service) ListSchools(ctx context.Context) ([]School, error) {
	schools, err := s.store.ListSchools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// SchoolsWithPlans returns every school that has at least one plan, with
// the action types of its plans and its coordinator row.
func (s *Service) SchoolsWithPlans(ctx context.Context) ([]SchoolView, error) {
	types, err := s.store.ActionTypesBySigeam(ctx)
	if err != nil {
		return nil, fmt.Errorf("action types: %w", err)
	}
	schools, err := s.store.ListSchools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	rows, err := s.store.AllCoordinators(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coordinators: %w", err)
	}

	views := make([]SchoolView, 0, len(types))
	for _, school := range schools {
		tipos, ok := types[school.Sigeam]
		if !ok {
			continue
		}
		views = append(views, SchoolView{
			School:      school,
			TiposAcao:   uniqueSorted(tipos),
			Coordinator: CoordinatorFor(school, rows),
		})
	}
	return views, nil
}

// SchoolsForUser narrows SchoolsWithPlans to the schools whose coordinator
// row names userID as coordinator or advisor.
func (s *Service) SchoolsForUser(ctx context.Context, userID int64) ([]SchoolView, error) {
	all, err := s.SchoolsWithPlans(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SchoolView, 0)
	for _, v := range all {
		c := v.Coordinator
		if c == nil {
			continue
		}
		if (c.UserID.Valid && c.UserID.Int64 == userID) || (c.AssessorID.Valid && c.AssessorID.Int64 == userID) {
			out = append(out, v)
		}
	}
	return out, nil
}

// SchoolWithPlans returns the view of one school.
func (s *Service) SchoolWithPlans(ctx context.Context, sigeam string) (SchoolView, error) {
	sigeam = strings.TrimSpace(sigeam)
	all, err := s.SchoolsWithPlans(ctx)
	if err != nil {
		return SchoolView{}, err
	}
	for _, v := range all {
		if v.Sigeam == sigeam {
			return v, nil
		}
	}
	return SchoolView{}, fmt.Errorf("school %s: %w", sigeam, ErrNotFound)
}

// SchoolPlans returns one page of a school's plans of one action type.
func (s *Service) SchoolPlans(ctx context.Context, tipoAcao, sigeam string, page int) (Page[PlanView], error) {
	req := PageRequest{Page: page, PerPage: SchoolPlansPerPage}
	f := PlanFilter{Sigeams: []string{strings.TrimSpace(sigeam)}, TipoAcao: strings.TrimSpace(tipoAcao)}
	plans, total, err := s.store.ListPlans(ctx, f, req)
	if err != nil {
		return Page[PlanView]{}, fmt.Errorf("school plans: %w", err)
	}
	return NewPage(req, total, s.views(plans)), nil
}

// ExportDataForUser is ExportData restricted to the user's schools.
func (s *Service) ExportDataForUser(ctx context.Context, userID int64) (Export, error) {
	views, err := s.SchoolsForUser(ctx, userID)
	if err != nil {
		return Export{}, err
	}
	if len(views) == 0 {
		return DataExport(nil), nil
	}
	sigeams := make([]string, len(views))
	for i, v := range views {
		sigeams[i] = v.Sigeam
	}
	return s.ExportData(ctx, PlanFilter{Sigeams: sigeams})
}

// ExportDataForSchool is ExportData restricted to one school.
func (s *Service) ExportDataForSchool(ctx context.Context, sigeam string) (Export, error) {
	return s.ExportData(ctx, PlanFilter{Sigeams: []string{strings.TrimSpace(sigeam)}})
}

// ImportSchools loads a positional sigeam;escola;municipio;distrito file
// with a header line. Blank distrito values become "-".
func (s *Service) ImportSchools(ctx context.Context, data []byte) (int64, error) {
	text, err := DecodeText(data)
	if err != nil {
		return 0, err
	}

	var rows []School
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
		if len(fields) < len(schoolHeader) {
			return 0, &MismatchError{Line: line, Got: len(fields), Expected: len(schoolHeader)}
		}
		distrito := normalizeCode(fields[3])
		if distrito == "" {
			distrito = NoDistrict
		}
		rows = append(rows, School{
			Sigeam:    strings.TrimSpace(fields[0]),
			Escola:    strings.TrimSpace(fields[1]),
			Municipio: normalizeCode(fields[2]),
			Distrito:  distrito,
		})
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("invalid csv: %w", err)
	}

	var inserted int64
	for start := 0; start < len(rows); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(rows))
		n, err := s.store.InsertSchools(ctx, rows[start:end])
		if err != nil {
			return inserted, fmt.Errorf("insert schools: %w", err)
		}
		inserted += n
	}
	logging.FromContext(ctx).Info("schools imported", "inserted", inserted)
	return inserted, nil
}
