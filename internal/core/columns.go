package core

import (
	"strconv"
	"strings"
	"time"
)

// PlanImportColumns is the header vocabulary of spreadsheet imports, in
// export order.
var PlanImportColumns = []FieldSpec{
	{Name: "Tipo Acao", DBColumn: "tipo_acao", Type: FieldText, Required: true},
	{Name: "Causa Correlacionada", DBColumn: "causa_correlacionda", Type: FieldText, Required: true},
	{Name: "Sigeam", DBColumn: "sigeam", Type: FieldText, Required: true},
	{Name: "Indicador", DBColumn: "indicador", Type: FieldText, Required: true},
	{Name: "Acao", DBColumn: "acao", Type: FieldText, Required: true},
	{Name: "Tarefa", DBColumn: "tarefa", Type: FieldText, Required: true},
	{Name: "Responsavel", DBColumn: "responsavel", Type: FieldText, Required: true},
	{Name: "Previsao de Inicio", DBColumn: "prev_inicio", Type: FieldDate, Required: true},
	{Name: "Previsao de Fim", DBColumn: "prev_fim", Type: FieldDate, Required: true},
	{Name: "Real Inicio", DBColumn: "real_inicio", Type: FieldDate},
	{Name: "Real Fim", DBColumn: "real_fim", Type: FieldDate},
	{Name: "Status", DBColumn: "status", Type: FieldText},
	{Name: "Relato de Execucao da Tarefa", DBColumn: "relato_exec_taref", Type: FieldText},
	{Name: "Pontos Problematicos", DBColumn: "pontos_probl", Type: FieldText},
	{Name: "Acao Futura", DBColumn: "acao_fut", Type: FieldText},
	{Name: "Responsavel_atras", DBColumn: "responsavel_atras", Type: FieldText},
	{Name: "Prazo", DBColumn: "prazo_final", Type: FieldDate},
}

// PlanUpdateColumns is the positional layout of update-mode files: the
// identifier followed by the record fields in import order.
var PlanUpdateColumns = append(
	[]FieldSpec{{Name: "id", DBColumn: "id", Type: FieldInt, Required: true}},
	PlanImportColumns...,
)

// PlanUpdateArity is the exact number of fields an update-mode line carries.
var PlanUpdateArity = len(PlanUpdateColumns)

// ImportHeader returns the spreadsheet header labels in export order.
func ImportHeader() []string {
	header := make([]string, len(PlanImportColumns))
	for i, spec := range PlanImportColumns {
		header[i] = spec.Name
	}
	return header
}

// DataExportHeader returns "id" followed by the spreadsheet header labels.
// Its positions match PlanUpdateColumns so an export can be fed back to
// update mode.
func DataExportHeader() []string {
	return append([]string{"id"}, ImportHeader()...)
}

// UpdateHeader returns the update-mode column names (database names).
func UpdateHeader() []string {
	header := make([]string, len(PlanUpdateColumns))
	for i, spec := range PlanUpdateColumns {
		header[i] = spec.DBColumn
	}
	return header
}

// setPlanField assigns a raw cell to the field named by column. Dates go
// through ParseExternalDate; optional text becomes null when blank.
func setPlanField(p *ActionPlan, column, raw string) {
	raw = strings.TrimSpace(raw)
	switch column {
	case "tipo_acao":
		p.TipoAcao = raw
	case "causa_correlacionda":
		p.CausaCorrelacionda = raw
	case "sigeam":
		p.Sigeam = raw
	case "indicador":
		p.Indicador = raw
	case "acao":
		p.Acao = raw
	case "tarefa":
		p.Tarefa = raw
	case "responsavel":
		p.Responsavel = raw
	case "prev_inicio":
		p.PrevInicio = ParseExternalDate(raw)
	case "prev_fim":
		p.PrevFim = ParseExternalDate(raw)
	case "real_inicio":
		p.RealInicio = ParseExternalDate(raw)
	case "real_fim":
		p.RealFim = ParseExternalDate(raw)
	case "status":
		p.Override = StatusOverride(raw)
	case "relato_exec_taref":
		p.RelatoExecTaref = ToPgText(raw)
	case "pontos_probl":
		p.PontosProbl = ToPgText(raw)
	case "acao_fut":
		p.AcaoFut = ToPgText(raw)
	case "responsavel_atras":
		p.ResponsavelAtras = ToPgText(raw)
	case "prazo_final":
		p.PrazoFinal = ParseExternalDate(raw)
	}
}

// planField renders the field named by column as a spreadsheet cell.
func planField(p ActionPlan, column string) string {
	switch column {
	case "id":
		if p.ID == 0 {
			return ""
		}
		return strconv.FormatInt(p.ID, 10)
	case "tipo_acao":
		return p.TipoAcao
	case "causa_correlacionda":
		return p.CausaCorrelacionda
	case "sigeam":
		return p.Sigeam
	case "indicador":
		return p.Indicador
	case "acao":
		return p.Acao
	case "tarefa":
		return p.Tarefa
	case "responsavel":
		return p.Responsavel
	case "prev_inicio":
		return FormatExternalDate(p.PrevInicio)
	case "prev_fim":
		return FormatExternalDate(p.PrevFim)
	case "real_inicio":
		return FormatExternalDate(p.RealInicio)
	case "real_fim":
		return FormatExternalDate(p.RealFim)
	case "status":
		return string(p.Override)
	case "relato_exec_taref":
		return FromPgText(p.RelatoExecTaref)
	case "pontos_probl":
		return FromPgText(p.PontosProbl)
	case "acao_fut":
		return FromPgText(p.AcaoFut)
	case "responsavel_atras":
		return FromPgText(p.ResponsavelAtras)
	case "prazo_final":
		return FormatExternalDate(p.PrazoFinal)
	}
	return ""
}

// stampCreation sets created_at and the year tag from now.
func stampCreation(p *ActionPlan, now time.Time) {
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Ano = ToPgInt4(now.Year())
}
