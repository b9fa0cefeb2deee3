package core

// error_messages.go maps technical errors to messages shown to operators.
//
// Every message carries a code so that operators can quote it to support:
//
//	AUTH001-AUTH003  authentication and authorization
//	CSV001           update-mode file with the wrong number of columns
//	DB001-DB008      database constraints, connectivity, missing records
//	FILE001-FILE006  upload validation
//	UPL002-UPL005    background imports and request lifetime
//	USR001           user accounts
//	VAL001-VAL008    field validation
//	RATE001          throttling
//	ERR000           fallback; check the logs for the technical error
//
// Sentinel errors are matched first with errors.Is. Anything else is matched
// case-insensitively against the pattern table, first match wins, so more
// specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrInvalidCredentials, UserMessage{
		Message: "E-mail ou senha inválidos.",
		Action:  "Confira as credenciais e tente novamente",
		Code:    "AUTH001",
	}},
	{ErrUnauthorized, UserMessage{
		Message: "Não autenticado.",
		Action:  "Faça login novamente",
		Code:    "AUTH002",
	}},
	{ErrForbidden, UserMessage{
		Message: "Acesso negado.",
		Action:  "Solicite a permissão a um administrador",
		Code:    "AUTH003",
	}},
	{ErrStructuralMismatch, UserMessage{
		Message: "O número de colunas do arquivo não corresponde ao cabeçalho esperado.",
		Action:  "Use o arquivo exportado em /export-dados sem remover colunas",
		Code:    "CSV001",
	}},
	{ErrNotFound, UserMessage{
		Message: "Registro não encontrado.",
		Action:  "Verifique o identificador informado",
		Code:    "DB008",
	}},
	{ErrReportRequiresCompletion, UserMessage{
		Message: "A ação precisa estar CONCLUIDO.",
		Action:  "Informe o status CONCLUIDO junto com o relato de execução",
		Code:    "VAL008",
	}},
	{ErrEmailTaken, UserMessage{
		Message: "Este e-mail já está cadastrado.",
		Action:  "Use outro e-mail ou edite o usuário existente",
		Code:    "USR001",
	}},
	{ErrTooManyUploads, UserMessage{
		Message: "O sistema está processando outras importações.",
		Action:  "Aguarde alguns instantes e tente novamente",
		Code:    "UPL002",
	}},
	{ErrJobNotFound, UserMessage{
		Message: "Importação não encontrada.",
		Action:  "A importação pode ter expirado; consulte os logs",
		Code:    "UPL003",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database constraints
	{"duplicate key", UserMessage{
		Message: "Já existe um registro com este identificador.",
		Action:  "Revise os identificadores do arquivo",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "Este valor precisa ser único e já existe.",
		Action:  "Procure valores duplicados no arquivo",
		Code:    "DB002",
	}},
	{"violates foreign key", UserMessage{
		Message: "O registro referenciado não existe.",
		Action:  "Cadastre o registro relacionado primeiro",
		Code:    "DB003",
	}},
	{"violates not-null", UserMessage{
		Message: "Campo obrigatório vazio.",
		Action:  "Preencha todas as colunas obrigatórias, incluindo as datas previstas",
		Code:    "VAL003",
	}},

	// Database connectivity
	{"connection refused", UserMessage{
		Message: "Não foi possível conectar ao banco de dados.",
		Action:  "Tente novamente em alguns instantes",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "A conexão com o banco de dados foi interrompida.",
		Action:  "Tente novamente",
		Code:    "DB005",
	}},
	{"timeout", UserMessage{
		Message: "A operação excedeu o tempo limite.",
		Action:  "Envie um arquivo menor ou tente mais tarde",
		Code:    "DB006",
	}},
	{"deadlock", UserMessage{
		Message: "O banco de dados estava ocupado com operações conflitantes.",
		Action:  "Tente novamente",
		Code:    "DB007",
	}},

	// Validation
	{"invalid date", UserMessage{
		Message: "Data em formato inválido.",
		Action:  "Use AAAA-MM-DD na API ou DD/MM/AAAA nos arquivos",
		Code:    "VAL001",
	}},

	// Files
	{"file too large", UserMessage{
		Message: "O arquivo excede o tamanho máximo de 8192 KB.",
		Action:  "Divida o arquivo em partes menores",
		Code:    "FILE001",
	}},
	{"invalid csv", UserMessage{
		Message: "O arquivo não é um CSV válido.",
		Action:  "Salve a planilha como CSV separado por ponto e vírgula",
		Code:    "FILE002",
	}},
	{"no file provided", UserMessage{
		Message: "Nenhum arquivo foi enviado.",
		Action:  "Selecione um arquivo CSV",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "O arquivo enviado está vazio.",
		Action:  "Envie um arquivo com cabeçalho e linhas de dados",
		Code:    "FILE005",
	}},
	{"unsupported file type", UserMessage{
		Message: "Tipo de arquivo não suportado.",
		Action:  "Envie um arquivo .csv ou .txt",
		Code:    "FILE006",
	}},

	// Request lifetime
	{"context canceled", UserMessage{
		Message: "A requisição foi cancelada.",
		Action:  "Tente novamente",
		Code:    "UPL004",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "A requisição excedeu o tempo limite.",
		Action:  "Envie um arquivo menor ou verifique sua conexão",
		Code:    "UPL005",
	}},

	{"validation failed", UserMessage{
		Message: "Dados inválidos.",
		Action:  "Corrija os campos indicados e envie novamente",
		Code:    "VAL007",
	}},

	{"rate limit", UserMessage{
		Message: "Muitas requisições.",
		Action:  "Aguarde um momento antes de tentar novamente",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Ocorreu um erro inesperado.",
	Action:  "Tente novamente ou contate o suporte",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(fmt.Errorf("update plan 5: %w", ErrNotFound))
//	// msg.Code == "DB008"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
