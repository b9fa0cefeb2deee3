package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/seduc-am/planoacao/internal/config"
	"github.com/seduc-am/planoacao/internal/core"
	"github.com/seduc-am/planoacao/internal/store/memory"
)

var testNow = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

const importHeader = "Tipo Acao;Causa Correlacionada;Sigeam;Indicador;Acao;Tarefa;Responsavel;Previsao de Inicio;Previsao de Fim;Real Inicio;Real Fim;Status;Relato de Execucao da Tarefa;Pontos Problematicos;Acao Futura;Responsavel_atras;Prazo"

type testEnv struct {
	srv   *Server
	svc   *core.Service
	store *memory.Store
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 10 * time.Second},
		Upload:   config.UploadConfig{MaxFileSize: 8192 * 1024},
		Rate:     config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	svc := core.NewService(store, core.FixedClock(testNow), core.NewUploadLimiter(2, time.Second), core.Options{
		JWTSecret:  []byte("web-test-secret"),
		BcryptCost: 4,
	})
	t.Cleanup(func() { svc.WaitForImports(context.Background()) })
	return &testEnv{srv: NewServer(svc, testConfig()), svc: svc, store: store}
}

// login creates a user with roles and returns a bearer token for it.
func (e *testEnv) login(t *testing.T, email string, roles core.Roles) string {
	t.Helper()
	ctx := context.Background()
	if _, err := e.svc.CreateUser(ctx, core.CreateUserRequest{
		Name:     "Teste",
		Email:    email,
		Password: "segredo123",
		Roles:    roles,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	res, err := e.svc.Login(ctx, email, "segredo123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return res.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(w, r)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, v any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	return e.do(t, method, path, token, body, "application/json")
}

func (e *testEnv) upload(t *testing.T, path, token, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, content)
	mw.Close()
	return e.do(t, http.MethodPost, path, token, &buf, mw.FormDataContentType())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/health", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("/health = %d", w.Code)
	}
	if body := decode(t, w); body["status"] != true {
		t.Errorf("health body = %v", body)
	}

	w = e.do(t, http.MethodGet, "/metrics", "", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "planoacao_http_requests_total") {
		t.Errorf("/metrics = %d", w.Code)
	}
}

func TestLoginInfoLogout(t *testing.T) {
	e := newTestEnv(t)
	e.login(t, "ana@educacao.am.gov.br", core.Roles{PEscola: true})

	w := e.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{"email": "ana@educacao.am.gov.br", "password": "errada"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password = %d", w.Code)
	}

	w = e.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{"email": "ANA@educacao.am.gov.br", "password": "segredo123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d %s", w.Code, w.Body.String())
	}
	token, _ := decode(t, w)["token"].(string)
	if token == "" {
		t.Fatal("no token in login response")
	}

	if w := e.do(t, http.MethodGet, "/api/info", token, nil, ""); w.Code != http.StatusOK {
		t.Fatalf("info = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/api/logout", token, nil, ""); w.Code != http.StatusOK {
		t.Fatalf("logout = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/info", token, nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("info after logout = %d, want 401", w.Code)
	}
}

func TestRouteProtection(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin@educacao.am.gov.br", core.Roles{Admin: true})
	sec := e.login(t, "sec@educacao.am.gov.br", core.Roles{Secretaria: true})
	school := e.login(t, "escola@educacao.am.gov.br", core.Roles{PEscola: true})
	none := e.login(t, "nada@educacao.am.gov.br", core.Roles{})

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"anonymous", "/api/view-registros", "", http.StatusUnauthorized},
		{"no roles", "/api/view-registros", none, http.StatusForbidden},
		{"school lists plans", "/api/view-registros", school, http.StatusOK},
		{"school cannot list users", "/api/users", school, http.StatusForbidden},
		{"admin lists users", "/api/users", admin, http.StatusOK},
		{"school cannot see cde-cdre", "/api/escolas/view-registros/cde-cdre", school, http.StatusForbidden},
		{"secretariat sees cde-cdre", "/api/escolas/view-registros/cde-cdre", sec, http.StatusOK},
		{"secretariat cannot export", "/api/export-dados", sec, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := e.do(t, http.MethodGet, tt.path, tt.token, nil, ""); w.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.want)
			}
		})
	}
}

func TestImportJobThenExportUpdateRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin@educacao.am.gov.br", core.Roles{Admin: true})

	data := importHeader + "\n" +
		"REFORCO;Baixa frequencia;1234;IDEB;Aulas extras;Montar turmas;Maria;01/02/2024;30/06/2024;;;;;;;;\n" +
		"LEITURA;Defasagem;5678;SAEB;Clube;Sessões;João;01/03/2024;30/07/2024;;;;;;;;\n"

	w := e.upload(t, "/api/import-planosacao", admin, "planos.csv", data)
	if w.Code != http.StatusCreated {
		t.Fatalf("import = %d %s", w.Code, w.Body.String())
	}
	jobID, _ := decode(t, w)["job_id"].(string)

	job, err := e.svc.WaitForJob(context.Background(), jobID)
	if err != nil || job.State != core.JobCompleted || job.Inserted != 2 {
		t.Fatalf("job = %+v, %v", job, err)
	}
	if w := e.do(t, http.MethodGet, "/api/import-jobs/"+jobID, admin, nil, ""); w.Code != http.StatusOK {
		t.Errorf("job status = %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/export-dados", admin, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	exported := w.Body.String()

	before, _ := e.store.AllPlans(context.Background(), core.PlanFilter{})

	w = e.upload(t, "/api/update-dados", admin, "dados.csv", exported)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d %s", w.Code, w.Body.String())
	}
	after, _ := e.store.AllPlans(context.Background(), core.PlanFilter{})
	if len(after) != len(before) {
		t.Fatalf("row count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("plan %d changed by round trip:\n%+v\n%+v", before[i].ID, before[i], after[i])
		}
	}
}

func TestUpdateDadosMismatch(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin@educacao.am.gov.br", core.Roles{Admin: true})

	data := "header\n" + strings.Repeat("x;", 16) + "x\n"
	w := e.upload(t, "/api/update-dados", admin, "dados.csv", data)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decode(t, w); body["code"] != "CSV001" || body["status"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestUploadValidation(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin@educacao.am.gov.br", core.Roles{Admin: true})

	tests := []struct {
		name     string
		fileName string
		content  string
		wantCode string
	}{
		{"wrong extension", "planos.xlsx", "a;b\n", "FILE006"},
		{"empty", "planos.csv", "", "FILE005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.upload(t, "/api/import-planosacao", admin, tt.fileName, tt.content)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", w.Code)
			}
			if got := decode(t, w)["code"]; got != tt.wantCode {
				t.Errorf("code = %v, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestPlanCRUD(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "coord@educacao.am.gov.br", core.Roles{Coordenador: true})

	create := map[string]any{
		"tipo_acao":           "REFORCO",
		"causa_correlacionda": "Baixa frequencia",
		"sigeam":              "1234",
		"indicador":           "IDEB",
		"acao":                "Aulas extras",
		"tarefa":              "Montar turmas",
		"responsavel":         "Maria",
		"prev_inicio":         "2024-02-01",
		"prev_fim":            "2024-06-30",
		"status":              "EM ANDAMENTO",
	}
	w := e.doJSON(t, http.MethodPost, "/api/create-plano-acao", token, create)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}

	w = e.doJSON(t, http.MethodPost, "/api/create-plano-acao", token, map[string]any{"sigeam": "1"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid create = %d, want 422", w.Code)
	}

	w = e.doJSON(t, http.MethodPut, "/api/view-registros/1", token, map[string]any{"relato_exec_taref": "feito"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("report without completion = %d, want 400", w.Code)
	}
	if msg := decode(t, w)["message"]; msg != "A ação precisa estar CONCLUIDO." {
		t.Errorf("message = %v", msg)
	}

	w = e.doJSON(t, http.MethodPut, "/api/view-registros/1", token, map[string]any{
		"relato_exec_taref": "feito",
		"status":            "CONCLUIDO",
		"real_fim":          "2024-06-01",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d %s", w.Code, w.Body.String())
	}
	data, _ := decode(t, w)["data"].(map[string]any)
	if data["status"] != core.StatusCompleted.String() {
		t.Errorf("derived status = %v", data["status"])
	}

	if w := e.doJSON(t, http.MethodPut, "/api/view-registros/99", token, map[string]any{}); w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/api/view-registros/1", token, nil, ""); w.Code != http.StatusOK {
		t.Errorf("delete = %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/api/view-registros/1", token, nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/view-registros?page=1", token, nil, "")
	body := decode(t, w)
	if body["per_page"] != float64(core.PlansPerPage) || body["total"] != float64(0) {
		t.Errorf("pagination = %v", body)
	}
}

func TestCoordinatorAssignment(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin@educacao.am.gov.br", core.Roles{Admin: true})
	e.login(t, "assessor@educacao.am.gov.br", core.Roles{Assessor: true})
	advisor, _ := e.store.GetUserByEmail(context.Background(), "assessor@educacao.am.gov.br")

	coords := "gestao;coordenadoria;municipio;coordenador;assessor\n" +
		"2024;REGIONAL;TEFE;;\n" +
		"2024;REGIONAL;COARI;;\n" +
		"2024;CDE 1;MANAUS;;\n"
	if w := e.upload(t, "/api/import-coord", admin, "coord.csv", coords); w.Code != http.StatusCreated {
		t.Fatalf("import-coord = %d %s", w.Code, w.Body.String())
	}

	path := "/api/assessor/" + itoa(advisor.ID)
	if w := e.doJSON(t, http.MethodPut, path, admin, map[string]string{"coordenadoria": "REGIONAL"}); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("REGIONAL without municipio = %d, want 422", w.Code)
	}
	if w := e.doJSON(t, http.MethodPut, path, admin, map[string]string{"coordenadoria": "regional", "municipio": "tefe"}); w.Code != http.StatusOK {
		t.Fatalf("assign = %d %s", w.Code, w.Body.String())
	}
	w := e.do(t, http.MethodGet, path, admin, nil, "")
	rows, _ := decode(t, w)["data"].([]any)
	if len(rows) != 1 {
		t.Errorf("advisor rows = %v", rows)
	}

	if w := e.doJSON(t, http.MethodPut, "/api/coord/"+itoa(advisor.ID), admin, map[string]string{"coordenadoria": "CDE 1"}); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("coordinator assignment for an advisor = %d, want 422", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/coord/user/"+itoa(advisor.ID), admin, nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("coord/user with no rows = %d, want 404", w.Code)
	}
}

func TestExportXLSX(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin@educacao.am.gov.br", core.Roles{Admin: true})

	w := e.do(t, http.MethodGet, "/api/export?format=xlsx", admin, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip container")
	}
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := newRateLimit("test", 2, time.Minute)(ok)

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/view-registros", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	tests := []struct {
		name   string
		addr   string
		status int
	}{
		{"first", "10.0.0.1:1000", http.StatusNoContent},
		{"second, other port", "10.0.0.1:2000", http.StatusNoContent},
		{"third is limited", "10.0.0.1:3000", http.StatusTooManyRequests},
		{"other client", "10.0.0.2:1000", http.StatusNoContent},
	}
	for _, tt := range tests {
		w := send(tt.addr)
		if w.Code != tt.status {
			t.Fatalf("%s: status = %d, want %d", tt.name, w.Code, tt.status)
		}
		if w.Header().Get("X-RateLimit-Limit") != "2" {
			t.Errorf("%s: X-RateLimit-Limit = %q", tt.name, w.Header().Get("X-RateLimit-Limit"))
		}
		if tt.status == http.StatusTooManyRequests {
			if w.Header().Get("Retry-After") == "" {
				t.Errorf("%s: missing Retry-After", tt.name)
			}
			var body map[string]any
			json.Unmarshal(w.Body.Bytes(), &body)
			if body["status"] != false {
				t.Errorf("%s: body = %s", tt.name, w.Body.String())
			}
		}
	}
}

func TestRetryAfter(t *testing.T) {
	future := strconv.FormatInt(time.Now().Add(30*time.Second).Unix(), 10)
	past := strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10)

	tests := []struct {
		reset string
		want  func(string) bool
	}{
		{"", func(s string) bool { return s == "60" }},
		{past, func(s string) bool { return s == "1" }},
		{future, func(s string) bool { n, _ := strconv.Atoi(s); return n >= 29 && n <= 30 }},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.reset, time.Minute); !tt.want(got) {
			t.Errorf("retryAfter(%q) = %q", tt.reset, got)
		}
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
