package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "reliefcheck/internal/adapters/http"
	"reliefcheck/internal/adapters/memory"
	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
	"reliefcheck/internal/services/intake"
	"reliefcheck/internal/workers/investigationrunner"
)

type stubInvestigator struct {
	report domain.InvestigationReport
	got    []domain.Image
}

func (s *stubInvestigator) Investigate(ctx context.Context, img domain.Image) domain.InvestigationReport {
	return s.InvestigateCase(ctx, "ab12cd34", img)
}

func (s *stubInvestigator) InvestigateCase(_ context.Context, caseID string, img domain.Image) domain.InvestigationReport {
	s.got = append(s.got, img)
	r := s.report
	r.CaseID = caseID
	return r
}

type stubCases map[string]domain.Case

func (s stubCases) Get(_ context.Context, id string) (domain.Case, error) {
	c, ok := s[id]
	if !ok {
		return domain.Case{}, ports.ErrNotFound
	}
	return c, nil
}

func upload(t *testing.T, target, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="flyer.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func completedReport() domain.InvestigationReport {
	age := 12
	return domain.InvestigationReport{
		Status:          domain.ReportCompleted,
		Verdict:         domain.VerdictSuspicious,
		RiskScore:       55,
		RiskFactors:     []string{"Domain is very new (12 days old)", "Organization not found in official registry"},
		Summary:         "Looks off.",
		Recommendations: []string{"Verify first", "Do not pay"},
		Entities:        &domain.EntityBag{Domains: []string{"newrelief.org"}, OrganizationNames: []string{"Helping Hands"}},
		Evidence: &domain.EvidenceBundle{
			DomainChecks:   []domain.DomainCheck{{Domain: "newrelief.org", AgeDays: &age, Registered: true, Status: domain.DomainRegistered}},
			ScamChecks:     []domain.ScamCheck{},
			RegistryChecks: []domain.RegistryCheck{{Organization: "Helping Hands", VerificationStatus: domain.VerificationUnknown}},
		},
	}
}

func serve(s *httpadapter.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	return rec
}

func TestIndexAndHealth(t *testing.T) {
	s := httpadapter.New(httpadapter.Deps{Investigator: &stubInvestigator{}, Cases: stubCases{}})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), httpadapter.ServiceName)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestVerify(t *testing.T) {
	inv := &stubInvestigator{report: completedReport()}
	s := httpadapter.New(httpadapter.Deps{Investigator: inv, Cases: stubCases{}})

	rec := serve(s, upload(t, "/verify", "image/png", []byte("png-bytes")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got httpadapter.VerificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 55, got.RiskScore)
	assert.Equal(t, "SUSPICIOUS", got.Verdict)
	assert.Equal(t, "Verify first. Do not pay.", got.Recommendation)
	require.Len(t, got.Entities, 2)
	assert.Equal(t, "URL", got.Entities[0].Type)
	assert.Equal(t, "Domain is very new (12 days old), which may indicate a recently created site.", got.Entities[0].VerificationStatus)
	assert.True(t, got.Entities[1].IsFlagged)

	require.Len(t, inv.got, 1)
	assert.Equal(t, []byte("png-bytes"), inv.got[0].Data)
	assert.Equal(t, "flyer.png", inv.got[0].Filename)
	assert.Equal(t, "image/png", inv.got[0].ContentType)
}

func TestVerify_RawReport(t *testing.T) {
	s := httpadapter.New(httpadapter.Deps{Investigator: &stubInvestigator{report: completedReport()}, Cases: stubCases{}})

	rec := serve(s, upload(t, "/verify?format=report", "image/jpeg", []byte("x")))
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.InvestigationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ab12cd34", got.CaseID)
	assert.Equal(t, domain.VerdictSuspicious, got.Verdict)
}

func TestVerify_RejectsNonImage(t *testing.T) {
	inv := &stubInvestigator{report: completedReport()}
	s := httpadapter.New(httpadapter.Deps{Investigator: inv, Cases: stubCases{}})

	rec := serve(s, upload(t, "/verify", "application/pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"File must be an image"}`, rec.Body.String())
	assert.Empty(t, inv.got)
}

func TestVerify_ErrorReport(t *testing.T) {
	inv := &stubInvestigator{report: domain.InvestigationReport{Status: domain.ReportError, Error: "decode image: unknown format"}}
	s := httpadapter.New(httpadapter.Deps{Investigator: inv, Cases: stubCases{}})

	rec := serve(s, upload(t, "/verify", "image/png", []byte("x")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "decode image: unknown format")
}

func TestGetCase(t *testing.T) {
	s := httpadapter.New(httpadapter.Deps{
		Investigator: &stubInvestigator{},
		Cases:        stubCases{"ab12cd34": {CaseID: "ab12cd34", Status: domain.CaseCompleted}},
	})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/cases/ab12cd34", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var c domain.Case
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, domain.CaseCompleted, c.Status)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/cases/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvestigations(t *testing.T) {
	q := memory.NewJobQueue()
	inv := &stubInvestigator{report: completedReport()}
	s := httpadapter.New(httpadapter.Deps{
		Investigator: inv,
		Cases:        stubCases{},
		Intake:       intake.New(q),
		Jobs:         q,
		Processor:    investigationrunner.Investigations{Investigator: inv},
	})

	rec := serve(s, upload(t, "/investigations", "image/png", []byte("x")))
	require.Equal(t, http.StatusAccepted, rec.Code)
	var accepted struct {
		JobID  string `json:"job_id"`
		CaseID string `json:"case_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Len(t, accepted.CaseID, 8)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/investigations/"+accepted.JobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var job domain.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, domain.JobQueued, job.Status)

	rec = serve(s, upload(t, "/investigations?wait=true&timeout=5", "image/png", []byte("y")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report domain.InvestigationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, domain.ReportCompleted, report.Status)
	assert.Len(t, report.CaseID, 8)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/investigations/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, upload(t, "/investigations?wait=maybe", "image/png", []byte("z")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvestigations_Disabled(t *testing.T) {
	s := httpadapter.New(httpadapter.Deps{Investigator: &stubInvestigator{}, Cases: stubCases{}})
	rec := serve(s, upload(t, "/investigations", "image/png", []byte("x")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) })
	s := httpadapter.New(httpadapter.Deps{Investigator: &stubInvestigator{}, Cases: stubCases{}, Metrics: metrics})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestCORS(t *testing.T) {
	s := httpadapter.New(httpadapter.Deps{Investigator: &stubInvestigator{}, Cases: stubCases{}})

	req := httptest.NewRequest(http.MethodOptions, "/verify", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := serve(s, req)
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	allowed := rec.Header().Get("Access-Control-Allow-Headers")
	assert.NotContains(t, allowed, "*", "credentialed requests cannot use a wildcard")
	assert.Contains(t, strings.ToLower(allowed), "content-type")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ConfiguredOrigins(t *testing.T) {
	s := httpadapter.New(httpadapter.Deps{
		Investigator: &stubInvestigator{},
		Cases:        stubCases{},
		AllowOrigins: []string{" https://relief.example "},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://relief.example")
	rec := serve(s, req)
	assert.Equal(t, "https://relief.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://localhost:3000")
	rec = serve(s, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
