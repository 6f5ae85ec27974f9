package intake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trois-dimensions/site-backend/internal/leads"
	"github.com/trois-dimensions/site-backend/internal/notify"
)

type stubSubmitter struct {
	result *Result
	err    error
	got    *leads.Submission
}

func (s *stubSubmitter) Submit(ctx context.Context, sub leads.Submission) (*Result, error) {
	s.got = &sub
	return s.result, s.err
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_Preflight(t *testing.T) {
	h := NewHandler(&stubSubmitter{}, 0, nil)
	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/send-contact-email", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "content-type")
	assert.Empty(t, rec.Body.String())
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	sub := &stubSubmitter{}
	h := NewHandler(sub, 0, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "method not allowed", body["error"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Nil(t, sub.got)
}

func TestHandler_InvalidJSON(t *testing.T) {
	sub := &stubSubmitter{}
	h := NewHandler(sub, 0, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON", decodeBody(t, rec)["error"])
	assert.Nil(t, sub.got)
}

func TestHandler_BodyTooLarge(t *testing.T) {
	sub := &stubSubmitter{}
	h := NewHandler(sub, 32, nil)
	payload := `{"type":"contact","name":"` + strings.Repeat("a", 100) + `","email":"a@b.ch"}`
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "input too long", decodeBody(t, rec)["error"])
	assert.Nil(t, sub.got)
}

func TestHandler_Success(t *testing.T) {
	sub := &stubSubmitter{result: &Result{LeadID: "lead-1", EmailID: "email-1"}}
	h := NewHandler(sub, 0, nil)
	payload := `{"type":"valorisation","name":"Jean","email":"jean@example.ch","projectType":"villa","address":"Rue 1"}`
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/send-contact-email", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "lead-1", body["leadId"])
	assert.Equal(t, "email-1", body["emailId"])
	assert.NotContains(t, body, "error")
	require.NotNil(t, sub.got)
	assert.Equal(t, "villa", sub.got.ProjectType)
	assert.Equal(t, "Rue 1", sub.got.Address)
}

func TestHandler_SuccessWithoutEmailID(t *testing.T) {
	h := NewHandler(&stubSubmitter{result: &Result{LeadID: "lead-1"}}, 0, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "lead-1", body["leadId"])
	assert.NotContains(t, body, "emailId")
}

func TestHandler_MapsIntakeErrors(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{badRequest("invalid email", nil), http.StatusBadRequest, "invalid email"},
		{internalError(MsgStoreFailed, errors.New("pq: timeout")), http.StatusInternalServerError, MsgStoreFailed},
		{errors.New("boom"), http.StatusInternalServerError, MsgStoreFailed},
	}
	for _, tc := range cases {
		h := NewHandler(&stubSubmitter{err: tc.err}, 0, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(`{"type":"contact"}`))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, tc.wantStatus, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, tc.wantMsg, body["error"])
	}
}

func TestHandler_EndToEnd(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	sender := &fakeSender{id: "re_1"}
	orch := NewOrchestrator(repo, notify.NewLeadNotifier(sender, "contact@trois-dimensions.ch", nil), Config{}, nil, nil)
	h := NewHandler(orch, 0, nil)

	payload := `{"type":"contact","name":"Jean Dupont","email":"jean@example.ch","message":"Bonjour"}`
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/send-contact-email", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	leadID, _ := body["leadId"].(string)
	require.NotEmpty(t, leadID)
	assert.Equal(t, "re_1", body["emailId"])

	lead, err := repo.GetByID(context.Background(), leadID)
	require.NoError(t, err)
	assert.True(t, lead.EmailSent)
	assert.Equal(t, leads.CategoryContact, lead.Category)
}
