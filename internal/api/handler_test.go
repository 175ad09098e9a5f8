package api

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkalabs/safedata/internal/pipeline"
	"github.com/gonkalabs/safedata/internal/privacy"
	"github.com/gonkalabs/safedata/internal/sanitize"
)

type constEmbedder struct{}

func (constEmbedder) Vector(context.Context, string) []float64 { return []float64{0.5, 0.5, 0.5} }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	sc := sanitize.NewScanner(sanitize.DefaultMatcher(), nil, sanitize.ScanOptions{})
	engine := privacy.NewWithSource(privacy.DefaultConfig(), rand.NewPCG(9, 9))
	h := New(pipeline.New(sc, constEmbedder{}, engine), 1.0)

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestStatus(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestProcessText(t *testing.T) {
	srv := newServer(t)
	resp, out := post(t, srv.URL+"/process/text", `{"text":"mail john.doe@example.com","epsilon":0.1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "mail <EMAIL_ADDRESS_1>", out["safe_content"])
	assert.Equal(t, map[string]any{"john.doe@example.com": "<EMAIL_ADDRESS_1>"}, out["boomerang_map"])
	assert.Equal(t, "text", out["kind"])
	assert.NotEmpty(t, out["request_id"])
	assert.Len(t, out["safe_vector"], 3)

	metrics := out["metrics"].(map[string]any)
	assert.Equal(t, 0.1, metrics["epsilon"])
	assert.Equal(t, privacy.StatusDepleted, metrics["budget"].(map[string]any)["status"])

	audit := out["audit_log"].([]any)
	require.Len(t, audit, 1)
	assert.Equal(t, "Pattern", audit[0].(map[string]any)["source"])
}

func TestProcessText_DefaultEpsilon(t *testing.T) {
	srv := newServer(t)
	_, out := post(t, srv.URL+"/process/text", `{"text":"hello"}`)
	assert.Equal(t, 1.0, out["metrics"].(map[string]any)["epsilon"])
}

func TestProcessForm(t *testing.T) {
	srv := newServer(t)
	resp, out := post(t, srv.URL+"/process/form", `{"data":{"email":"a.b@corp.example","score":12.50}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "form", out["kind"])
	assert.Equal(t, "email: <EMAIL_ADDRESS_1>. score: 12.50", out["safe_content"])
}

func TestProcessDerived(t *testing.T) {
	srv := newServer(t)
	resp, out := post(t, srv.URL+"/process/derived", `{"kind":"audio","text":"call 123-45-6789"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio", out["kind"])
	assert.Equal(t, "call <SSN_1>", out["safe_content"])

	resp, out = post(t, srv.URL+"/process/derived", `{"kind":"video","text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "unknown media kind")
}

func TestRestore(t *testing.T) {
	srv := newServer(t)
	body := `{"text":"Dear <PERSON_1>, re <PERSON_1> and <EMAIL_ADDRESS_1>","map":{"John Doe":"<PERSON_1>","John":"<PERSON_1>","j@x.io":"<EMAIL_ADDRESS_1>"}}`
	resp, out := post(t, srv.URL+"/restore", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Dear John Doe, re John Doe and j@x.io", out["text"])
}

func TestBudget(t *testing.T) {
	srv := newServer(t)

	get := func(q string) (int, map[string]any) {
		resp, err := http.Get(srv.URL + "/privacy/budget" + q)
		require.NoError(t, err)
		defer resp.Body.Close()
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	code, out := get("")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"epsilon": 1.0, "status": "Healthy"}, out)

	_, out = get("?epsilon=0.2")
	assert.Equal(t, "Depleted", out["status"])

	for _, q := range []string{"?epsilon=abc", "?epsilon=NaN", "?epsilon=Inf", "?epsilon=-Inf", "?epsilon=%2BInf"} {
		code, out = get(q)
		assert.Equal(t, http.StatusBadRequest, code, q)
		assert.Contains(t, out, "error", q)
	}
}

func TestBadJSON(t *testing.T) {
	srv := newServer(t)
	for _, path := range []string{"/process/text", "/process/form", "/process/derived", "/restore"} {
		resp, out := post(t, srv.URL+path, `{"text":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		assert.Contains(t, out["error"], "invalid JSON", path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/process/text")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
