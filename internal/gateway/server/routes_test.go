package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractcreator/internal/gateway/handler"
	"contractcreator/internal/gateway/registry"
	"contractcreator/internal/gateway/repository/snapshot"
	"contractcreator/internal/llm"
	"contractcreator/internal/llmtool"
	"contractcreator/internal/logging"
	"contractcreator/internal/metrics"
	"contractcreator/internal/session"
	"contractcreator/internal/validation"
)

const noteContract = `{"note":{"type":"object","properties":{"message":{"position":0,"type":"string","maxLength":63}},` +
	`"indices":[{"name":"byMessage","properties":[{"message":"asc"}]}],"required":["message"],"additionalProperties":false}}`

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	m, err := metrics.New()
	require.NoError(t, err)
	rules, err := validation.NewRulesValidator()
	require.NoError(t, err)

	reg, err := registry.New(8, session.Config{}, session.Deps{
		Generator: llmtool.NewContractGenerator(llm.NewFakeClient()),
		Validator: validation.NewService(rules, m),
		Metrics:   m,
		Logger:    logging.Nop(),
	})
	require.NoError(t, err)
	h := handler.New(reg, snapshot.NewMemoryStore(), logging.Nop())

	srv := httptest.NewServer(NewMux(h, m, logging.Nop(), nil))
	t.Cleanup(func() {
		srv.Close()
		reg.Close()
	})
	return &apiClient{t: t, srv: srv}
}

func (c *apiClient) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := gojson.Marshal(b)
		require.NoError(c.t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rd)
	require.NoError(c.t, err)
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, gojson.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (c *apiClient) create() string {
	c.t.Helper()
	status, snap := c.do(http.MethodPost, "/sessions", nil)
	require.Equal(c.t, http.StatusCreated, status)
	id, _ := snap["id"].(string)
	require.NotEmpty(c.t, id)
	return id
}

func (c *apiClient) command(id string, env map[string]any) (int, map[string]any) {
	c.t.Helper()
	return c.do(http.MethodPost, "/sessions/"+id+"/commands", env)
}

func (c *apiClient) eventually(id string, cond func(map[string]any) bool) map[string]any {
	c.t.Helper()
	var last map[string]any
	require.Eventually(c.t, func() bool {
		status, snap := c.do(http.MethodGet, "/sessions/"+id, nil)
		last = snap
		return status == http.StatusOK && cond(snap)
	}, 2*time.Second, 10*time.Millisecond)
	return last
}

func validationStatus(snap map[string]any) string {
	v, _ := snap["validation"].(map[string]any)
	s, _ := v["status"].(string)
	return s
}

func TestAPI_BuildContractWithCommands(t *testing.T) {
	api := newAPI(t)
	id := api.create()

	steps := []map[string]any{
		{"op": "setDocumentTypeName", "doc": 0, "value": "note"},
		{"op": "addProperty", "doc": 0},
		{"op": "setPropertyName", "doc": 0, "path": []int{0}, "value": "message"},
		{"op": "setPropertyRequired", "doc": 0, "path": []int{0}, "value": true},
		{"op": "setPropertyMaxLength", "doc": 0, "path": []int{0}, "value": "63"},
		{"op": "addIndex", "doc": 0},
		{"op": "setIndexName", "doc": 0, "index": 0, "value": "byMessage"},
		{"op": "addIndexField", "doc": 0, "index": 0, "value": "message"},
	}
	var snap map[string]any
	for _, env := range steps {
		var status int
		status, snap = api.command(id, env)
		require.Equal(t, http.StatusOK, status, env["op"])
	}
	assert.Equal(t, noteContract, snap["contract"])
	assert.Equal(t, "unvalidated", validationStatus(snap))

	status, _ := api.do(http.MethodPost, "/sessions/"+id+"/validate", nil)
	require.Equal(t, http.StatusOK, status)
	snap = api.eventually(id, func(s map[string]any) bool { return validationStatus(s) == "validated" })
	v := snap["validation"].(map[string]any)
	assert.Empty(t, v["errors"])

	status, snap = api.do(http.MethodPost, "/sessions/"+id+"/format", map[string]string{"format": "yaml"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, snap["output"], "note:")
	assert.Equal(t, "validated", validationStatus(snap))
}

func TestAPI_CommandErrors(t *testing.T) {
	api := newAPI(t)
	id := api.create()

	status, body := api.command(id, map[string]any{"op": "explode"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "unknown command")

	status, _ = api.do(http.MethodPost, "/sessions/"+id+"/commands", "{not json")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.command(id, map[string]any{"op": "setPropertyName", "doc": 0, "path": []int{3}, "value": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = api.command(id, map[string]any{"op": "removeDocumentType", "doc": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = api.command("nope", map[string]any{"op": "addDocumentType"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(http.MethodPost, "/sessions/"+id+"/format", map[string]string{"format": "xml"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_Import(t *testing.T) {
	api := newAPI(t)
	id := api.create()

	status, body := api.do(http.MethodPost, "/sessions/"+id+"/import",
		map[string]string{"text": `{"note":{"type":"object","properties":{"a":{"type":"date"}}}}`})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "unknown_type", body["kind"])

	status, _ = api.do(http.MethodPost, "/sessions/"+id+"/import", map[string]string{"text": " "})
	assert.Equal(t, http.StatusBadRequest, status)

	yamlText := "note:\n  type: object\n  properties:\n    message:\n      position: 0\n      type: string\n      maxLength: 63\n" +
		"  indices:\n    - name: byMessage\n      properties:\n        - message: asc\n  required: [message]\n  additionalProperties: false\n"
	status, snap := api.do(http.MethodPost, "/sessions/"+id+"/import", map[string]string{"text": yamlText, "format": "yaml"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, noteContract, snap["contract"])

	snap = api.eventually(id, func(s map[string]any) bool { return validationStatus(s) == "validated" })
	assert.Equal(t, []any{"Import failed: Unknown type 'date' for property 'a' in document type 'note'"}, snap["messages"])

	status, snap = api.do(http.MethodDelete, "/sessions/"+id+"/errors", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, snap["messages"])

	status, _ = api.do(http.MethodDelete, "/sessions/"+id+"/errors?index=x", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_Generate(t *testing.T) {
	api := newAPI(t)
	id := api.create()

	status, _ := api.do(http.MethodPost, "/sessions/"+id+"/generate", map[string]string{"prompt": ""})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPost, "/sessions/"+id+"/generate", map[string]string{"prompt": "a notes app"})
	require.Equal(t, http.StatusOK, status)

	snap := api.eventually(id, func(s map[string]any) bool {
		return s["generating"] == false && validationStatus(s) == "validated"
	})
	assert.Contains(t, snap["contract"], `"note"`)
	assert.Equal(t, []any{"a notes app"}, snap["promptHistory"])
}

func TestAPI_Snapshots(t *testing.T) {
	api := newAPI(t)
	id := api.create()
	status, _ := api.do(http.MethodPost, "/sessions/"+id+"/import", map[string]string{"text": noteContract})
	require.Equal(t, http.StatusOK, status)

	status, saved := api.do(http.MethodPost, "/sessions/"+id+"/snapshots", map[string]string{"name": "v1"})
	require.Equal(t, http.StatusCreated, status)
	snapID, _ := saved["id"].(string)
	require.NotEmpty(t, snapID)
	assert.Equal(t, noteContract, saved["contract"])

	status, list := api.do(http.MethodGet, "/snapshots", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list["snapshots"], 1)

	other := api.create()
	status, snap := api.do(http.MethodPost, "/sessions/"+other+"/snapshots/"+snapID+"/load", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, noteContract, snap["contract"])

	status, _ = api.do(http.MethodDelete, "/snapshots/"+snapID, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(http.MethodGet, "/snapshots/"+snapID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_DeleteSession(t *testing.T) {
	api := newAPI(t)
	id := api.create()
	status, _ := api.do(http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_Events(t *testing.T) {
	api := newAPI(t)
	id := api.create()

	url := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/sessions/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first map[string]any
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, id, first["id"])

	status, _ := api.command(id, map[string]any{"op": "setDocumentTypeName", "doc": 0, "value": "note"})
	require.Equal(t, http.StatusOK, status)

	var next map[string]any
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, `{"note":{"type":"object","additionalProperties":false}}`, next["contract"])
}

func TestAPI_Misc(t *testing.T) {
	api := newAPI(t)

	resp, err := api.srv.Client().Get(api.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, body := api.do(http.MethodGet, "/commands", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["ops"], "setPropertyMaxLength")

	api.create()
	resp, err = api.srv.Client().Get(api.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "contractcreator_session_active 1")
}
