package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func testServer(t *testing.T, genBaseURL string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := Config{AlertThreshold: 0.80}
	db := testDB(t)
	chatLog, err := NewChatLog(t.TempDir())
	if err != nil {
		t.Fatalf("new chat log: %v", err)
	}
	return NewServer(
		cfg,
		db,
		loadTestModel(t),
		testStatsService(t),
		testGenerationClient(genBaseURL),
		NewReportExporter(t.TempDir()),
		chatLog,
		nil,
	)
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPredictEndpointFullPipeline(t *testing.T) {
	genCalls := 0
	genServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		genCalls++
		w.Write([]byte(openAIStubReply("Here is the narrative.\n\nConclusion paragraph.")))
	}))
	defer genServer.Close()

	server := testServer(t, genServer.URL)
	router := server.Router()

	w := postJSON(t, router, "/api/predict", validRecord())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp predictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == 0 {
		t.Error("expected stored prediction id")
	}
	if resp.Narrative == "" || resp.NarrativeError != "" {
		t.Errorf("expected narrative, got error %q", resp.NarrativeError)
	}
	if len(resp.Stats) != 3 {
		t.Errorf("expected 3 cohort summaries, got %d", len(resp.Stats))
	}
	if genCalls != 1 {
		t.Errorf("expected 1 generation call, got %d", genCalls)
	}

	rec, err := GetPredictionByID(server.db, resp.ID)
	if err != nil {
		t.Fatalf("stored record: %v", err)
	}
	if rec.Narrative == "" {
		t.Error("narrative not persisted")
	}
}

func TestPredictEndpointBlocksUnselectedBeforeAnyCall(t *testing.T) {
	genCalls := 0
	genServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		genCalls++
	}))
	defer genServer.Close()

	server := testServer(t, genServer.URL)
	router := server.Router()

	record := validRecord()
	record.Department = Unselected
	w := postJSON(t, router, "/api/predict", record)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if genCalls != 0 {
		t.Errorf("generation called %d times for invalid input", genCalls)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["field"] != "department" {
		t.Errorf("expected department field in warning, got %q", resp["field"])
	}
}

func TestPredictEndpointDegradesWhenGenerationFails(t *testing.T) {
	genServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer genServer.Close()

	server := testServer(t, genServer.URL)
	router := server.Router()

	w := postJSON(t, router, "/api/predict", validRecord())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with degraded body", w.Code)
	}

	var resp predictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.NarrativeError == "" {
		t.Error("expected narrative_error in degraded response")
	}
	if resp.Narrative != "" {
		t.Error("unexpected narrative in degraded response")
	}
	// The prediction itself survives the downstream failure.
	if resp.Probability[0]+resp.Probability[1] == 0 {
		t.Error("prediction missing from degraded response")
	}
	if len(resp.Stats) != 3 {
		t.Errorf("cohort stats missing from degraded response, got %d", len(resp.Stats))
	}
}

func TestChatEndpointLogsExchange(t *testing.T) {
	genServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(openAIStubReply("chat reply")))
	}))
	defer genServer.Close()

	server := testServer(t, genServer.URL)
	router := server.Router()

	w := postJSON(t, router, "/api/chat", chatRequest{Message: "what should I do next?"})
	if w.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body = %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest("GET", "/api/chat/last", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat/last status = %d", rec.Code)
	}
	var last map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &last); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if last["user"] != "what should I do next?" {
		t.Errorf("last user = %q", last["user"])
	}
	if last["assistant"] != "chat reply" {
		t.Errorf("last assistant = %q", last["assistant"])
	}
}

func TestChatEndpointSurfacesGenerationFailure(t *testing.T) {
	genServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer genServer.Close()

	server := testServer(t, genServer.URL)
	router := server.Router()

	w := postJSON(t, router, "/api/chat", chatRequest{Message: "hello?"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}

	// Best-effort log: the user message is recorded even without a reply.
	lastUser, err := server.chatLog.LastUser()
	if err != nil {
		t.Fatalf("last user: %v", err)
	}
	if lastUser != "hello?" {
		t.Errorf("user message not logged: %q", lastUser)
	}
	lastAssistant, err := server.chatLog.LastAssistant()
	if err != nil {
		t.Fatalf("last assistant: %v", err)
	}
	if lastAssistant != "" {
		t.Errorf("unexpected assistant log entry: %q", lastAssistant)
	}
}

func TestExportEndpointRetriesWithoutRecompute(t *testing.T) {
	genServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(openAIStubReply("narrative for export")))
	}))
	defer genServer.Close()

	server := testServer(t, genServer.URL)
	router := server.Router()

	w := postJSON(t, router, "/api/predict", validRecord())
	var resp predictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode predict response: %v", err)
	}

	exportW := postJSON(t, router, "/api/reports", exportRequest{PredictionID: resp.ID})
	if exportW.Code != http.StatusOK {
		t.Fatalf("export status = %d, body = %s", exportW.Code, exportW.Body.String())
	}
	var exportResp map[string]string
	if err := json.Unmarshal(exportW.Body.Bytes(), &exportResp); err != nil {
		t.Fatalf("decode export response: %v", err)
	}
	if exportResp["report_path"] == "" {
		t.Fatal("expected report_path in export response")
	}

	rec, err := GetPredictionByID(server.db, resp.ID)
	if err != nil {
		t.Fatalf("stored record: %v", err)
	}
	if rec.ReportPath != exportResp["report_path"] {
		t.Errorf("report path not persisted: %q vs %q", rec.ReportPath, exportResp["report_path"])
	}
}

func TestExportEndpointUnknownID(t *testing.T) {
	genServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer genServer.Close()

	server := testServer(t, genServer.URL)
	w := postJSON(t, server.Router(), "/api/reports", exportRequest{PredictionID: 424242})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
