package main

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Server wires the prediction pipeline behind a small JSON API. The
// session transcript lives here: one conversation per process run, seeded
// with the system persona, grown only through GenerationClient calls.
type Server struct {
	cfg       Config
	db        *sql.DB
	predictor *ChurnPredictor
	stats     *DepartmentStatsService
	gen       *GenerationClient
	exporter  *ReportExporter
	chatLog   *ChatLog
	notifier  *SlackNotifier

	mu         sync.Mutex
	transcript Transcript
}

func NewServer(cfg Config, db *sql.DB, predictor *ChurnPredictor, stats *DepartmentStatsService, gen *GenerationClient, exporter *ReportExporter, chatLog *ChatLog, notifier *SlackNotifier) *Server {
	s := &Server{
		cfg:       cfg,
		db:        db,
		predictor: predictor,
		stats:     stats,
		gen:       gen,
		exporter:  exporter,
		chatLog:   chatLog,
		notifier:  notifier,
	}
	s.transcript.Append("system", systemPersona)
	return s
}

func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.GET("/healthz", s.handleHealth)
	api := router.Group("/api")
	{
		api.POST("/predict", s.handlePredict)
		api.POST("/reports", s.handleExportReport)
		api.POST("/chat", s.handleChat)
		api.GET("/chat/last", s.handleLastExchange)
		api.GET("/predictions", s.handlePredictions)
		api.GET("/metadata", s.handleMetadata)
	}
	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"model_version":  s.predictor.Version(),
		"reference_rows": s.stats.RowCount(),
	})
}

// handleMetadata lists the selectable form options for clients.
func (s *Server) handleMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"departments":  Departments,
		"salary_bands": []string{"low", "medium", "high"},
	})
}

type predictRequest struct {
	FeatureRecord
	Export bool `json:"export"`
}

type predictResponse struct {
	ID             int64             `json:"id"`
	Churn          bool              `json:"churn"`
	Probability    [2]float64        `json:"probability"`
	Score          float64           `json:"score"`
	Stats          []DepartmentStats `json:"stats,omitempty"`
	StatsError     string            `json:"stats_error,omitempty"`
	Narrative      string            `json:"narrative,omitempty"`
	NarrativeError string            `json:"narrative_error,omitempty"`
	ReportPath     string            `json:"report_path,omitempty"`
	ExportError    string            `json:"export_error,omitempty"`
}

// handlePredict runs the full pipeline: validate, predict, gather cohort
// stats, generate the narrative, optionally export. Downstream failures
// degrade the response instead of discarding the prediction.
func (s *Server) handlePredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	prediction, err := s.predictor.Predict(req.FeatureRecord)
	if err != nil {
		var invalid *InvalidInputError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error(), "field": invalid.Field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := predictResponse{
		Churn:       prediction.Churn,
		Probability: prediction.Probability,
		Score:       prediction.Score(),
	}

	statsAll, statsLeft, statsStayed, statsErr := s.cohortStats(req.Department)
	if statsErr != nil {
		// Prediction stands; the narrative needs all three cohorts, so
		// generation is skipped rather than prompting with missing data.
		log.Printf("predict stats department=%s err=%v", req.Department, statsErr)
		resp.StatsError = statsErr.Error()
	} else {
		resp.Stats = []DepartmentStats{statsAll, statsLeft, statsStayed}

		prompt := ComposeNarrativePrompt(req.FeatureRecord, prediction, statsAll, statsLeft, statsStayed)
		s.mu.Lock()
		narrative, usage, genErr := s.gen.Generate(c.Request.Context(), &s.transcript, prompt)
		s.mu.Unlock()
		if genErr != nil {
			// Degrade gracefully: the raw prediction is still returned.
			log.Printf("predict narrative err=%v", genErr)
			resp.NarrativeError = genErr.Error()
		} else {
			log.Printf("predict narrative generated tokens=%d", usage.TotalTokens())
			resp.Narrative = narrative
		}
	}

	// Persist before exporting so a render failure can be retried via
	// POST /api/reports without recomputing anything.
	now := time.Now()
	rec := PredictionRecord{
		Record:      req.FeatureRecord,
		Churn:       prediction.Churn,
		Probability: prediction.Score(),
		Narrative:   resp.Narrative,
		CreatedAt:   now,
	}
	id, err := InsertPrediction(s.db, rec)
	if err != nil {
		log.Printf("predict history insert err=%v", err)
	} else {
		resp.ID = id
		rec.ID = id
	}

	if req.Export && resp.Narrative != "" {
		table, order := AttributeTable(req.FeatureRecord)
		path, exportErr := s.exporter.Export(Report{
			NarrativeText:  resp.Narrative,
			AttributeTable: table,
			AttributeOrder: order,
			GeneratedAt:    now,
		})
		if exportErr != nil {
			log.Printf("predict export err=%v", exportErr)
			resp.ExportError = exportErr.Error()
		} else {
			resp.ReportPath = path
			if rec.ID != 0 {
				if err := UpdatePredictionReportPath(s.db, rec.ID, path); err != nil {
					log.Printf("predict report path update err=%v", err)
				}
			}
		}
	}

	if s.notifier != nil && prediction.Churn && prediction.Probability[1] >= s.cfg.AlertThreshold {
		s.notifier.AlertHighRisk(rec)
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) cohortStats(department string) (all, left, stayed DepartmentStats, err error) {
	code := departmentCodes[department]
	if all, err = s.stats.Stats(code, nil); err != nil {
		return
	}
	if left, err = s.stats.Stats(code, boolPtr(true)); err != nil {
		return
	}
	stayed, err = s.stats.Stats(code, boolPtr(false))
	return
}

type exportRequest struct {
	PredictionID int64 `json:"prediction_id"`
}

// handleExportReport re-renders the document for a stored prediction, so a
// failed export can be retried without recomputing anything.
func (s *Server) handleExportReport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	rec, err := GetPredictionByID(s.db, req.PredictionID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec.Narrative == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "prediction has no narrative to export"})
		return
	}

	table, order := AttributeTable(rec.Record)
	path, err := s.exporter.Export(Report{
		NarrativeText:  rec.Narrative,
		AttributeTable: table,
		AttributeOrder: order,
		GeneratedAt:    time.Now(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := UpdatePredictionReportPath(s.db, rec.ID, path); err != nil {
		log.Printf("export report path update err=%v", err)
	}
	c.JSON(http.StatusOK, gin.H{"report_path": path})
}

type chatRequest struct {
	Message string `json:"message"`
}

// handleChat is the free-text follow-up. The user message is logged before
// the generation call; a failed call leaves it as a logged message with no
// reply, which readers of the log must tolerate.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	if err := s.chatLog.Append("user", req.Message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	reply, _, err := s.gen.Generate(c.Request.Context(), &s.transcript, req.Message)
	s.mu.Unlock()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if err := s.chatLog.Append("assistant", reply); err != nil {
		log.Printf("chat reply log err=%v", err)
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (s *Server) handleLastExchange(c *gin.Context) {
	lastUser, err := s.chatLog.LastUser()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	lastAssistant, err := s.chatLog.LastAssistant()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": lastUser, "assistant": lastAssistant})
}

func (s *Server) handlePredictions(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			limit = parsed
		}
	}
	records, err := GetRecentPredictions(s.db, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": records})
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
