package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oukawa/ICALON-UMEP/pkg/layers"
	"github.com/oukawa/ICALON-UMEP/pkg/processing"
	"github.com/oukawa/ICALON-UMEP/pkg/project"
	"github.com/oukawa/ICALON-UMEP/pkg/scenario"
	"github.com/oukawa/ICALON-UMEP/pkg/validation"
)

// Server is the local development server for inspecting a project and
// trying planting runs.
type Server struct {
	projectPath string
	port        int
	log         logrus.FieldLogger
}

// New creates a server for the given project directory.
func New(projectPath string, port int, log logrus.FieldLogger) *Server {
	return &Server{
		projectPath: projectPath,
		port:        port,
		log:         log,
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	api := r.Group("/api")
	api.GET("/project", s.handleProject)
	api.GET("/validation", s.handleValidation)
	api.GET("/tiers", s.handleTiers)
	api.POST("/plant", s.handlePlant)
	api.GET("/jobs", s.handleJobs)
	r.GET("/", s.handleIndex)
	return r
}

// Start launches the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Infof("treeplanter server starting on http://localhost%s", addr)
	s.log.Infof("Project: %s", s.projectPath)

	gin.SetMode(gin.ReleaseMode)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).Round(time.Microsecond),
		}).Debug("request")
	}
}

// load reads the project, writing an error response on failure.
func (s *Server) load(c *gin.Context) (*project.Project, bool) {
	p, err := project.LoadProject(s.projectPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return p, true
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`<!DOCTYPE html>
<html><head><title>treeplanter</title></head>
<body style="margin:0;background:#111;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>treeplanter</h1>
<p>POST /api/plant?seed=N to run the project scenario.</p>
</div>
</body></html>`))
}

func (s *Server) handleProject(c *gin.Context) {
	p, ok := s.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleValidation(c *gin.Context) {
	p, ok := s.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, validation.ValidateProject(p))
}

func (s *Server) handleTiers(c *gin.Context) {
	p, ok := s.load(c)
	if !ok {
		return
	}
	tiers, report, err := scenario.Tiers(p)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "validation": report})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"percentiles": p.Planting.Percentiles,
		"tiers":       tiers,
		"validation":  report,
	})
}

func (s *Server) handlePlant(c *gin.Context) {
	p, ok := s.load(c)
	if !ok {
		return
	}

	opts := scenario.Options{NoWrite: true}
	if v := c.Query("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid seed %q", v)})
			return
		}
		opts.Seed = &seed
	}
	if v := c.Query("scenario"); v != "" {
		opts.Scenario = project.Scenario(v)
	}

	res, report, err := scenario.Run(p, opts, s.log)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scenario.ErrInvalidProject) || errors.Is(err, scenario.ErrPlanting) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error(), "validation": report})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":     res,
		"validation": report,
		"trees":      layers.TreeCollection(res.Trees, p.Attributes),
	})
}

func (s *Server) handleJobs(c *gin.Context) {
	p, ok := s.load(c)
	if !ok {
		return
	}
	if v := c.Query("scenario"); v != "" {
		p.Scenario = project.Scenario(v)
	}

	stages := processing.Stages
	if v := c.Query("stage"); v != "" {
		st, err := processing.ParseStage(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		stages = []processing.Stage{st}
	}

	report := validation.NewReport()
	jobs := []processing.Job{}
	for _, st := range stages {
		planned, r, err := processing.Plan(p, st)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		report.Merge(r)
		jobs = append(jobs, planned...)
	}

	runner := &processing.Runner{Command: p.Processing.QGISProcess}
	commands := make([]string, len(jobs))
	for i, j := range jobs {
		commands[i] = runner.CommandLine(j)
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":       jobs,
		"commands":   commands,
		"validation": report,
	})
}
