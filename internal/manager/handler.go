package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"crackhash/internal/attack"
	"crackhash/internal/models"
)

// Handler serves the job API on top of a Manager.
type Handler struct {
	mgr         *Manager
	wordlistDir string
	log         *slog.Logger
}

func NewHandler(mgr *Manager, wordlistDir string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{mgr: mgr, wordlistDir: wordlistDir, log: log}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.HandleHealth)
	api := r.Group("/api/hash")
	api.POST("/crack", h.HandleCrack)
	api.DELETE("/crack/:id", h.HandleCancel)
	api.GET("/status", h.HandleStatus)
}

// RequestLogger logs one line per request.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(started)))
	}
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleCrack handles POST /api/hash/crack.
func (h *Handler) HandleCrack(c *gin.Context) {
	var req models.CrackHashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid crack request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	spec, err := h.specFromRequest(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error(), Code: errorCode(err)})
		return
	}

	id, err := h.mgr.Submit(spec)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error(), Code: errorCode(err)})
		return
	}
	c.JSON(http.StatusOK, models.CrackHashResponse{RequestID: id})
}

// HandleStatus handles GET /api/hash/status?requestId=.
func (h *Handler) HandleStatus(c *gin.Context) {
	id := c.Query("requestId")
	if id == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing requestId", Code: "INVALID_REQUEST"})
		return
	}
	snap, err := h.mgr.Status(id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
		return
	}

	resp := models.StatusResponse{
		Status: snap.Status,
		Progress: &models.Progress{
			Done:    snap.Done,
			Total:   snap.Total,
			Percent: percent(snap.Done, snap.Total),
		},
	}
	if snap.Status == StatusReady {
		resp.Data = []string{snap.Plaintext}
	}
	if snap.Status == StatusError && snap.Err != nil {
		resp.Error = snap.Err.Error()
		resp.Code = errorCode(snap.Err)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleCancel handles DELETE /api/hash/crack/:id.
func (h *Handler) HandleCancel(c *gin.Context) {
	err := h.mgr.Cancel(c.Param("id"))
	switch {
	case err == nil:
		c.Status(http.StatusAccepted)
	case errors.Is(err, ErrJobNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, ErrJobFinished):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error(), Code: "FINISHED"})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error(), Code: "INTERNAL"})
	}
}

func (h *Handler) specFromRequest(req models.CrackHashRequest) (attack.Spec, error) {
	switch req.Mode {
	case models.ModeBrute:
		charset := req.Charset
		if charset == "" {
			charset = models.DefaultCharset
		}
		return attack.NewBruteForce(req.Algorithm, req.Hash, charset, req.MaxLength)
	case models.ModeDict:
		path, err := h.resolveWordlist(req.Wordlist)
		if err != nil {
			return attack.Spec{}, err
		}
		return attack.NewDictionary(req.Algorithm, req.Hash, path, req.Rules)
	case models.ModeMask:
		return attack.NewMask(req.Algorithm, req.Hash, req.Mask)
	default:
		return attack.Spec{}, fmt.Errorf("%w: unknown mode %q", attack.ErrInvalidSpec, req.Mode)
	}
}

// resolveWordlist maps a client supplied name to a readable file in the wordlist
// directory.
func (h *Handler) resolveWordlist(name string) (string, error) {
	if h.wordlistDir == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %w", attack.ErrInvalidSpec, ErrWordlistPath)
	}
	path := filepath.Join(h.wordlistDir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", attack.ErrSourceUnavailable, name)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", attack.ErrSourceUnavailable, name)
	}
	return path, nil
}

func errorCode(err error) string {
	if errors.Is(err, ErrJobTimeout) {
		return "TIMEOUT"
	}
	return strings.ToUpper(attack.Kind(err))
}

func percent(done, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}
