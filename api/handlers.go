package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/benchkit/internal/mmlu"
	"github.com/stellarlinkco/benchkit/internal/results"
)

func respondError(c *gin.Context, status int, err error) {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListTopics(c *gin.Context) {
	topics, err := mmlu.Topics(s.dataDir)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if topics == nil {
		topics = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	runs, err := s.store.ListRuns(c.Request.Context(), c.Query("topic"), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c *gin.Context) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, errors.New("invalid run id"))
		return
	}

	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, results.ErrNotFound) {
			respondError(c, http.StatusNotFound, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	topic := strings.TrimSpace(c.Query("topic"))
	if topic == "" {
		respondError(c, http.StatusBadRequest, errors.New("topic is required"))
		return
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	runs, err := s.store.Leaderboard(c.Request.Context(), topic, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid limit")
	}
	if n > 100 {
		n = 100
	}
	return n, nil
}
