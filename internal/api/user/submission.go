package user

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/codearena/codearena/internal/database"
	"github.com/codearena/codearena/internal/judge"
	"github.com/codearena/codearena/internal/util"
	"github.com/gin-gonic/gin"
)

func (h *Handler) submitToProblem(c *gin.Context) {
	userID := c.GetString("userID")
	problemID := c.Param("id")

	var req struct {
		Language   string `json:"language" binding:"required"`
		SourceCode string `json:"source_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	h.appState.RLock()
	problem, ok := h.appState.Problems[problemID]
	parentContest := h.appState.ProblemToContestMap[problemID]
	h.appState.RUnlock()

	if !ok {
		util.Error(c, http.StatusNotFound, fmt.Errorf("problem not found"))
		return
	}
	if parentContest == nil {
		util.Error(c, http.StatusInternalServerError, fmt.Errorf("problem has no parent contest"))
		return
	}

	sub, err := h.orchestrator.Submit(c.Request.Context(), judge.SubmitRequest{
		Contest:    parentContest,
		Problem:    problem,
		UserID:     userID,
		Language:   req.Language,
		SourceCode: req.SourceCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, judge.ErrNotEligible),
			errors.Is(err, judge.ErrContestNotStarted):
			util.Error(c, http.StatusForbidden, err)
		case errors.Is(err, judge.ErrEmptySource),
			errors.Is(err, judge.ErrNoTestCases),
			errors.Is(err, judge.ErrNoProblem),
			errors.Is(err, judge.ErrUnsupportedLanguage):
			util.Error(c, http.StatusBadRequest, err)
		default:
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	util.Success(c, sub, "Submission judged")
}

func (h *Handler) getUserSubmissions(c *gin.Context) {
	userID := c.GetString("userID")
	history, err := database.GetUserSubmissionHistory(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, history, "ok")
}

func (h *Handler) getUserSubmission(c *gin.Context) {
	subID := c.Param("id")
	userID := c.GetString("userID")

	sub, err := database.GetSubmission(h.db, subID)
	if err != nil {
		util.Error(c, http.StatusNotFound, err)
		return
	}
	if sub.UserID != userID {
		util.Error(c, http.StatusForbidden, fmt.Errorf("you can only view your own submissions"))
		return
	}
	util.Success(c, sub, "ok")
}
