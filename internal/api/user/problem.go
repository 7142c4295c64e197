package user

import (
	"fmt"
	"net/http"
	"time"

	"github.com/codearena/codearena/internal/contest"
	"github.com/codearena/codearena/internal/judge"
	"github.com/codearena/codearena/internal/util"
	"github.com/gin-gonic/gin"
)

func (h *Handler) getLanguages(c *gin.Context) {
	util.Success(c, judge.SupportedLanguages(), "Supported languages retrieved")
}

func (h *Handler) getProblem(c *gin.Context) {
	problemID := c.Param("id")

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

	window := contest.ResolveForContest(parentContest, nil, time.Now())
	if window.Phase == contest.PhaseUpcoming {
		util.Error(c, http.StatusForbidden, fmt.Errorf("problem is not visible before the contest starts"))
		return
	}

	// Expose sample cases only; hidden cases never leave the server.
	type sampleCase struct {
		Input  string `json:"input"`
		Output string `json:"output"`
	}
	samples := make([]sampleCase, 0)
	for _, tc := range problem.TestCases {
		if !tc.Hidden {
			samples = append(samples, sampleCase{Input: tc.Input, Output: tc.Output})
		}
	}

	util.Success(c, gin.H{
		"id":          problem.ID,
		"display_id":  problem.DisplayID,
		"title":       problem.Title,
		"description": problem.Description,
		"samples":     samples,
		"contest_id":  parentContest.ID,
	}, "Problem found")
}
