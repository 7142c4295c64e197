package admin

import (
	"net/http"

	"github.com/codearena/codearena/internal/contest"
	"github.com/codearena/codearena/internal/database"
	"github.com/codearena/codearena/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// reload re-reads all contest bundles from disk and swaps them into the
// shared AppState.
func (h *Handler) reload(c *gin.Context) {
	contests, problems, err := contest.LoadAllContestsAndProblems(h.cfg.Contest)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	h.appState.Replace(contests, problems)

	zap.S().Infof("reloaded %d contests and %d problems", len(contests), len(problems))
	util.Success(c, gin.H{
		"contests": len(contests),
		"problems": len(problems),
	}, "Contests and problems reloaded")
}

func (h *Handler) getAllUsers(c *gin.Context) {
	users, err := database.GetAllUsers(h.db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, users, "ok")
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := database.GetUserByID(h.db, c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusNotFound, err)
		return
	}
	util.Success(c, user, "ok")
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := database.DeleteUser(h.db, c.Param("id")); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "User deleted")
}

func (h *Handler) getAllSubmissions(c *gin.Context) {
	subs, err := database.GetAllSubmissions(h.db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, subs, "ok")
}

// invalidateSubmission marks a submission as invalid for audit purposes.
// Standings already reconciled from it are left untouched.
func (h *Handler) invalidateSubmission(c *gin.Context) {
	if err := database.UpdateSubmissionValidity(h.db, c.Param("id"), false); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Submission invalidated")
}
