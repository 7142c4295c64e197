package user

import (
	"fmt"
	"net/http"
	"time"

	"github.com/codearena/codearena/internal/contest"
	"github.com/codearena/codearena/internal/database"
	"github.com/codearena/codearena/internal/database/models"
	"github.com/codearena/codearena/internal/util"
	"github.com/gin-gonic/gin"
)

func (h *Handler) getAllContests(c *gin.Context) {
	h.appState.RLock()
	defer h.appState.RUnlock()

	// Hide problem IDs in the list view; copies avoid mutating shared state.
	responseContests := make(map[string]contest.Contest, len(h.appState.Contests))
	for id, cnt := range h.appState.Contests {
		contestCopy := *cnt
		contestCopy.ProblemIDs = []string{}
		responseContests[id] = contestCopy
	}

	util.Success(c, responseContests, "Contests loaded")
}

func (h *Handler) getContest(c *gin.Context) {
	contestID := c.Param("id")
	h.appState.RLock()
	cnt, ok := h.appState.Contests[contestID]
	h.appState.RUnlock()

	if !ok {
		util.Error(c, http.StatusNotFound, fmt.Errorf("contest not found"))
		return
	}

	now := time.Now()
	window := contest.ResolveForContest(cnt, nil, now)

	// Problems stay hidden until the contest has started.
	if window.Phase == contest.PhaseUpcoming {
		contestCopy := *cnt
		contestCopy.ProblemIDs = []string{}
		util.Success(c, gin.H{"contest": contestCopy, "window": window}, "Contest found, but has not started")
		return
	}
	util.Success(c, gin.H{"contest": cnt, "window": window}, "Contest found")
}

func (h *Handler) getContestLeaderboard(c *gin.Context) {
	contestID := c.Param("id")
	leaderboard, err := database.GetLeaderboard(h.db, contestID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, leaderboard, "Leaderboard retrieved")
}

func (h *Handler) registerForContest(c *gin.Context) {
	userID := c.GetString("userID")
	contestID := c.Param("id")

	h.appState.RLock()
	cnt, ok := h.appState.Contests[contestID]
	h.appState.RUnlock()

	if !ok {
		util.Error(c, http.StatusNotFound, fmt.Errorf("contest not found"))
		return
	}

	window := contest.ResolveForContest(cnt, nil, time.Now())
	if window.Phase == contest.PhaseEnded {
		util.Error(c, http.StatusForbidden, fmt.Errorf("contest has ended, cannot register"))
		return
	}

	user, err := database.GetUserByID(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusNotFound, err)
		return
	}

	if err := database.RegisterForContest(h.db, user.ID, contestID); err != nil {
		if err == database.ErrAlreadyRegistered {
			util.Error(c, http.StatusConflict, err)
			return
		}
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Successfully registered for contest")
}

// getContestClock resolves the caller's current timing window. An expired
// virtual session is finished here, on demand, so the response immediately
// falls back to the real contest's state.
func (h *Handler) getContestClock(c *gin.Context) {
	userID := c.GetString("userID")
	contestID := c.Param("id")

	h.appState.RLock()
	cnt, ok := h.appState.Contests[contestID]
	h.appState.RUnlock()

	if !ok {
		util.Error(c, http.StatusNotFound, "contest not found")
		return
	}

	now := time.Now()
	vp, err := database.GetVirtualParticipation(h.db, contestID, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	window := contest.ResolveForContest(cnt, vp, now)
	if window.Phase == contest.PhaseVirtual && !now.Before(window.Deadline) {
		if err := database.FinishVirtualParticipation(h.db, contestID, userID); err != nil {
			util.Error(c, http.StatusInternalServerError, err)
			return
		}
		window = contest.ResolveForContest(cnt, nil, now)
	}

	util.Success(c, window, "Clock resolved")
}

func (h *Handler) startVirtual(c *gin.Context) {
	userID := c.GetString("userID")
	contestID := c.Param("id")

	h.appState.RLock()
	cnt, ok := h.appState.Contests[contestID]
	h.appState.RUnlock()

	if !ok {
		util.Error(c, http.StatusNotFound, "contest not found")
		return
	}

	now := time.Now()
	window := contest.ResolveForContest(cnt, nil, now)
	if window.Phase != contest.PhaseEnded {
		util.Error(c, http.StatusForbidden, fmt.Errorf("virtual participation opens after the contest ends"))
		return
	}

	vp, err := database.StartVirtualParticipation(h.db, contestID, userID, now)
	if err != nil {
		if err == database.ErrVirtualExists {
			util.Error(c, http.StatusConflict, err)
			return
		}
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, vp, "Virtual participation started")
}

func (h *Handler) finishVirtual(c *gin.Context) {
	userID := c.GetString("userID")
	contestID := c.Param("id")

	vp, err := database.GetVirtualParticipation(h.db, contestID, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	if vp == nil || vp.Status != models.VirtualOngoing {
		util.Error(c, http.StatusNotFound, "no ongoing virtual participation")
		return
	}

	if err := database.FinishVirtualParticipation(h.db, contestID, userID); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Virtual participation finished")
}

func (h *Handler) getVirtualStanding(c *gin.Context) {
	userID := c.GetString("userID")
	contestID := c.Param("id")

	vp, err := database.GetVirtualParticipation(h.db, contestID, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	if vp == nil {
		util.Error(c, http.StatusNotFound, "no virtual participation for this contest")
		return
	}
	util.Success(c, vp, "Virtual standing retrieved")
}

func (h *Handler) getContestSubmissions(c *gin.Context) {
	userID := c.GetString("userID")
	contestID := c.Param("id")

	subs, err := database.GetContestSubmissions(h.db, contestID, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, subs, "Contest submissions retrieved")
}
