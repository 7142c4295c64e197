package database

import (
	"errors"
	"sort"
	"time"

	"github.com/codearena/codearena/internal/database/models"
	"gorm.io/gorm"
)

// User CRUD
func CreateUser(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

func GetUserByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByGitLabID(db *gorm.DB, gitlabID string) (*models.User, error) {
	var user models.User
	if err := db.Where("git_lab_id = ?", gitlabID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetAllUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func UpdateUser(db *gorm.DB, user *models.User) error {
	return db.Save(user).Error
}

func DeleteUser(db *gorm.DB, userID string) error {
	return db.Delete(&models.User{}, "id = ?", userID).Error
}

// Registration

var ErrAlreadyRegistered = errors.New("already registered")

func RegisterForContest(db *gorm.DB, userID, contestID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Registration{}).
			Where("user_id = ? AND contest_id = ?", userID, contestID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyRegistered
		}
		return tx.Create(&models.Registration{ContestID: contestID, UserID: userID}).Error
	})
}

func IsUserRegisteredForContest(db *gorm.DB, userID, contestID string) (bool, error) {
	var count int64
	err := db.Model(&models.Registration{}).
		Where("user_id = ? AND contest_id = ?", userID, contestID).
		Count(&count).Error
	return count > 0, err
}

// Virtual participation

// GetVirtualParticipation returns nil without error when the user has no
// virtual session for the contest.
func GetVirtualParticipation(db *gorm.DB, contestID, userID string) (*models.VirtualParticipation, error) {
	var vp models.VirtualParticipation
	err := db.Where("contest_id = ? AND user_id = ?", contestID, userID).First(&vp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vp, nil
}

var ErrVirtualExists = errors.New("virtual participation already exists")

func StartVirtualParticipation(db *gorm.DB, contestID, userID string, startedAt time.Time) (*models.VirtualParticipation, error) {
	vp := models.VirtualParticipation{
		ContestID:         contestID,
		UserID:            userID,
		Status:            models.VirtualOngoing,
		StartedAt:         startedAt,
		AcceptedProblems:  models.AcceptedMap{},
		WrongSubmissions:  models.CountMap{},
		AttemptedProblems: models.FlagMap{},
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.VirtualParticipation{}).
			Where("contest_id = ? AND user_id = ?", contestID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrVirtualExists
		}
		return tx.Create(&vp).Error
	})
	if err != nil {
		return nil, err
	}
	return &vp, nil
}

// FinishVirtualParticipation advances the session to FINISHED. It is a single
// status write so the clock watcher can fire it on expiry without re-reading.
func FinishVirtualParticipation(db *gorm.DB, contestID, userID string) error {
	return db.Model(&models.VirtualParticipation{}).
		Where("contest_id = ? AND user_id = ? AND status = ?", contestID, userID, models.VirtualOngoing).
		Update("status", models.VirtualFinished).Error
}

// Submissions

// CreateSubmission writes the submission and its outbox row in one
// transaction. The per-user history copy is projected asynchronously.
func CreateSubmission(db *gorm.DB, sub *models.Submission) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		return tx.Create(&models.SubmissionOutbox{SubmissionID: sub.ID}).Error
	})
}

func GetSubmission(db *gorm.DB, id string) (*models.Submission, error) {
	var sub models.Submission
	if err := db.Preload("User").Where("id = ?", id).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetContestSubmissions is the contest-scoped submission log for one user.
func GetContestSubmissions(db *gorm.DB, contestID, userID string) ([]models.Submission, error) {
	var subs []models.Submission
	if err := db.Where("contest_id = ? AND user_id = ?", contestID, userID).
		Order("created_at desc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// GetUserSubmissionHistory reads the projected global history.
func GetUserSubmissionHistory(db *gorm.DB, userID string) ([]models.UserSubmissionLog, error) {
	var logs []models.UserSubmissionLog
	if err := db.Where("user_id = ?", userID).Order("submitted_at desc").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func GetAllSubmissions(db *gorm.DB) ([]models.Submission, error) {
	var subs []models.Submission
	if err := db.Preload("User").Order("created_at desc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func UpdateSubmissionValidity(db *gorm.DB, id string, isValid bool) error {
	return db.Model(&models.Submission{}).Where("id = ?", id).Update("is_valid", isValid).Error
}

// Outbox

func NextOutboxBatch(db *gorm.DB, limit int) ([]models.SubmissionOutbox, error) {
	var rows []models.SubmissionOutbox
	if err := db.Order("created_at asc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func DeleteOutboxRow(db *gorm.DB, id uint) error {
	return db.Delete(&models.SubmissionOutbox{}, "id = ?", id).Error
}

func MarkOutboxFailure(db *gorm.DB, id uint, cause string) error {
	return db.Model(&models.SubmissionOutbox{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause,
		}).Error
}

// Leaderboard

type RankedEntry struct {
	UserID            string             `json:"user_id"`
	Username          string             `json:"username"`
	Nickname          string             `json:"nickname"`
	AvatarURL         string             `json:"avatar_url"`
	AcceptedCount     int                `json:"accepted_count"`
	Penalty           int                `json:"penalty"`
	AcceptedProblems  models.AcceptedMap `json:"accepted_problems"`
	WrongSubmissions  models.CountMap    `json:"wrong_submissions"`
	AttemptedProblems models.FlagMap     `json:"attempted_problems"`
}

// GetLeaderboard returns the official standings of a contest: most problems
// accepted first, lower penalty breaking ties.
func GetLeaderboard(db *gorm.DB, contestID string) ([]RankedEntry, error) {
	var entries []models.LeaderboardEntry
	if err := db.Where("contest_id = ?", contestID).Find(&entries).Error; err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		userIDs = append(userIDs, e.UserID)
	}
	var users []models.User
	if len(userIDs) > 0 {
		if err := db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, err
		}
	}
	usersByID := make(map[string]models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	results := make([]RankedEntry, 0, len(entries))
	for _, e := range entries {
		u := usersByID[e.UserID]
		results = append(results, RankedEntry{
			UserID:            e.UserID,
			Username:          u.Username,
			Nickname:          u.Nickname,
			AvatarURL:         u.AvatarURL,
			AcceptedCount:     e.AcceptedCount,
			Penalty:           e.Penalty,
			AcceptedProblems:  e.AcceptedProblems,
			WrongSubmissions:  e.WrongSubmissions,
			AttemptedProblems: e.AttemptedProblems,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].AcceptedCount != results[j].AcceptedCount {
			return results[i].AcceptedCount > results[j].AcceptedCount
		}
		return results[i].Penalty < results[j].Penalty
	})
	return results, nil
}
