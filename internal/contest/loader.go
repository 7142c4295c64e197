package contest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// TestCase is one input/expected-output pair owned by its problem bundle.
// Hidden cases are judged but their content is never exposed over the API.
type TestCase struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
	Hidden bool   `yaml:"hidden" json:"hidden"`
}

type Problem struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	DisplayID   string     `yaml:"display_id" json:"display_id"`
	TestCases   []TestCase `yaml:"testcases" json:"-"`
	Description string     `yaml:"-" json:"description"`
	BasePath    string     `yaml:"-" json:"-"`
}

type Contest struct {
	ID            string    `yaml:"id" json:"id"`
	Title         string    `yaml:"title" json:"title"`
	StartTimeRaw  string    `yaml:"starttime" json:"starttime"`
	LengthMinutes int       `yaml:"length_minutes" json:"length_minutes"`
	ProblemDirs   []string  `yaml:"problems" json:"-"`
	ProblemIDs    []string  `yaml:"-" json:"problem_ids"`
	Description   string    `yaml:"-" json:"description"`
	BasePath      string    `yaml:"-" json:"-"`
}

// AppState holds the shared, reloadable contest and problem definitions.
type AppState struct {
	sync.RWMutex
	Contests            map[string]*Contest
	Problems            map[string]*Problem
	ProblemToContestMap map[string]*Contest
}

func NewAppState() *AppState {
	return &AppState{
		Contests:            make(map[string]*Contest),
		Problems:            make(map[string]*Problem),
		ProblemToContestMap: make(map[string]*Contest),
	}
}

// Replace swaps in a freshly loaded set of contests and problems.
func (s *AppState) Replace(contests map[string]*Contest, problems map[string]*Problem) {
	problemToContest := make(map[string]*Contest)
	for _, contest := range contests {
		for _, problemID := range contest.ProblemIDs {
			problemToContest[problemID] = contest
		}
	}

	s.Lock()
	defer s.Unlock()
	s.Contests = contests
	s.Problems = problems
	s.ProblemToContestMap = problemToContest
}

func LoadAllContestsAndProblems(contestDirs []string) (map[string]*Contest, map[string]*Problem, error) {
	contests := make(map[string]*Contest)
	problems := make(map[string]*Problem)

	for _, dir := range contestDirs {
		contest, contestProblems, err := loadContest(dir)
		if err != nil {
			zap.S().Warnf("failed to load contest from %s: %v", dir, err)
			continue
		}
		if _, exists := contests[contest.ID]; exists {
			zap.S().Warnf("duplicate contest ID %s found, skipping", dir)
			continue
		}
		contests[contest.ID] = contest

		for _, p := range contestProblems {
			if _, exists := problems[p.ID]; exists {
				zap.S().Warnf("duplicate problem ID %s found, overwriting", p.ID)
			}
			problems[p.ID] = p
		}
	}
	return contests, problems, nil
}

func loadContest(dir string) (*Contest, []*Problem, error) {
	contestPath := filepath.Join(dir, "contest.yaml")
	data, err := os.ReadFile(contestPath)
	if err != nil {
		return nil, nil, err
	}
	var contest Contest
	if err := yaml.Unmarshal(data, &contest); err != nil {
		return nil, nil, err
	}
	contest.BasePath = dir

	if contest.LengthMinutes <= 0 {
		return nil, nil, fmt.Errorf("contest %s has no positive length_minutes", contest.ID)
	}

	desc, _ := os.ReadFile(filepath.Join(dir, "index.md"))
	contest.Description = string(desc)

	var loadedProblems []*Problem
	for _, problemDirName := range contest.ProblemDirs {
		problem, err := loadProblem(filepath.Join(dir, problemDirName))
		if err != nil {
			zap.S().Warnf("failed to load problem %s in contest %s: %v", problemDirName, contest.ID, err)
			continue
		}
		contest.ProblemIDs = append(contest.ProblemIDs, problem.ID)
		loadedProblems = append(loadedProblems, problem)
	}
	return &contest, loadedProblems, nil
}

func loadProblem(dir string) (*Problem, error) {
	problemPath := filepath.Join(dir, "problem.yaml")
	data, err := os.ReadFile(problemPath)
	if err != nil {
		return nil, err
	}
	var problem Problem
	if err := yaml.Unmarshal(data, &problem); err != nil {
		return nil, err
	}
	problem.BasePath = dir

	desc, _ := os.ReadFile(filepath.Join(dir, "index.md"))
	problem.Description = string(desc)
	return &problem, nil
}
