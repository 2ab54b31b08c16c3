package autopilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jimdaga/postpilot/internal/models"
)

// fixedClock returns a settable instant
type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

// fakeStore implements every store interface in memory and counts writes
type fakeStore struct {
	configs  []models.AutopilotConfig
	memories map[string]*models.AutopilotMemory
	jobs     []models.ContentJob
	created  []models.ScheduledPost

	published    []models.ScheduledPost
	publishedErr error
	listErr      error
	saveMemErr   error

	configSaves  int
	memoryWrites int
}

func newFakeStore() *fakeStore {
	return &fakeStore{memories: make(map[string]*models.AutopilotMemory)}
}

func memKey(userID, chatID string) string { return userID + "/" + chatID }

func (s *fakeStore) ListActive(_ context.Context, now time.Time) ([]models.AutopilotConfig, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.AutopilotConfig
	for _, c := range s.configs {
		if c.Enabled && (c.PausedUntil == nil || c.PausedUntil.Before(now)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) GetConfig(_ context.Context, id uint) (*models.AutopilotConfig, error) {
	for i := range s.configs {
		if s.configs[i].ID == id {
			c := s.configs[i]
			return &c, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *fakeStore) SaveConfig(_ context.Context, config *models.AutopilotConfig) error {
	s.configSaves++
	for i := range s.configs {
		if s.configs[i].ID == config.ID {
			s.configs[i] = *config
		}
	}
	return nil
}

func (s *fakeStore) FindMemory(_ context.Context, userID, chatID string) (*models.AutopilotMemory, error) {
	m, ok := s.memories[memKey(userID, chatID)]
	if !ok {
		return nil, nil
	}
	cp := *m
	cp.ContentHistory = append(cp.ContentHistory[:0:0], m.ContentHistory...)
	return &cp, nil
}

func (s *fakeStore) CreateMemory(_ context.Context, memory *models.AutopilotMemory) error {
	s.memoryWrites++
	cp := *memory
	s.memories[memKey(memory.UserID, memory.ChatID)] = &cp
	return nil
}

func (s *fakeStore) SaveMemory(_ context.Context, memory *models.AutopilotMemory) error {
	s.memoryWrites++
	if s.saveMemErr != nil {
		return s.saveMemErr
	}
	cp := *memory
	cp.ContentHistory = append(cp.ContentHistory[:0:0], memory.ContentHistory...)
	s.memories[memKey(memory.UserID, memory.ChatID)] = &cp
	return nil
}

func (s *fakeStore) RecentPublished(_ context.Context, _ string, _ time.Time, limit int) ([]models.ScheduledPost, error) {
	if s.publishedErr != nil {
		return nil, s.publishedErr
	}
	if len(s.published) > limit {
		return s.published[:limit], nil
	}
	return s.published, nil
}

func (s *fakeStore) CreatePost(_ context.Context, post *models.ScheduledPost) error {
	s.created = append(s.created, *post)
	return nil
}

func (s *fakeStore) CreateJob(_ context.Context, job *models.ContentJob) error {
	s.jobs = append(s.jobs, *job)
	return nil
}

type fakeAnalytics struct {
	dashboard *Dashboard
	err       error
}

func (a *fakeAnalytics) GetDashboard(context.Context, string, int) (*Dashboard, error) {
	return a.dashboard, a.err
}

type fakeContent struct {
	content *PostContent
	err     error
	calls   int
	lastOpt GenerationOptions
}

func (c *fakeContent) GenerateViralPostContent(_ context.Context, _ models.JobBrief, _ []string, opts GenerationOptions) (*PostContent, error) {
	c.calls++
	c.lastOpt = opts
	return c.content, c.err
}

// fakeImages fails on the call numbers listed in failOn (1-based)
type fakeImages struct {
	calls  int
	failOn map[int]bool
	empty  bool
}

func (f *fakeImages) ExecuteJob(_ context.Context, jobID string, _ ExecuteOptions) (*JobResult, error) {
	f.calls++
	if f.failOn[f.calls] {
		return nil, fmt.Errorf("render failed for %s", jobID)
	}
	if f.empty {
		return &JobResult{}, nil
	}
	return &JobResult{Results: []ImageResult{{URL: "https://cdn.example.com/" + jobID + ".png"}}}, nil
}

// fakeAgent returns plans in order, repeating the last one
type fakeAgent struct {
	plans   []*Plan
	errFor  map[string]error
	calls   int
	lastObs Observations
}

func (a *fakeAgent) DecideDailyPlan(_ context.Context, obs Observations, _ *models.AutopilotMemory, config *models.AutopilotConfig) (*Plan, error) {
	a.calls++
	a.lastObs = obs
	if err := a.errFor[config.ChatID]; err != nil {
		return nil, err
	}
	if len(a.plans) == 0 {
		return &Plan{Reasoning: "nothing to do"}, nil
	}
	p := a.plans[0]
	if len(a.plans) > 1 {
		a.plans = a.plans[1:]
	}
	return p, nil
}

type fakeEvents struct{ events []RunEvent }

func (e *fakeEvents) PublishRunEvent(_ context.Context, event RunEvent) error {
	e.events = append(e.events, event)
	return nil
}

type harness struct {
	store     *fakeStore
	clock     *fixedClock
	analytics *fakeAnalytics
	content   *fakeContent
	images    *fakeImages
	agent     *fakeAgent
	events    *fakeEvents
	orch      *Orchestrator
}

func newHarness() *harness {
	h := &harness{
		store:     newFakeStore(),
		clock:     &fixedClock{now: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)},
		analytics: &fakeAnalytics{dashboard: &Dashboard{}},
		content:   &fakeContent{content: &PostContent{Description: "Full caption", ShortCaption: "Short", HashtagString: "#go #dev"}},
		images:    &fakeImages{failOn: map[int]bool{}},
		agent:     &fakeAgent{errFor: map[string]error{}},
		events:    &fakeEvents{},
	}
	orch, err := New(Deps{
		Configs:   h.store,
		Memories:  h.store,
		Posts:     h.store,
		Jobs:      h.store,
		Analytics: h.analytics,
		Content:   h.content,
		Images:    h.images,
		Agent:     h.agent,
		Events:    h.events,
		Clock:     h.clock,
		IDs:       &seqIDs{},
	})
	if err != nil {
		panic(err)
	}
	h.orch = orch
	return h
}

func enabledConfig(id uint, chatID string) models.AutopilotConfig {
	c := models.AutopilotConfig{
		UserID:      "user-" + chatID,
		ChatID:      chatID,
		Enabled:     true,
		Permissions: models.Permissions{AutoPost: true, AutoStory: true},
	}
	c.ID = id
	return c
}
