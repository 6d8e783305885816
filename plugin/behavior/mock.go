package behavior

import (
	"context"
	"sync"
)

// MockService is a canned implementation of Service for testing consumers
// such as the HTTP handlers.
type MockService struct {
	mu sync.Mutex

	RecordedInteractions []RecordInteraction
	LearnedFeedback      []MockFeedback

	Profiles map[string]UserProfile
	Styles   map[string]ResponseStyle

	// PersonalizeFn overrides PersonalizePrompt; by default the base
	// prompt is returned unchanged.
	PersonalizeFn func(userID, basePrompt string) string

	Report    *ReliabilityReport
	ReportErr error
}

// MockFeedback captures one LearnFromFeedback call.
type MockFeedback struct {
	UserID            string
	Feedback          string
	SatisfactionScore float64
}

// NewMockService creates an empty mock.
func NewMockService() *MockService {
	return &MockService{
		Profiles: make(map[string]UserProfile),
		Styles:   make(map[string]ResponseStyle),
	}
}

func (m *MockService) Record(_ context.Context, rec RecordInteraction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordedInteractions = append(m.RecordedInteractions, rec)
}

func (m *MockService) GetProfile(_ context.Context, userID string) UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if profile, ok := m.Profiles[userID]; ok {
		return profile
	}
	return UserProfile{
		UserID:         userID,
		PreferredStyle: StyleBalanced,
		Preferences:    map[string]string{},
	}
}

func (m *MockService) ResponseStyleFor(_ context.Context, userID string) ResponseStyle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if style, ok := m.Styles[userID]; ok {
		return style
	}
	return StyleBalanced
}

func (m *MockService) PersonalizePrompt(_ context.Context, userID string, basePrompt string) string {
	m.mu.Lock()
	fn := m.PersonalizeFn
	m.mu.Unlock()
	if fn != nil {
		return fn(userID, basePrompt)
	}
	return basePrompt
}

func (m *MockService) LearnFromFeedback(_ context.Context, userID string, feedback string, satisfactionScore float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LearnedFeedback = append(m.LearnedFeedback, MockFeedback{
		UserID:            userID,
		Feedback:          feedback,
		SatisfactionScore: satisfactionScore,
	})
}

func (m *MockService) ReliabilityMetrics(_ context.Context) (*ReliabilityReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReportErr != nil {
		return nil, m.ReportErr
	}
	return m.Report, nil
}

// Clear removes all captured calls (for testing).
func (m *MockService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordedInteractions = nil
	m.LearnedFeedback = nil
}

// Ensure MockService implements Service.
var _ Service = (*MockService)(nil)
