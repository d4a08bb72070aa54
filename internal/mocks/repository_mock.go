package mocks

import (
	"context"
	"time"

	"fork-your-story/internal/models"
	"fork-your-story/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStoryRepository is a mock type for the repository.StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

func (_m *MockStoryRepository) Create(ctx context.Context, story *models.Story) error {
	ret := _m.Called(ctx, story)
	return ret.Error(0)
}

func (_m *MockStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	ret := _m.Called(ctx, id)
	var r0 *models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Story)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Story, error) {
	ret := _m.Called(ctx, userID, limit, offset)
	var r0 []models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Story)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryRepository) CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	ret := _m.Called(ctx, userID, since)
	return ret.Int(0), ret.Error(1)
}

func (_m *MockStoryRepository) Update(ctx context.Context, id uuid.UUID, patch models.StoryPatch) (*models.Story, error) {
	ret := _m.Called(ctx, id, patch)
	var r0 *models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Story)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// MockAnalysisRepository is a mock type for the repository.AnalysisRepository type
type MockAnalysisRepository struct {
	mock.Mock
}

func (_m *MockAnalysisRepository) CreateAnalysis(ctx context.Context, storyID uuid.UUID, analysis *models.StoryAnalysis) (uuid.UUID, error) {
	ret := _m.Called(ctx, storyID, analysis)
	var r0 uuid.UUID
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(uuid.UUID)
	}
	return r0, ret.Error(1)
}

func (_m *MockAnalysisRepository) CreateParallels(ctx context.Context, analysisID uuid.UUID, parallels []models.HistoricalParallel) error {
	ret := _m.Called(ctx, analysisID, parallels)
	return ret.Error(0)
}

func (_m *MockAnalysisRepository) CreateForks(ctx context.Context, analysisID uuid.UUID, forks []models.NarrativeFork) error {
	ret := _m.Called(ctx, analysisID, forks)
	return ret.Error(0)
}

// MockConnectionRepository is a mock type for the repository.ConnectionRepository type
type MockConnectionRepository struct {
	mock.Mock
}

func (_m *MockConnectionRepository) ListForStory(ctx context.Context, storyID uuid.UUID) ([]models.StoryConnection, error) {
	ret := _m.Called(ctx, storyID)
	var r0 []models.StoryConnection
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.StoryConnection)
	}
	return r0, ret.Error(1)
}

func (_m *MockConnectionRepository) Create(ctx context.Context, conn *models.StoryConnection) error {
	ret := _m.Called(ctx, conn)
	return ret.Error(0)
}

// MockProfileRepository is a mock type for the repository.ProfileRepository type
type MockProfileRepository struct {
	mock.Mock
}

func (_m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	ret := _m.Called(ctx, id)
	var r0 *models.Profile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Profile)
	}
	return r0, ret.Error(1)
}

func (_m *MockProfileRepository) IncrementStoriesCount(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

var (
	_ repository.StoryRepository      = (*MockStoryRepository)(nil)
	_ repository.AnalysisRepository   = (*MockAnalysisRepository)(nil)
	_ repository.ConnectionRepository = (*MockConnectionRepository)(nil)
	_ repository.ProfileRepository    = (*MockProfileRepository)(nil)
)
