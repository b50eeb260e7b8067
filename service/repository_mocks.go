package service

import (
	"context"

	"whojoined/events"
	"whojoined/models"

	"github.com/stretchr/testify/mock"
)

// MockGuildConfigRepository is a mock implementation of GuildConfigRepository
type MockGuildConfigRepository struct {
	mock.Mock
}

func (m *MockGuildConfigRepository) Get(ctx context.Context, guildID int64) (*models.GuildConfig, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildConfig), args.Error(1)
}

func (m *MockGuildConfigRepository) GetOrCreate(ctx context.Context, guildID int64, defaultLocale, defaultTimezone string) (*models.GuildConfig, error) {
	args := m.Called(ctx, guildID, defaultLocale, defaultTimezone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildConfig), args.Error(1)
}

func (m *MockGuildConfigRepository) Update(ctx context.Context, config *models.GuildConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockGuildConfigRepository) UpsertAllowedRole(ctx context.Context, grant models.AllowedRole) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *MockGuildConfigRepository) RemoveAllowedRole(ctx context.Context, guildID, roleID int64) error {
	args := m.Called(ctx, guildID, roleID)
	return args.Error(0)
}

func (m *MockGuildConfigRepository) UpsertAllowedUser(ctx context.Context, grant models.AllowedUser) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *MockGuildConfigRepository) RemoveAllowedUser(ctx context.Context, guildID, userID int64) error {
	args := m.Called(ctx, guildID, userID)
	return args.Error(0)
}

// MockWatcherRepository is a mock implementation of WatcherRepository
type MockWatcherRepository struct {
	mock.Mock
}

func (m *MockWatcherRepository) GetByGuildAndUser(ctx context.Context, guildID, userID int64) (*models.WatcherConfig, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WatcherConfig), args.Error(1)
}

func (m *MockWatcherRepository) ListByGuild(ctx context.Context, guildID int64) ([]*models.WatcherConfig, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WatcherConfig), args.Error(1)
}

func (m *MockWatcherRepository) ListByUser(ctx context.Context, userID int64) ([]*models.WatcherConfig, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WatcherConfig), args.Error(1)
}

func (m *MockWatcherRepository) Create(ctx context.Context, watcher *models.WatcherConfig) error {
	args := m.Called(ctx, watcher)
	return args.Error(0)
}

func (m *MockWatcherRepository) Update(ctx context.Context, watcher *models.WatcherConfig) error {
	args := m.Called(ctx, watcher)
	return args.Error(0)
}

func (m *MockWatcherRepository) Delete(ctx context.Context, guildID, userID int64) error {
	args := m.Called(ctx, guildID, userID)
	return args.Error(0)
}

func (m *MockWatcherRepository) SyncByUser(ctx context.Context, userID, sourceGuildID int64, fields models.SyncedFields) (int64, error) {
	args := m.Called(ctx, userID, sourceGuildID, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWatcherRepository) AddExcludedUser(ctx context.Context, watcherID, userID int64) error {
	args := m.Called(ctx, watcherID, userID)
	return args.Error(0)
}

func (m *MockWatcherRepository) RemoveExcludedUser(ctx context.Context, watcherID, userID int64) error {
	args := m.Called(ctx, watcherID, userID)
	return args.Error(0)
}

func (m *MockWatcherRepository) AddExcludedRole(ctx context.Context, watcherID, roleID int64) error {
	args := m.Called(ctx, watcherID, roleID)
	return args.Error(0)
}

func (m *MockWatcherRepository) RemoveExcludedRole(ctx context.Context, watcherID, roleID int64) error {
	args := m.Called(ctx, watcherID, roleID)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// recordingPublisher collects published events for assertions
type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) {
	p.published = append(p.published, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return the instances wired in with SetRepositories rather than going
// through mock expectations.
type MockUnitOfWork struct {
	mock.Mock
	guildConfigRepo GuildConfigRepository
	watcherRepo     WatcherRepository
	eventBus        EventPublisher
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(guildConfigRepo GuildConfigRepository, watcherRepo WatcherRepository, eventBus EventPublisher) {
	m.guildConfigRepo = guildConfigRepo
	m.watcherRepo = watcherRepo
	if eventBus != nil {
		m.eventBus = eventBus
	} else {
		m.eventBus = &recordingPublisher{}
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) GuildConfigRepository() GuildConfigRepository {
	return m.guildConfigRepo
}

func (m *MockUnitOfWork) WatcherRepository() WatcherRepository {
	return m.watcherRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockVoicePresenceProvider is a mock implementation of VoicePresenceProvider
type MockVoicePresenceProvider struct {
	mock.Mock
}

func (m *MockVoicePresenceProvider) WatcherPresence(guildID, userID int64) (*WatcherPresence, error) {
	args := m.Called(guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WatcherPresence), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendDirectMessage(ctx context.Context, recipientID int64, msg *DirectMessage) error {
	args := m.Called(ctx, recipientID, msg)
	return args.Error(0)
}

// stubTranslator returns canned strings without loading locale files
type stubTranslator struct {
	entries map[string]string
}

func (t *stubTranslator) Translate(key, locale string) string {
	if v, ok := t.entries[key+":"+locale]; ok {
		return v
	}
	if v, ok := t.entries[key]; ok {
		return v
	}
	return key
}
