package video

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"fork-your-story/internal/models"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Status - наблюдаемое состояние задачи генерации видео.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Тип сообщения и темы для уведомлений по WebSocket.
const (
	MessageTypeTaskUpdate = "video_task_update"
	TopicVideoTasks       = "video_tasks"
	topicTaskPrefix       = "video_task:"
)

// TaskTopic - тема WebSocket с обновлениями одной задачи.
func TaskTopic(id uuid.UUID) string { return topicTaskPrefix + id.String() }

var (
	// ErrTooManyTasks - достигнут лимит одновременных задач.
	ErrTooManyTasks = errors.New("превышено максимальное количество активных задач")
	// ErrShuttingDown - менеджер останавливается и не принимает задачи.
	ErrShuttingDown = errors.New("video manager is shutting down")
)

var (
	videoTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fork_story_video_tasks_total",
			Help: "Total number of finished video tasks by final status.",
		},
		[]string{"status"},
	)
	videoTasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fork_story_video_tasks_active",
			Help: "Number of video tasks currently pending.",
		},
	)
	videoTaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fork_story_video_task_duration_seconds",
			Help:    "Time from submission to a final task state.",
			Buckets: []float64{5, 15, 30, 60, 120, 180, 300, 600},
		},
	)
)

// Notifier получает обновления задач (WebSocket хаб).
type Notifier interface {
	SendToUser(userID, messageType, topic string, payload interface{})
	Broadcast(messageType, topic string, payload interface{})
}

// Snapshot - копия состояния задачи.
type Snapshot struct {
	ID            uuid.UUID `json:"taskId"`
	ForkID        string    `json:"forkId"`
	OwnerID       string    `json:"-"`
	Status        Status    `json:"status"`
	RequestID     string    `json:"requestId,omitempty"`
	VideoURL      string    `json:"videoUrl,omitempty"`
	Duration      string    `json:"duration,omitempty"`
	Error         string    `json:"error,omitempty"`
	QueueStatus   string    `json:"queueStatus,omitempty"`
	QueuePosition *int      `json:"queuePosition,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Task - handle асинхронной генерации. Done закрывается при переходе в ready или failed.
type Task struct {
	mu   sync.RWMutex
	snap Snapshot
	err  error
	done chan struct{}
}

// ID задачи.
func (t *Task) ID() uuid.UUID { return t.snap.ID }

// Done закрывается, когда задача завершена.
func (t *Task) Done() <-chan struct{} { return t.done }

// Snapshot возвращает копию текущего состояния.
func (t *Task) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.snap
	if s.QueuePosition != nil {
		p := *s.QueuePosition
		s.QueuePosition = &p
	}
	return s
}

// Err - причина неудачи. nil, пока задача не завершилась ошибкой.
func (t *Task) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Wait ждет завершения задачи или отмены ctx. Отмена ctx не останавливает задачу.
func (t *Task) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-t.done:
		return t.Snapshot(), t.Err()
	case <-ctx.Done():
		return t.Snapshot(), ctx.Err()
	}
}

// ManagerConfig - настройки менеджера задач.
type ManagerConfig struct {
	MaxActive       int
	CacheSize       int
	PollInterval    time.Duration
	Timeout         time.Duration
	DurationSeconds int    // 5 или 10
	AspectRatio     string // по умолчанию 16:9
}

// Manager запускает генерацию видео как асинхронные задачи.
// Активные задачи живут в map, завершенные вытесняются из LRU.
type Manager struct {
	provider Provider
	cfg      ManagerConfig
	logger   *zap.Logger

	mu       sync.Mutex
	active   map[uuid.UUID]*Task
	finished *lru.Cache
	notifier Notifier
	closed   bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager создает менеджер задач.
func NewManager(provider Provider, cfg ManagerConfig, logger *zap.Logger) (*Manager, error) {
	if cfg.MaxActive <= 0 {
		cfg.MaxActive = 8
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.DurationSeconds != 10 {
		cfg.DurationSeconds = 5
	}
	if cfg.AspectRatio == "" {
		cfg.AspectRatio = "16:9"
	}

	finished, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create task cache: %w", err)
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	return &Manager{
		provider: provider,
		cfg:      cfg,
		logger:   logger.Named("VideoManager"),
		active:   make(map[uuid.UUID]*Task),
		finished: finished,
		baseCtx:  baseCtx,
		cancel:   cancel,
	}, nil
}

// SetNotifier подключает получателя обновлений задач.
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

// Submit ставит генерацию трейлера развилки. Задача не зависит от ctx запроса.
func (m *Manager) Submit(ctx context.Context, fork models.NarrativeFork, ownerID string) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	task := &Task{
		snap: Snapshot{
			ID:        uuid.New(),
			ForkID:    fork.ID,
			OwnerID:   ownerID,
			Status:    StatusPending,
			Duration:  strconv.Itoa(m.cfg.DurationSeconds),
			CreatedAt: now,
			UpdatedAt: now,
		},
		done: make(chan struct{}),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrShuttingDown
	}
	if len(m.active) >= m.cfg.MaxActive {
		m.mu.Unlock()
		return nil, ErrTooManyTasks
	}
	m.active[task.snap.ID] = task
	m.wg.Add(1)
	m.mu.Unlock()

	videoTasksActive.Inc()
	req := Request{
		Prompt:      BuildPrompt(fork.Title, fork.Description),
		Duration:    strconv.Itoa(m.cfg.DurationSeconds),
		AspectRatio: m.cfg.AspectRatio,
	}
	m.logger.Info("Video task submitted", zap.String("task_id", task.snap.ID.String()), zap.String("fork_id", fork.ID))
	m.notify(task.Snapshot())

	go func() {
		defer m.wg.Done()
		m.run(task, req)
	}()
	return task, nil
}

// Get возвращает снимок задачи, активной или недавно завершенной.
func (m *Manager) Get(id uuid.UUID) (Snapshot, bool) {
	m.mu.Lock()
	task, ok := m.active[id]
	m.mu.Unlock()
	if ok {
		return task.Snapshot(), true
	}
	if v, ok := m.finished.Get(id); ok {
		return v.(*Task).Snapshot(), true
	}
	return Snapshot{}, false
}

// Shutdown отменяет незавершенные задачи и ждет их горутины.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info("Video manager stopped")
		return nil
	case <-ctx.Done():
		return errors.New("таймаут при ожидании завершения задач")
	}
}

func (m *Manager) run(task *Task, req Request) {
	ctx, cancel := context.WithTimeout(m.baseCtx, m.cfg.Timeout)
	defer cancel()
	log := m.logger.With(zap.String("task_id", task.snap.ID.String()))

	handle, err := m.provider.Submit(ctx, req)
	if err != nil {
		m.finish(task, "", err)
		return
	}
	m.update(task, func(s *Snapshot) { s.RequestID = handle.RequestID; s.QueueStatus = QueueInQueue })

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		st, err := m.provider.Status(ctx, handle)
		if err != nil {
			m.finish(task, "", err)
			return
		}
		m.recordProgress(task, st)
		if st.Status == QueueCompleted {
			break
		}
		select {
		case <-ctx.Done():
			m.finish(task, "", ctx.Err())
			return
		case <-ticker.C:
		}
	}

	url, err := m.provider.Result(ctx, handle)
	if err != nil {
		m.finish(task, "", err)
		return
	}
	log.Info("Video ready", zap.String("request_id", handle.RequestID))
	m.finish(task, url, nil)
}

// recordProgress сохраняет статус очереди и уведомляет только при изменениях.
func (m *Manager) recordProgress(task *Task, st QueueStatus) {
	task.mu.RLock()
	prevStatus := task.snap.QueueStatus
	prevPos := task.snap.QueuePosition
	task.mu.RUnlock()

	samePos := (prevPos == nil && st.QueuePosition == nil) ||
		(prevPos != nil && st.QueuePosition != nil && *prevPos == *st.QueuePosition)
	if prevStatus == st.Status && samePos {
		return
	}
	for _, l := range st.Logs {
		m.logger.Debug("fal.ai queue log", zap.String("task_id", task.snap.ID.String()), zap.String("message", l.Message))
	}
	m.update(task, func(s *Snapshot) {
		s.QueueStatus = st.Status
		s.QueuePosition = st.QueuePosition
	})
}

func (m *Manager) update(task *Task, fn func(s *Snapshot)) {
	task.mu.Lock()
	fn(&task.snap)
	task.snap.UpdatedAt = time.Now().UTC()
	task.mu.Unlock()
	m.notify(task.Snapshot())
}

func (m *Manager) finish(task *Task, videoURL string, err error) {
	task.mu.Lock()
	if err != nil {
		task.snap.Status = StatusFailed
		task.snap.Error = err.Error()
		task.err = fmt.Errorf("%w: %w", ErrVideoGenerationFailed, err)
	} else {
		task.snap.Status = StatusReady
		task.snap.VideoURL = videoURL
		task.snap.QueueStatus = QueueCompleted
		task.snap.QueuePosition = nil
	}
	task.snap.UpdatedAt = time.Now().UTC()
	elapsed := task.snap.UpdatedAt.Sub(task.snap.CreatedAt)
	status := task.snap.Status
	task.mu.Unlock()

	m.mu.Lock()
	delete(m.active, task.snap.ID)
	m.finished.Add(task.snap.ID, task)
	m.mu.Unlock()

	videoTasksActive.Dec()
	videoTasksTotal.WithLabelValues(string(status)).Inc()
	videoTaskDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.logger.Error("Video task failed", zap.String("task_id", task.snap.ID.String()), zap.Bool("auth_error", IsAuthError(err)), zap.Error(err))
	}
	m.notify(task.Snapshot())
	close(task.done)
}

func (m *Manager) notify(s Snapshot) {
	m.mu.Lock()
	n := m.notifier
	m.mu.Unlock()
	if n == nil {
		return
	}
	if s.OwnerID != "" {
		n.SendToUser(s.OwnerID, MessageTypeTaskUpdate, TopicVideoTasks, s)
	}
	n.Broadcast(MessageTypeTaskUpdate, TaskTopic(s.ID), s)
}
