package handlers

import (
	"context"
	"sync"

	"pulse_generator/internal/models"
	"pulse_generator/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockPacer struct {
	mu sync.Mutex

	cfg       models.PulseConfig
	updateErr error
	results   []models.ChannelStart

	lastUpdate  models.ConfigUpdate
	updateCalls int
	startCalls  int
	stopCalls   int
}

func (m *mockPacer) UpdateConfig(ctx context.Context, u models.ConfigUpdate) (models.PulseConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	m.lastUpdate = u
	return m.cfg, m.updateErr
}

func (m *mockPacer) StartAll(ctx context.Context) []models.ChannelStart {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalls++
	return m.results
}

func (m *mockPacer) StopAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
}

type mockMonitoring struct {
	status models.PacerStatus
}

func (m *mockMonitoring) Status(ctx context.Context) models.PacerStatus {
	return m.status
}

type mockActivityLog struct {
	mu   sync.Mutex
	text string
}

func (m *mockActivityLog) Snapshot() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

func (m *mockActivityLog) set(s string) {
	m.mu.Lock()
	m.text = s
	m.mu.Unlock()
}

type mockEventLog struct {
	resp       []models.PulseEvent
	err        error
	lastFilter service.LogFilter
	calls      int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.PulseEvent, error) {
	m.calls++
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
