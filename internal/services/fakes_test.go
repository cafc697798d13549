package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eukexpress-backend/internal/config"
	"eukexpress-backend/internal/email"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/storage"
)

var testNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

// memShipments is an in-memory ShipmentStore. Mutate works on a copy and
// only publishes it when fn succeeds.
type memShipments struct {
	mu      sync.Mutex
	rows    map[string]*models.Shipment
	history []*models.StatusHistoryEntry
	ledger  []*models.InterventionLogEntry
	tasks   []*models.NotificationTask
	taken   map[string]bool
	nextID  int64
}

func newMemShipments() *memShipments {
	return &memShipments{rows: map[string]*models.Shipment{}, taken: map[string]bool{}}
}

func clone(s *models.Shipment) *models.Shipment {
	c := *s
	return &c
}

func (m *memShipments) TrackingExists(_ context.Context, tracking string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[tracking]
	return ok || m.taken[tracking], nil
}

func (m *memShipments) Insert(_ context.Context, s *models.Shipment, cs *models.ChangeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.TrackingNumber] = clone(s)
	m.append(cs)
	return nil
}

func (m *memShipments) append(cs *models.ChangeSet) {
	if cs.Empty() {
		return
	}
	if cs.History != nil {
		m.nextID++
		cs.History.ID = m.nextID
		m.history = append(m.history, cs.History)
	}
	if cs.Intervention != nil {
		m.nextID++
		cs.Intervention.ID = m.nextID
		m.ledger = append(m.ledger, cs.Intervention)
	}
	for _, t := range cs.Tasks {
		m.nextID++
		t.ID = m.nextID
		m.tasks = append(m.tasks, t)
	}
}

func (m *memShipments) Mutate(_ context.Context, tracking string, fn func(*models.Shipment) (*models.ChangeSet, error)) (*models.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[tracking]
	if !ok {
		return nil, models.ErrNotFound
	}
	work := clone(row)
	cs, err := fn(work)
	if err != nil {
		return nil, err
	}
	m.rows[tracking] = work
	m.append(cs)
	return clone(work), nil
}

func (m *memShipments) GetByTracking(_ context.Context, tracking string) (*models.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[tracking]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clone(row), nil
}

func (m *memShipments) sorted(keep func(*models.Shipment) bool) []*models.Shipment {
	var out []*models.Shipment
	for _, s := range m.rows {
		if keep(s) {
			out = append(out, clone(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func matchFilter(f models.ListFilter) func(*models.Shipment) bool {
	return func(s *models.Shipment) bool {
		if f.Status != "" && string(s.CurrentStatus) != f.Status {
			return false
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(s.TrackingNumber+" "+s.SenderName+" "+s.RecipientName), strings.ToLower(f.Search)) {
			return false
		}
		return true
	}
}

func (m *memShipments) List(_ context.Context, f models.ListFilter) ([]*models.Shipment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(matchFilter(f))
	start := f.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memShipments) Export(_ context.Context, f models.ListFilter) ([]*models.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(matchFilter(f)), nil
}

func (m *memShipments) ListByCampaignFilter(_ context.Context, filter string) ([]*models.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(s *models.Shipment) bool {
		switch filter {
		case models.FilterActive:
			return !s.CurrentStatus.IsTerminal()
		case models.FilterCustomsBond:
			return s.CustomsBondActive
		case models.FilterDelayed:
			return s.DelayActive
		case models.FilterInternational:
			return s.IsInternational
		}
		return true
	}), nil
}

func (m *memShipments) DistinctStatuses(context.Context) ([]models.ShipmentStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[models.ShipmentStatus]bool{}
	var out []models.ShipmentStatus
	for _, s := range m.rows {
		if !seen[s.CurrentStatus] {
			seen[s.CurrentStatus] = true
			out = append(out, s.CurrentStatus)
		}
	}
	return out, nil
}

func (m *memShipments) DistinctLocations(_ context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.rows {
		if s.CurrentLocation != "" && len(out) < limit {
			out = append(out, s.CurrentLocation)
		}
	}
	return out, nil
}

func (m *memShipments) Delete(_ context.Context, tracking string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[tracking]; !ok {
		return models.ErrNotFound
	}
	delete(m.rows, tracking)
	return nil
}

func (m *memShipments) tasksFor(tracking string) []*models.NotificationTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.NotificationTask
	for _, t := range m.tasks {
		if t.TrackingNumber == tracking {
			out = append(out, t)
		}
	}
	return out
}

type historyView struct{ m *memShipments }

func (h historyView) ListByShipment(_ context.Context, id uuid.UUID) ([]*models.StatusHistoryEntry, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	var out []*models.StatusHistoryEntry
	for i := len(h.m.history) - 1; i >= 0; i-- {
		if h.m.history[i].ShipmentID == id {
			out = append(out, h.m.history[i])
		}
	}
	return out, nil
}

func (h historyView) Recent(_ context.Context, limit int) ([]*models.RecentActivity, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	byID := map[uuid.UUID]string{}
	for _, s := range h.m.rows {
		byID[s.ID] = s.TrackingNumber
	}
	var out []*models.RecentActivity
	for i := len(h.m.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, &models.RecentActivity{StatusHistoryEntry: *h.m.history[i], TrackingNumber: byID[h.m.history[i].ShipmentID]})
	}
	return out, nil
}

type ledgerView struct{ m *memShipments }

func (l ledgerView) ListByShipment(_ context.Context, id uuid.UUID) ([]*models.InterventionLogEntry, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	var out []*models.InterventionLogEntry
	for _, e := range l.m.ledger {
		if e.ShipmentID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

// outboxView enqueues into the same task list Mutate writes to
type outboxView struct{ m *memShipments }

func (o outboxView) Enqueue(_ context.Context, t *models.NotificationTask) error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	o.m.append(&models.ChangeSet{Tasks: []*models.NotificationTask{t}})
	return nil
}

func (o outboxView) Stats(context.Context) (*models.OutboxStats, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	var s models.OutboxStats
	for _, t := range o.m.tasks {
		switch t.Status {
		case models.TaskPending:
			s.Pending++
		case models.TaskSent:
			s.Sent++
		case models.TaskFailed:
			s.Failed++
		}
	}
	return &s, nil
}

type memEmailLogs struct {
	entries []*models.EmailLogEntry
}

func (e *memEmailLogs) Create(_ context.Context, entry *models.EmailLogEntry) error {
	entry.ID = int64(len(e.entries) + 1)
	e.entries = append(e.entries, entry)
	return nil
}

func (e *memEmailLogs) ListByShipment(_ context.Context, id uuid.UUID) ([]*models.EmailLogEntry, error) {
	var out []*models.EmailLogEntry
	for i := len(e.entries) - 1; i >= 0; i-- {
		if e.entries[i].ShipmentID != nil && *e.entries[i].ShipmentID == id {
			out = append(out, e.entries[i])
		}
	}
	return out, nil
}

func (e *memEmailLogs) LastNotification(ctx context.Context, id uuid.UUID) (*models.EmailLogEntry, error) {
	all, _ := e.ListByShipment(ctx, id)
	for _, entry := range all {
		if entry.EmailType != models.EmailCustomMessage && entry.EmailType != models.EmailBulk {
			return entry, nil
		}
	}
	return nil, models.ErrNotFound
}

type fakeDashboard struct {
	stats models.DashboardStats
	stale int
}

func (f *fakeDashboard) Stats(context.Context, time.Time, time.Time, time.Time) (*models.DashboardStats, error) {
	s := f.stats
	return &s, nil
}

func (f *fakeDashboard) CountStale(context.Context, time.Time) (int, error) {
	return f.stale, nil
}

type memCampaigns struct {
	rows  []*models.BulkEmailCampaign
	tasks []*models.NotificationTask
}

func (c *memCampaigns) Create(_ context.Context, campaign *models.BulkEmailCampaign) error {
	campaign.ID = uuid.New()
	campaign.CreatedAt = testNow
	c.rows = append(c.rows, campaign)
	return nil
}

func (c *memCampaigns) List(_ context.Context, limit int) ([]*models.BulkEmailCampaign, error) {
	if len(c.rows) < limit {
		return c.rows, nil
	}
	return c.rows[:limit], nil
}

func (c *memCampaigns) ClaimPending(_ context.Context, limit int) ([]*models.BulkEmailCampaign, error) {
	var out []*models.BulkEmailCampaign
	for _, r := range c.rows {
		if r.Status == models.CampaignPending && len(out) < limit {
			r.Status = models.CampaignProcessing
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *memCampaigns) Finish(_ context.Context, id uuid.UUID, status string, recipients int, errMsg string, at time.Time) error {
	for _, r := range c.rows {
		if r.ID == id {
			r.Status, r.RecipientCount, r.ErrorMessage, r.CompletedAt = status, recipients, errMsg, &at
			return nil
		}
	}
	return models.ErrNotFound
}

func (c *memCampaigns) EnqueueTasks(_ context.Context, tasks []*models.NotificationTask) error {
	c.tasks = append(c.tasks, tasks...)
	return nil
}

type memAdmins struct {
	rows map[uuid.UUID]*models.Admin
}

func newMemAdmins() *memAdmins { return &memAdmins{rows: map[uuid.UUID]*models.Admin{}} }

func (a *memAdmins) Create(_ context.Context, admin *models.Admin) error {
	c := *admin
	a.rows[admin.ID] = &c
	return nil
}

func (a *memAdmins) Get(_ context.Context, id uuid.UUID) (*models.Admin, error) {
	row, ok := a.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *row
	return &c, nil
}

func (a *memAdmins) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	for id, row := range a.rows {
		if row.Username == username || row.Email == username {
			return a.Get(ctx, id)
		}
	}
	return nil, models.ErrNotFound
}

func (a *memAdmins) Count(context.Context) (int, error) { return len(a.rows), nil }

func (a *memAdmins) RecordLogin(_ context.Context, id uuid.UUID, ip string, at time.Time) error {
	a.rows[id].LastLogin, a.rows[id].LastLoginIP = &at, ip
	return nil
}

func (a *memAdmins) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	a.rows[id].PasswordHash = hash
	return nil
}

func (a *memAdmins) SetTOTP(_ context.Context, id uuid.UUID, secret string, enabled bool) error {
	a.rows[id].TOTPSecret, a.rows[id].TOTPEnabled = secret, enabled
	return nil
}

// memStore is an in-memory document store
type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemStore() *memStore { return &memStore{docs: map[string][]byte{}} }

func (m *memStore) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = data
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[key]
	if !ok {
		return nil, "", storage.ErrNotFound
	}
	return d, "", nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.AppURL = "https://eukexpress.test"
	cfg.Outbox.MaxAttempts = 5
	cfg.JWT.Secret = "secret"
	cfg.JWT.Issuer = "eukexpress-backend"
	cfg.JWT.ExpirationHours = 24
	cfg.Razorpay.Currency = "NGN"
	return cfg
}

type testEnv struct {
	cfg       *config.Config
	shipments *memShipments
	emails    *memEmailLogs
	docs      *memStore
	dashboard *fakeDashboard
	planner   *NotificationPlanner
	documents *DocumentService
	service   *ShipmentService
	queries   *QueryService
	tracking  *TrackingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	renderer, err := email.NewRenderer()
	require.NoError(t, err)

	env := &testEnv{
		cfg:       testConfig(),
		shipments: newMemShipments(),
		emails:    &memEmailLogs{},
		docs:      newMemStore(),
		dashboard: &fakeDashboard{},
	}
	logger := zap.NewNop()
	env.planner = NewNotificationPlanner(env.cfg, renderer)
	env.documents = NewDocumentService(env.cfg, env.docs)
	env.service = NewShipmentService(env.shipments, env.planner, env.documents, logger)
	env.service.now = func() time.Time { return testNow }
	env.queries = NewQueryService(env.shipments, historyView{env.shipments}, ledgerView{env.shipments},
		env.emails, env.dashboard, env.documents, logger)
	env.queries.now = func() time.Time { return testNow }
	env.tracking = NewTrackingService(env.shipments, historyView{env.shipments}, env.documents)
	return env
}

// seed stores a shipment directly in the given status
func (e *testEnv) seed(tracking string, status models.ShipmentStatus) *models.Shipment {
	s := &models.Shipment{
		ID:                    uuid.New(),
		TrackingNumber:        tracking,
		InvoiceNumber:         InvoiceNumber(tracking, testNow),
		SenderName:            "Ada Obi",
		SenderEmail:           "ada@example.com",
		RecipientName:         "Ben Cole",
		RecipientEmail:        "ben@example.com",
		OriginLocation:        "Lagos",
		DestinationLocation:   "London",
		IsInternational:       true,
		ShippingAmount:        25000,
		PaymentCurrency:       "NGN",
		PaymentStatus:         models.PaymentPending,
		SendingDate:           testNow,
		EstimatedDeliveryDate: testNow.Add(7 * 24 * time.Hour),
		CurrentStatus:         status,
		CurrentLocation:       "Lagos",
		StatusUpdatedAt:       testNow.Add(-time.Hour),
		CreatedAt:             testNow.Add(-48 * time.Hour),
		UpdatedAt:             testNow.Add(-time.Hour),
	}
	e.shipments.rows[tracking] = clone(s)
	return s
}

func validRequest() *models.CreateShipmentRequest {
	return &models.CreateShipmentRequest{
		SenderName:          "Ada Obi",
		SenderEmail:         "ada@example.com",
		SenderPhone:         "+234 801 234 5678",
		SenderAddress:       "12 Marina, Lagos",
		RecipientName:       "Ben Cole",
		RecipientEmail:      "ben@example.com",
		RecipientPhone:      "+44 20 7946 0000",
		RecipientAddress:    "1 King St, London",
		OriginLocation:      "Lagos",
		OriginCode:          "los",
		DestinationLocation: "London",
		DestinationCode:     "lhr",
		IsInternational:     true,
		GoodsDescription:    "Documents",
		WeightKg:            2.5,
		Dimensions:          &models.Dimensions{Length: 30, Width: 20, Height: 5},
		DeclaredValue:       150,
		ShippingAmount:      25000,
		SendingDate:         "2025-03-14",
		EstimatedDelivery:   "2025-03-21",
	}
}
