package app_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/app"
	companyapp "github.com/lllypuk/corebus/internal/application/company"
	"github.com/lllypuk/corebus/internal/bus"
	"github.com/lllypuk/corebus/internal/config"
	"github.com/lllypuk/corebus/internal/domain/company"
)

func newContainer(t *testing.T, mutate func(*config.Config)) *app.Container {
	t.Helper()

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	c, err := app.NewContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, c.Close(context.Background()))
	})
	return c
}

type createdRecorder struct {
	mu    sync.Mutex
	codes []string
}

func (r *createdRecorder) handle(_ context.Context, evt *company.Created) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, evt.Code)
	return nil
}

func (r *createdRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.codes...)
}

func TestContainer_DirectDelivery(t *testing.T) {
	c := newContainer(t, nil)

	assert.Nil(t, c.Outbox)
	assert.Nil(t, c.OutboxWorker)
	assert.Nil(t, c.Forwarder)
	assert.False(t, c.Tracing.Enabled())

	rec := &createdRecorder{}
	require.NoError(t, bus.Subscribe(c.Events, company.EventTypeCreated, rec.handle))

	res := bus.DispatchCommand[*company.Company](context.Background(), c.Commands,
		companyapp.CreateCompanyCommand{Name: "Acme", Code: "acme"})
	require.True(t, res.IsSuccess(), "%v", res.Err())

	assert.Equal(t, []string{"ACME"}, rec.snapshot())

	found := bus.DispatchQuery[*company.Company](context.Background(), c.Queries,
		companyapp.GetCompanyQuery{CompanyID: res.Value().ID()})
	require.True(t, found.IsSuccess())
	assert.Equal(t, "Acme", found.Value().Name().String())
}

func TestContainer_OutboxDelivery(t *testing.T) {
	c := newContainer(t, func(cfg *config.Config) {
		cfg.EventBus.Delivery = config.DeliveryOutbox
	})

	require.NotNil(t, c.Outbox)
	require.NotNil(t, c.OutboxWorker)

	rec := &createdRecorder{}
	require.NoError(t, bus.Subscribe(c.Events, company.EventTypeCreated, rec.handle))

	res := bus.DispatchCommand[*company.Company](context.Background(), c.Commands,
		companyapp.CreateCompanyCommand{Name: "Acme", Code: "acme"})
	require.True(t, res.IsSuccess(), "%v", res.Err())

	// Nothing reaches subscribers until the worker relays the outbox.
	assert.Empty(t, rec.snapshot())

	require.NoError(t, c.OutboxWorker.ProcessOnce(context.Background()))
	assert.Equal(t, []string{"ACME"}, rec.snapshot())

	stats, err := c.OutboxWorker.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.PendingCount)
}

func TestContainer_SQLiteStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corebus.db")
	c := newContainer(t, func(cfg *config.Config) {
		cfg.Storage.Driver = config.DriverSQLite
		cfg.SQLite.Path = path
	})

	res := bus.DispatchCommand[*company.Company](context.Background(), c.Commands,
		companyapp.CreateCompanyCommand{Name: "Acme", Code: "acme"})
	require.True(t, res.IsSuccess(), "%v", res.Err())

	exists, err := c.Repository.ExistsWithCode(context.Background(), res.Value().Code())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestContainer_MetricsRegistered(t *testing.T) {
	c := newContainer(t, nil)

	res := bus.DispatchQuery[companyapp.ListResult](context.Background(), c.Queries,
		companyapp.ListCompaniesQuery{})
	require.True(t, res.IsSuccess())

	families, err := c.Metrics.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "corebus_dispatch_total")
}

func TestContainer_InvalidSQLitePath(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Driver = config.DriverSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "missing", "dir", "corebus.db")

	_, err := app.NewContainer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestContainer_HealthCheckers(t *testing.T) {
	direct := newContainer(t, nil)
	assert.Empty(t, direct.HealthCheckers())

	withOutbox := newContainer(t, func(cfg *config.Config) {
		cfg.EventBus.Delivery = config.DeliveryOutbox
	})
	checkers := withOutbox.HealthCheckers()
	require.Len(t, checkers, 1)
	assert.Equal(t, "outbox_relay", checkers[0].Name())
	assert.True(t, checkers[0].Check(context.Background()).Healthy)
}
