package generator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/testgen/internal/batchid"
	"github.com/shaiso/testgen/internal/bus"
	"github.com/shaiso/testgen/internal/domain"
	"github.com/shaiso/testgen/internal/pause"
	"github.com/shaiso/testgen/internal/telemetry"
	"github.com/shaiso/testgen/internal/testcase"
)

type fixedIDs struct {
	ids   []domain.BatchID
	calls int
}

func (f *fixedIDs) NewBatchID() domain.BatchID {
	id := f.ids[f.calls%len(f.ids)]
	f.calls++
	return id
}

type fakeGenerator struct {
	cases []domain.TestCase
	err   error
	calls int
}

func (f *fakeGenerator) Generate(context.Context) ([]domain.TestCase, error) {
	f.calls++
	return f.cases, f.err
}

type fakeStore struct {
	saved map[domain.BatchID][]domain.TestCase
	err   error
}

func (f *fakeStore) Save(_ context.Context, id domain.BatchID, cases []domain.TestCase) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.saved == nil {
		f.saved = make(map[domain.BatchID][]domain.TestCase)
	}
	f.saved[id] = cases
	return "mem://" + string(id), nil
}

type fakeWriter struct {
	requests []testcase.WriteRequest
	err      error
}

func (f *fakeWriter) Write(_ context.Context, req testcase.WriteRequest) error {
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

type published struct {
	key     string
	order   string
	payload any
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakePublisher) PublishOrder(_ context.Context, key, order string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{key: key, order: order, payload: payload})
	return nil
}

type fixture struct {
	ids       *fixedIDs
	gen       *fakeGenerator
	store     *fakeStore
	writer    *fakeWriter
	publisher *fakePublisher
	metrics   *telemetry.Metrics
}

func newFixture() *fixture {
	return &fixture{
		ids: &fixedIDs{ids: []domain.BatchID{"b1", "b2"}},
		gen: &fakeGenerator{cases: []domain.TestCase{
			{ID: "a_1", Method: "GET", Path: "/a"},
			{ID: "b_1", Method: "GET", Path: "/b"},
			{ID: "c_1", Method: "POST", Path: "/c"},
		}},
		store:     &fakeStore{},
		writer:    &fakeWriter{},
		publisher: &fakePublisher{},
		metrics:   telemetry.NewMetrics(prometheus.NewRegistry()),
	}
}

func (f *fixture) orchestrator(window Suppressor, now func() time.Time) *Orchestrator {
	return New(Config{
		Window:         window,
		IDs:            f.ids,
		Generator:      f.gen,
		Store:          f.store,
		Writer:         f.writer,
		Publisher:      f.publisher,
		UserConfigPath: "/etc/testgen/user.yaml",
		ClassName:      "PetstoreTest",
		ExperimentName: "petstore",
		Metrics:        f.metrics,
		Logger:         telemetry.Discard(),
		Now:            now,
	})
}

func TestTick_PublishesBatchReady(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(nil, nil)

	event, err := o.Tick(context.Background())
	require.NoError(t, err)
	require.NotNil(t, event)

	want := &domain.BatchReadyEvent{
		BatchID:        "b1",
		UserConfigPath: "/etc/testgen/user.yaml",
		TestClassName:  "PetstoreTest_b1",
	}
	assert.Equal(t, want, event)
	assert.Equal(t, want, o.LastBatch())

	assert.Len(t, f.store.saved["b1"], 3)

	require.Len(t, f.writer.requests, 1)
	assert.Equal(t, "PetstoreTest_b1", f.writer.requests[0].ClassName)
	assert.Equal(t, "petstore-b1", f.writer.requests[0].ExperimentName)
	assert.Len(t, f.writer.requests[0].TestCases, 3)

	require.Len(t, f.publisher.sent, 1)
	assert.Equal(t, DefaultExecutorKey, f.publisher.sent[0].key)
	assert.Equal(t, bus.OrderExecuteTestCases, f.publisher.sent[0].order)
	assert.Equal(t, want, f.publisher.sent[0].payload)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Ticks.WithLabelValues(telemetry.TickGenerated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BatchesPublished))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.TestCasesGenerated))
}

func TestTick_SuppressedHasNoSideEffects(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	now := start
	clock := func() time.Time { return now }

	window := pause.New("http://api.example.com", start)
	require.True(t, window.Apply(domain.PauseRequest{
		Service: "http://api.example.com",
		Until:   start.UnixMilli() + 60_000,
	}))

	f := newFixture()
	o := f.orchestrator(window, clock)

	for _, offset := range []time.Duration{0, 30 * time.Second} {
		now = start.Add(offset)
		event, err := o.Tick(context.Background())
		require.NoError(t, err)
		assert.Nil(t, event)
	}

	assert.Zero(t, f.ids.calls, "no batch id may be consumed while paused")
	assert.Zero(t, f.gen.calls)
	assert.Empty(t, f.store.saved)
	assert.Empty(t, f.writer.requests)
	assert.Empty(t, f.publisher.sent)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Ticks.WithLabelValues(telemetry.TickSuppressed)))

	now = start.Add(61 * time.Second)
	event, err := o.Tick(context.Background())
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, domain.BatchID("b1"), event.BatchID)
	assert.Len(t, f.publisher.sent, 1)
}

func TestTick_PauseForOtherServiceIgnored(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	window := pause.New("http://api.example.com", start)
	assert.False(t, window.Apply(domain.PauseRequest{
		Service: "http://other.example.com",
		Until:   start.UnixMilli() + 60_000,
	}))

	f := newFixture()
	o := f.orchestrator(window, func() time.Time { return start })

	event, err := o.Tick(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, event)
}

func TestTick_StageFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		setup     func(f *fixture)
		wantErr   error
		stage     string
		wantSaved bool
		wantWrite bool
	}{
		{
			name:    "generation",
			setup:   func(f *fixture) { f.gen.err = boom },
			wantErr: ErrGeneration,
			stage:   telemetry.StageGenerate,
		},
		{
			name:    "persistence",
			setup:   func(f *fixture) { f.store.err = boom },
			wantErr: ErrPersistence,
			stage:   telemetry.StagePersist,
		},
		{
			name:      "write keeps artifact",
			setup:     func(f *fixture) { f.writer.err = boom },
			wantErr:   ErrWrite,
			stage:     telemetry.StageWrite,
			wantSaved: true,
		},
		{
			name:      "publish",
			setup:     func(f *fixture) { f.publisher.err = boom },
			wantErr:   ErrPublish,
			stage:     telemetry.StagePublish,
			wantSaved: true,
			wantWrite: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)
			o := f.orchestrator(nil, nil)

			event, err := o.Tick(context.Background())
			assert.Nil(t, event)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, boom)

			assert.Equal(t, tt.wantSaved, len(f.store.saved) == 1)
			assert.Equal(t, tt.wantWrite, len(f.writer.requests) == 1)
			assert.Empty(t, f.publisher.sent)
			assert.Nil(t, o.LastBatch())

			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CyclesFailed.WithLabelValues(tt.stage)))
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Ticks.WithLabelValues(telemetry.TickFailed)))
		})
	}
}

func TestTick_FailedCycleDoesNotReuseBatchID(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker down")
	o := f.orchestrator(nil, nil)

	_, err := o.Tick(context.Background())
	require.Error(t, err)

	f.publisher.err = nil
	event, err := o.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.BatchID("b2"), event.BatchID)
}

func TestTick_EndToEnd(t *testing.T) {
	doc, err := openapi3.NewLoader().LoadFromFile(filepath.Join("..", "testcase", "testdata", "petstore.yaml"))
	require.NoError(t, err)

	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "batches"))
	writer := testcase.NewGoTestWriter(filepath.Join(dir, "tests"), "petstoretest", domain.NewServiceEndpoint("http://proxy.local:9000"))
	publisher := &fakePublisher{}

	o := New(Config{
		IDs:            batchid.New(batchid.StrategyTimestamp, batchid.WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) })),
		Generator:      testcase.NewNominalGenerator(doc, nil, 1),
		Store:          store,
		Writer:         writer,
		Publisher:      publisher,
		UserConfigPath: "user.yaml",
		ClassName:      "PetstoreTest",
		Logger:         telemetry.Discard(),
	})

	event, err := o.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.BatchID("2026-01-02T03-04-05"), event.BatchID)
	assert.Equal(t, "PetstoreTest_2026_01_02T03_04_05", event.TestClassName)

	data, err := os.ReadFile(store.Path(event.BatchID))
	require.NoError(t, err)
	var saved []domain.TestCase
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Len(t, saved, 3)

	src, err := os.ReadFile(writer.Path(event.TestClassName))
	require.NoError(t, err)
	assert.Contains(t, string(src), "func TestPetstoreTest_2026_01_02T03_04_05(t *testing.T)")
	assert.Contains(t, string(src), `baseURL := "http://proxy.local:9000"`)

	second, err := o.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.BatchID("2026-01-02T03-04-05_2"), second.BatchID)
	assert.Len(t, publisher.sent, 2)
}

func TestFileStore_CreatesDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	s := NewFileStore(dir)

	path, err := s.Save(context.Background(), "batch-1", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "batch-1"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}
