package registry

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"credtech/internal/domain"
	"credtech/internal/ml/features"
	"credtech/internal/ml/models/gbt"
	"credtech/internal/ml/training"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(testTracer, dir)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if _, err := store.Get(context.Background(), "aapl"); !errors.Is(err, domain.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
	if err := store.Put(context.Background(), "aapl", []byte("v1")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Put(context.Background(), "AAPL", []byte("v2")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	got, err := store.Get(context.Background(), "AAPL")
	if err != nil || string(got) != "v2" {
		t.Fatalf("expected v2, got %q err=%v", got, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "AAPL_model.json" {
		t.Fatalf("expected a single artifact file, got %v", entries)
	}
}

func TestStorageKeySanitizes(t *testing.T) {
	if got := storageKey(" brk.b "); got != "BRK.B" {
		t.Fatalf("expected BRK.B, got %s", got)
	}
	if got := storageKey("../etc"); strings.Contains(got, "/") {
		t.Fatalf("expected path separators removed, got %s", got)
	}
	if got := filepath.Base(storageKey("a/b")); got != "A_2FB" {
		t.Fatalf("expected A_2FB, got %s", got)
	}
}

func TestStorageKeyKeepsTickersDistinct(t *testing.T) {
	tickers := []string{"BRK/B", "BRK_B", "BRK B", "BRK.B", "BRK-B", "", "_"}
	seen := make(map[string]string, len(tickers))
	for _, ticker := range tickers {
		key := storageKey(ticker)
		if prev, ok := seen[key]; ok {
			t.Fatalf("tickers %q and %q share key %q", prev, ticker, key)
		}
		seen[key] = ticker
	}
	if got := storageKey("brk_b"); got != "BRK_5FB" {
		t.Fatalf("expected underscore escaped, got %s", got)
	}
}

func TestFileStoreSeparatesEscapedTickers(t *testing.T) {
	store, err := NewFileStore(testTracer, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	if err := store.Put(ctx, "BRK/B", []byte("slash")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "BRK_B", []byte("underscore")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "BRK/B")
	if err != nil || string(got) != "slash" {
		t.Fatalf("expected slash artifact, got %q err=%v", got, err)
	}
}

func TestRedisStore(t *testing.T) {
	client := newFakeRedis()
	store := NewRedisStore(testTracer, client)
	if _, err := store.Get(context.Background(), "msft"); !errors.Is(err, domain.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
	if err := store.Put(context.Background(), "msft", []byte("blob")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if client.ttl["model:MSFT"] != 0 {
		t.Fatalf("expected no expiry, got %s", client.ttl["model:MSFT"])
	}
	got, err := store.Get(context.Background(), "MSFT")
	if err != nil || string(got) != "blob" {
		t.Fatalf("expected blob, got %q err=%v", got, err)
	}

	client.getErr = errors.New("connection refused")
	if _, err := store.Get(context.Background(), "MSFT"); err == nil || errors.Is(err, domain.ErrArtifactNotFound) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestPostgresStore(t *testing.T) {
	db := &fakePool{rows: map[string][]byte{}}
	store := NewPostgresStore(db, testTracer)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema returned error: %v", err)
	}
	if _, err := store.Get(context.Background(), "ibm"); !errors.Is(err, domain.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
	if err := store.Put(context.Background(), "ibm", []byte("blob")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	got, err := store.Get(context.Background(), "IBM")
	if err != nil || string(got) != "blob" {
		t.Fatalf("expected blob, got %q err=%v", got, err)
	}
	if !strings.Contains(db.lastExec, "ON CONFLICT (ticker)") {
		t.Fatalf("expected upsert statement, got %s", db.lastExec)
	}
}

func TestArtifactEncodeDecode(t *testing.T) {
	trained := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	blob, err := Encode(&Artifact{Ticker: "AAPL", FeatureSet: "full", TrainedAt: trained, Metrics: map[string]float64{"auc": 0.8}, Model: stumpModel()})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	got, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got.Ticker != "AAPL" || !got.TrainedAt.Equal(trained) || got.Metrics["auc"] != 0.8 {
		t.Fatalf("unexpected decoded artifact: %+v", got)
	}
	if _, err := Decode([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCacheMissTrainsAndStores(t *testing.T) {
	store := newMemStore()
	trainer := &stubTrainer{}
	cache := NewCache(testTracer, store, trainer, "full")

	artifact, fromCache, err := cache.LoadOrTrain(context.Background(), "AAPL", &features.Table{})
	if err != nil {
		t.Fatalf("LoadOrTrain returned error: %v", err)
	}
	if fromCache || trainer.calls != 1 || artifact.Model == nil {
		t.Fatalf("expected fresh training, fromCache=%v calls=%d", fromCache, trainer.calls)
	}
	if _, ok := store.data["AAPL"]; !ok {
		t.Fatal("expected artifact to be stored")
	}

	again, fromCache, err := cache.LoadOrTrain(context.Background(), "AAPL", &features.Table{})
	if err != nil {
		t.Fatalf("LoadOrTrain returned error: %v", err)
	}
	if !fromCache || trainer.calls != 1 {
		t.Fatalf("expected cache hit, fromCache=%v calls=%d", fromCache, trainer.calls)
	}
	if !again.TrainedAt.Equal(artifact.TrainedAt) {
		t.Fatalf("expected same artifact, got %s vs %s", again.TrainedAt, artifact.TrainedAt)
	}
}

func TestCacheStoresBaselineAUC(t *testing.T) {
	store := newMemStore()
	baseline := 0.61
	cache := NewCache(testTracer, store, &stubTrainer{baseline: &baseline}, "full")

	if _, err := cache.Retrain(context.Background(), "AAPL", &features.Table{}); err != nil {
		t.Fatalf("Retrain returned error: %v", err)
	}
	stored, err := Decode(store.data["AAPL"])
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if stored.Metrics["baseline_auc"] != 0.61 || stored.Metrics["auc"] != 0.7 {
		t.Fatalf("expected test and baseline metrics persisted, got %v", stored.Metrics)
	}

	store = newMemStore()
	cache = NewCache(testTracer, store, &stubTrainer{}, "full")
	if _, err := cache.Retrain(context.Background(), "AAPL", &features.Table{}); err != nil {
		t.Fatalf("Retrain returned error: %v", err)
	}
	stored, _ = Decode(store.data["AAPL"])
	if _, ok := stored.Metrics["baseline_auc"]; ok {
		t.Fatalf("expected no baseline metric when the benchmark did not run, got %v", stored.Metrics)
	}
}

func TestCacheRetrainsOnFeatureSetChange(t *testing.T) {
	store := newMemStore()
	blob, _ := Encode(&Artifact{Ticker: "AAPL", FeatureSet: "legacy", Model: stumpModel()})
	store.data["AAPL"] = blob
	trainer := &stubTrainer{}

	_, fromCache, err := NewCache(testTracer, store, trainer, "full").LoadOrTrain(context.Background(), "AAPL", &features.Table{})
	if err != nil {
		t.Fatalf("LoadOrTrain returned error: %v", err)
	}
	if fromCache || trainer.calls != 1 {
		t.Fatalf("expected retrain on feature set change, fromCache=%v calls=%d", fromCache, trainer.calls)
	}
}

func TestCachePropagatesFailures(t *testing.T) {
	store := newMemStore()
	trainer := &stubTrainer{err: domain.ErrInsufficientData}
	cache := NewCache(testTracer, store, trainer, "")
	if _, _, err := cache.LoadOrTrain(context.Background(), "AAPL", &features.Table{}); !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected training error, got %v", err)
	}
	if len(store.data) != 0 {
		t.Fatal("expected nothing stored after failed training")
	}

	store.getErr = errors.New("disk on fire")
	if _, _, err := cache.LoadOrTrain(context.Background(), "AAPL", &features.Table{}); err == nil {
		t.Fatal("expected store read error")
	}

	store.getErr = nil
	store.putErr = errors.New("read-only")
	trainer.err = nil
	if _, err := cache.Retrain(context.Background(), "AAPL", &features.Table{}); err == nil {
		t.Fatal("expected store write error")
	}
}

func stumpModel() *gbt.Model {
	return &gbt.Model{
		FeatureNames: []string{"a"},
		Trees: []gbt.Tree{{Nodes: []gbt.Node{
			{Feature: 0, Threshold: 0.5, Left: 1, Right: 2, Cover: 2},
			{Feature: -1, Value: -1, Cover: 1},
			{Feature: -1, Value: 1, Cover: 1},
		}}},
	}
}

type stubTrainer struct {
	calls    int
	err      error
	baseline *float64
}

func (s *stubTrainer) Train(_ context.Context, ticker string, _ features.Dataset) (*training.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &training.Result{
		Ticker:      ticker,
		Model:       stumpModel(),
		TestMetrics: map[string]float64{"auc": 0.7},
		BaselineAUC: s.baseline,
		TrainedAt:   time.Date(2026, 1, 1, 0, 0, s.calls, 0, time.UTC),
	}, nil
}

type memStore struct {
	data   map[string][]byte
	getErr error
	putErr error
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, ticker string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	blob, ok := m.data[ticker]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	return blob, nil
}

func (m *memStore) Put(_ context.Context, ticker string, blob []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[ticker] = blob
	return nil
}

type fakeRedis struct {
	data   map[string][]byte
	ttl    map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		b, _ := json.Marshal(v)
		f.data[key] = b
	}
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

type fakePool struct {
	rows     map[string][]byte
	lastExec string
}

func (f *fakePool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastExec = sql
	if len(args) == 2 {
		f.rows[args[0].(string)] = args[1].([]byte)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakePool) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	blob, ok := f.rows[args[0].(string)]
	return fakeRow{blob: blob, found: ok}
}

type fakeRow struct {
	blob  []byte
	found bool
}

func (r fakeRow) Scan(dest ...any) error {
	if !r.found {
		return pgx.ErrNoRows
	}
	*(dest[0].(*[]byte)) = r.blob
	return nil
}
