package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/escpos"
	"printer-service/internal/model"
	"printer-service/internal/registry"
	"printer-service/internal/repository"
	"printer-service/internal/transport"
)

type captureTransport struct {
	mu     sync.Mutex
	writes [][]byte
}

func (c *captureTransport) Kind() model.PrinterKind            { return model.PrinterKindUSB }
func (c *captureTransport) Connect(ctx context.Context) error    { return nil }
func (c *captureTransport) Disconnect(ctx context.Context) error { return nil }

func (c *captureTransport) Write(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, data)
	return nil
}

func (c *captureTransport) Status(ctx context.Context) (*model.StatusReport, error) {
	return &model.StatusReport{Kind: model.PrinterKindUSB, Phase: model.PhaseConnected, Connected: true}, nil
}

type failingJobRepository struct{}

func (failingJobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	return errors.New("journal unavailable")
}

func (failingJobRepository) List(ctx context.Context, limit int) ([]*model.PrintJob, error) {
	return nil, errors.New("journal unavailable")
}

func (failingJobRepository) Stats(ctx context.Context) (*repository.JobStats, error) {
	return nil, errors.New("journal unavailable")
}

func newTestService(t *testing.T, defaults transport.Defaults, repo repository.JobRepository) (*PrinterService, *transport.Factory) {
	logger := zaptest.NewLogger(t)
	factory := transport.NewFactory(defaults, logger)
	transport.RegisterDefaultTransports(factory, logger)
	svc := NewPrinterService(registry.New(factory, logger), escpos.NewEncoder(escpos.DefaultConfig()), repo, logger)
	return svc, factory
}

func withCapture(factory *transport.Factory) *captureTransport {
	capture := &captureTransport{}
	factory.Register(model.PrinterKindUSB, func(model.ConnectParams, transport.Defaults, *zap.Logger) (transport.Transport, error) {
		return capture, nil
	})
	return capture
}

func TestPrintNotConnected(t *testing.T) {
	repo := repository.NewMemoryJobRepository(10)
	svc, _ := newTestService(t, transport.DefaultDefaults(), repo)

	err := svc.Print(context.Background(), model.TextRequest{Text: "hi"})

	var printErr *PrintError
	require.ErrorAs(t, err, &printErr)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, model.RequestTypeText, printErr.RequestType)

	jobs, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestPrintTextWritesEncodedBytes(t *testing.T) {
	repo := repository.NewMemoryJobRepository(10)
	svc, factory := newTestService(t, transport.DefaultDefaults(), repo)
	capture := withCapture(factory)

	require.NoError(t, svc.Connect(context.Background(), model.PrinterKindUSB, model.ConnectParams{}))
	assert.True(t, svc.IsConnected())
	assert.Equal(t, model.PrinterKindUSB, svc.GetPrinterType())

	require.NoError(t, svc.Print(context.Background(), model.TextRequest{Text: "Hello"}))

	want := escpos.NewEncoder(escpos.DefaultConfig()).EncodeText("Hello")
	require.Len(t, capture.writes, 1)
	assert.Equal(t, want, capture.writes[0])

	jobs, err := svc.ListJobs(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.JobStatusSuccess, jobs[0].Status)
	assert.Equal(t, len(want), jobs[0].Bytes)
	assert.Equal(t, model.RequestTypeText, jobs[0].RequestType)

	stats, err := svc.JobStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Succeeded)
}

func TestPrintNilRequest(t *testing.T) {
	svc, _ := newTestService(t, transport.DefaultDefaults(), repository.NewMemoryJobRepository(1))

	err := svc.Print(context.Background(), nil)
	assert.ErrorIs(t, err, escpos.ErrInvalidRequest)
}

func TestPrintJournalFailureIsNotSurfaced(t *testing.T) {
	svc, factory := newTestService(t, transport.DefaultDefaults(), failingJobRepository{})
	withCapture(factory)

	require.NoError(t, svc.Connect(context.Background(), model.PrinterKindUSB, model.ConnectParams{}))
	assert.NoError(t, svc.Print(context.Background(), model.RawRequest{Data: []byte{0x1B, 0x40}}))

	_, err := svc.ListJobs(context.Background(), 1)
	assert.Error(t, err)
}

func TestRelayOfflineDisconnects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/print" {
			w.Write([]byte(`{"success":false,"message":"offline"}`))
			return
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	defaults := transport.DefaultDefaults()
	defaults.Relay.Endpoint = server.URL
	repo := repository.NewMemoryJobRepository(10)
	svc, _ := newTestService(t, defaults, repo)

	params := model.ConnectParams{Network: &model.NetworkParams{Host: "192.168.1.50"}}
	require.NoError(t, svc.Connect(context.Background(), model.PrinterKindNetwork, params))
	assert.True(t, svc.IsConnected())

	err := svc.Print(context.Background(), model.TextRequest{Text: "Hello"})

	var printErr *PrintError
	require.ErrorAs(t, err, &printErr)
	assert.Equal(t, model.PrinterKindNetwork, printErr.Kind)

	var writeErr *transport.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "offline", writeErr.Reason)

	assert.False(t, svc.IsConnected())
	assert.Equal(t, model.PhaseDisconnected, svc.State().Phase)
	assert.Equal(t, model.PrinterKind(""), svc.GetPrinterType())

	jobs, err := repo.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.JobStatusFailed, jobs[0].Status)

	assert.ErrorIs(t, svc.Print(context.Background(), model.TextRequest{Text: "again"}), ErrNotConnected)
}

func TestGetStatusWhenIdle(t *testing.T) {
	svc, _ := newTestService(t, transport.DefaultDefaults(), repository.NewMemoryJobRepository(1))

	report, err := svc.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PhaseDisconnected, report.Phase)
	assert.False(t, report.Connected)
}

func TestConnectTwiceKeepsSession(t *testing.T) {
	svc, factory := newTestService(t, transport.DefaultDefaults(), repository.NewMemoryJobRepository(1))
	withCapture(factory)

	require.NoError(t, svc.Connect(context.Background(), model.PrinterKindUSB, model.ConnectParams{}))
	err := svc.Connect(context.Background(), model.PrinterKindSerial, model.ConnectParams{Serial: &model.SerialParams{Port: "/dev/null"}})

	assert.ErrorIs(t, err, registry.ErrAlreadyConnected)
	assert.Equal(t, model.PrinterKindUSB, svc.GetPrinterType())

	require.NoError(t, svc.Disconnect(context.Background()))
	require.NoError(t, svc.Disconnect(context.Background()))
	assert.False(t, svc.IsConnected())
}

func TestRelayPrintSurvivesCallerHangup(t *testing.T) {
	received := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/print" {
			once.Do(func() { close(received) })
			<-release
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	defaults := transport.DefaultDefaults()
	defaults.Relay.Endpoint = server.URL
	repo := repository.NewMemoryJobRepository(10)
	svc, _ := newTestService(t, defaults, repo)

	params := model.ConnectParams{Network: &model.NetworkParams{Host: "192.168.1.50"}}
	require.NoError(t, svc.Connect(context.Background(), model.PrinterKindNetwork, params))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Print(ctx, model.TextRequest{Text: "Hello"}) }()

	<-received
	cancel()
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("print did not return")
	}
	assert.True(t, svc.IsConnected())
	assert.Equal(t, model.PhaseConnected, svc.State().Phase)

	jobs, err := repo.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.JobStatusSuccess, jobs[0].Status)
}

func TestPrintReceiptStampsMissingTimestamp(t *testing.T) {
	svc, factory := newTestService(t, transport.DefaultDefaults(), repository.NewMemoryJobRepository(10))
	capture := withCapture(factory)
	printedAt := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return printedAt }
	require.NoError(t, svc.Connect(context.Background(), model.PrinterKindUSB, model.ConnectParams{}))

	receipt := model.Receipt{
		Items:    []model.LineItem{{Name: "Cola", Quantity: 2, UnitPrice: decimal.RequireFromString("1.50")}},
		Subtotal: decimal.RequireFromString("3.00"),
		Total:    decimal.RequireFromString("3.00"),
	}
	require.NoError(t, svc.Print(context.Background(), model.ReceiptRequest{Receipt: receipt}))
	assert.True(t, receipt.Timestamp.IsZero(), "caller's receipt is not modified")

	stamped := receipt
	stamped.Timestamp = printedAt
	expected := escpos.NewEncoder(escpos.DefaultConfig()).EncodeReceipt(&stamped)

	require.Len(t, capture.writes, 1)
	assert.Equal(t, expected, capture.writes[0])

	explicit := receipt
	explicit.Timestamp = printedAt.Add(-time.Hour)
	require.NoError(t, svc.Print(context.Background(), &model.ReceiptRequest{Receipt: explicit}))
	require.Len(t, capture.writes, 2)
	assert.Equal(t, escpos.NewEncoder(escpos.DefaultConfig()).EncodeReceipt(&explicit), capture.writes[1])
}
