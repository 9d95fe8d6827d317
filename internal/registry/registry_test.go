package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/model"
	"printer-service/internal/transport"
)

type fakeTransport struct {
	kind        model.PrinterKind
	connectErr  error
	writeErr    error
	statusErr   error
	writeDelay  time.Duration
	inFlight    int32
	overlapped  int32
	writes      [][]byte
	mu          sync.Mutex
	connects    int
	disconnects int
}

func (f *fakeTransport) Kind() model.PrinterKind { return f.kind }

func (f *fakeTransport) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return f.connectErr
}

func (f *fakeTransport) Write(ctx context.Context, data []byte) error {
	if atomic.AddInt32(&f.inFlight, 1) > 1 {
		atomic.StoreInt32(&f.overlapped, 1)
	}
	defer atomic.AddInt32(&f.inFlight, -1)

	if f.writeDelay > 0 {
		time.Sleep(f.writeDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, data)
	return nil
}

func (f *fakeTransport) Status(ctx context.Context) (*model.StatusReport, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &model.StatusReport{Phase: model.PhaseConnected, Connected: true}, nil
}

func (f *fakeTransport) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

type fakeFactory struct {
	transports map[model.PrinterKind]*fakeTransport
	createErr  error
}

func (f *fakeFactory) Create(kind model.PrinterKind, params model.ConnectParams) (transport.Transport, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	t, ok := f.transports[kind]
	if !ok {
		return nil, transport.ErrUnsupportedTransport
	}
	return t, nil
}

type recordingHandler struct {
	mu     sync.Mutex
	phases []model.ConnectionPhase
}

func (h *recordingHandler) OnStateChanged(previous, current model.ConnectionState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phases = append(h.phases, current.Phase)
}

func newTestRegistry(t *testing.T, transports ...*fakeTransport) (*Registry, *fakeFactory, *recordingHandler) {
	factory := &fakeFactory{transports: make(map[model.PrinterKind]*fakeTransport)}
	for _, tr := range transports {
		factory.transports[tr.kind] = tr
	}
	handler := &recordingHandler{}
	r := New(factory, zaptest.NewLogger(t))
	r.SetEventHandler(handler)
	return r, factory, handler
}

func TestConnectAndWrite(t *testing.T) {
	usb := &fakeTransport{kind: model.PrinterKindUSB}
	r, _, handler := newTestRegistry(t, usb)

	assert.False(t, r.IsConnected())
	assert.Equal(t, model.PrinterKind(""), r.CurrentKind())

	require.NoError(t, r.Connect(context.Background(), model.PrinterKindUSB, model.ConnectParams{}))
	assert.True(t, r.IsConnected())
	assert.Equal(t, model.PrinterKindUSB, r.CurrentKind())
	assert.Equal(t, []model.ConnectionPhase{model.PhaseConnecting, model.PhaseConnected}, handler.phases)

	require.NoError(t, r.Write(context.Background(), []byte{0x1B, 0x40}))
	assert.Len(t, usb.writes, 1)
}

func TestConnectWhileConnected(t *testing.T) {
	usb := &fakeTransport{kind: model.PrinterKindUSB}
	serial := &fakeTransport{kind: model.PrinterKindSerial}
	r, _, _ := newTestRegistry(t, usb, serial)
	require.NoError(t, r.Connect(context.Background(), model.PrinterKindUSB, model.ConnectParams{}))
	before := r.State()

	err := r.Connect(context.Background(), model.PrinterKindSerial, model.ConnectParams{})

	assert.ErrorIs(t, err, ErrAlreadyConnected)
	assert.Equal(t, before, r.State())
	assert.Equal(t, model.PrinterKindUSB, r.CurrentKind())
	assert.Equal(t, 0, serial.connects)
	assert.Equal(t, 0, usb.disconnects)

	require.NoError(t, r.Write(context.Background(), []byte{0x01}))
	assert.Len(t, usb.writes, 1)
}

func TestDisconnectTwice(t *testing.T) {
	usb := &fakeTransport{kind: model.PrinterKindUSB}
	r, _, _ := newTestRegistry(t, usb)
	require.NoError(t, r.Connect(context.Background(), model.PrinterKindUSB, model.ConnectParams{}))

	require.NoError(t, r.Disconnect(context.Background()))
	assert.Equal(t, model.PhaseDisconnected, r.State().Phase)

	require.NoError(t, r.Disconnect(context.Background()))
	assert.Equal(t, model.PhaseDisconnected, r.State().Phase)
	assert.Equal(t, 1, usb.disconnects)

	fresh, _, _ := newTestRegistry(t)
	require.NoError(t, fresh.Disconnect(context.Background()))
	require.NoError(t, fresh.Disconnect(context.Background()))
	assert.Equal(t, model.PhaseDisconnected, fresh.State().Phase)
}

func TestConnectFailure(t *testing.T) {
	usb := &fakeTransport{
		kind:       model.PrinterKindUSB,
		connectErr: &transport.ConnectError{Kind: model.PrinterKindUSB, Reason: "no suitable OUT endpoint"},
	}
	r, _, handler := newTestRegistry(t, usb)

	err := r.Connect(context.Background(), model.PrinterKindUSB, model.ConnectParams{})

	var connErr *transport.ConnectError
	require.ErrorAs(t, err, &connErr)
	state := r.State()
	assert.Equal(t, model.PhaseDisconnected, state.Phase)
	assert.Contains(t, state.Reason, "no suitable OUT endpoint")
	assert.False(t, r.IsConnected())
	assert.Equal(t, 1, usb.disconnects, "handles acquired during connect are released")
	assert.Equal(t, []model.ConnectionPhase{
		model.PhaseConnecting, model.PhaseError, model.PhaseDisconnected,
	}, handler.phases)
}

func TestConnectCancelledSkipsErrorPhase(t *testing.T) {
	bt := &fakeTransport{
		kind:       model.PrinterKindBluetooth,
		connectErr: &transport.ConnectError{Kind: model.PrinterKindBluetooth, Reason: "cancelled", Err: transport.ErrCancelled},
	}
	r, _, handler := newTestRegistry(t, bt)

	err := r.Connect(context.Background(), model.PrinterKindBluetooth, model.ConnectParams{})

	assert.True(t, transport.IsCancelled(err))
	assert.Equal(t, []model.ConnectionPhase{model.PhaseConnecting, model.PhaseDisconnected}, handler.phases)
}

func TestConnectUnknownKind(t *testing.T) {
	r, _, handler := newTestRegistry(t)

	err := r.Connect(context.Background(), model.PrinterKind("FAX"), model.ConnectParams{})

	assert.ErrorIs(t, err, transport.ErrUnsupportedTransport)
	assert.Empty(t, handler.phases)
}

func TestConnectFactoryError(t *testing.T) {
	r, factory, _ := newTestRegistry(t)
	factory.createErr = &transport.ConnectError{Kind: model.PrinterKindSerial, Reason: "serial port is required"}

	err := r.Connect(context.Background(), model.PrinterKindSerial, model.ConnectParams{})

	var connErr *transport.ConnectError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, model.PhaseDisconnected, r.State().Phase)
}

func TestWriteFailureForcesDisconnect(t *testing.T) {
	network := &fakeTransport{kind: model.PrinterKindNetwork}
	r, _, handler := newTestRegistry(t, network)
	require.NoError(t, r.Connect(context.Background(), model.PrinterKindNetwork, model.ConnectParams{}))

	network.writeErr = &transport.WriteError{Kind: model.PrinterKindNetwork, Reason: "offline"}
	err := r.Write(context.Background(), []byte{0x01})

	var writeErr *transport.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "offline", writeErr.Reason)
	assert.False(t, r.IsConnected())
	assert.Equal(t, model.PhaseDisconnected, r.State().Phase)
	assert.Equal(t, 1, network.disconnects)
	assert.Contains(t, handler.phases, model.PhaseError)

	assert.ErrorIs(t, r.Write(context.Background(), []byte{0x01}), ErrNotConnected)
}

func TestWriteNotConnected(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	assert.ErrorIs(t, r.Write(context.Background(), []byte{0x01}), ErrNotConnected)
}

func TestStatusNeverMutatesState(t *testing.T) {
	api := &fakeTransport{kind: model.PrinterKindAPI}
	r, _, _ := newTestRegistry(t, api)

	report, err := r.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PhaseDisconnected, report.Phase)
	assert.False(t, report.Connected)

	require.NoError(t, r.Connect(context.Background(), model.PrinterKindAPI, model.ConnectParams{}))
	before := r.State()

	api.statusErr = errors.New("relay timeout")
	_, err = r.Status(context.Background())
	assert.Error(t, err)
	assert.Equal(t, before, r.State())

	api.statusErr = nil
	report, err = r.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PrinterKindAPI, report.Kind)
}

func TestConcurrentWritesDoNotInterleave(t *testing.T) {
	usb := &fakeTransport{kind: model.PrinterKindUSB, writeDelay: 2 * time.Millisecond}
	r, _, _ := newTestRegistry(t, usb)
	require.NoError(t, r.Connect(context.Background(), model.PrinterKindUSB, model.ConnectParams{}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, r.Write(context.Background(), []byte{byte(i)}))
		}(i)
	}

	// pure queries stay available while writes are queued
	assert.True(t, r.IsConnected())

	wg.Wait()
	assert.Len(t, usb.writes, 10)
	assert.Equal(t, int32(0), atomic.LoadInt32(&usb.overlapped))
}

func TestNewWithoutHandler(t *testing.T) {
	usb := &fakeTransport{kind: model.PrinterKindUSB}
	r := New(&fakeFactory{transports: map[model.PrinterKind]*fakeTransport{model.PrinterKindUSB: usb}}, zap.NewNop())

	require.NoError(t, r.Connect(context.Background(), model.PrinterKindUSB, model.ConnectParams{}))
	require.NoError(t, r.Disconnect(context.Background()))
}

type blockingTransport struct {
	fakeTransport
	started chan struct{}
	release chan struct{}
}

func (b *blockingTransport) Write(ctx context.Context, data []byte) error {
	close(b.started)
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return &transport.WriteError{Kind: b.kind, Reason: "interrupted", Err: ctx.Err()}
	}
}

func newBlockingRegistry(t *testing.T) (*Registry, *blockingTransport) {
	bt := &blockingTransport{
		fakeTransport: fakeTransport{kind: model.PrinterKindNetwork},
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	r := New(&stubFactory{t: bt}, zaptest.NewLogger(t))
	require.NoError(t, r.Connect(context.Background(), model.PrinterKindNetwork, model.ConnectParams{}))
	return r, bt
}

type stubFactory struct {
	t transport.Transport
}

func (f *stubFactory) Create(kind model.PrinterKind, params model.ConnectParams) (transport.Transport, error) {
	return f.t, nil
}

func TestWriteSurvivesCallerCancellation(t *testing.T) {
	r, bt := newBlockingRegistry(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Write(ctx, []byte{0x1B, 0x40}) }()

	<-bt.started
	cancel()
	close(bt.release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("write did not return")
	}
	assert.True(t, r.IsConnected())
	assert.Equal(t, model.PhaseConnected, r.State().Phase)
}

func TestWriteDeadlineStillApplies(t *testing.T) {
	r, _ := newBlockingRegistry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Write(ctx, []byte{0x1B, 0x40})

	var writeErr *transport.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, model.PhaseDisconnected, r.State().Phase)
}
