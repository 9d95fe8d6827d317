// internal/service/printer_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/escpos"
	"printer-service/internal/model"
	"printer-service/internal/registry"
	"printer-service/internal/repository"
	"printer-service/internal/utils"
)

// PrinterService is the facade consumers print through
type PrinterService struct {
	registry *registry.Registry
	encoder  *escpos.Encoder
	jobRepo  repository.JobRepository
	logger   *utils.ServiceLogger
	base     *zap.Logger
	now      func() time.Time
}

// NewPrinterService creates a new printer service instance
func NewPrinterService(
	reg *registry.Registry,
	encoder *escpos.Encoder,
	jobRepo repository.JobRepository,
	logger *zap.Logger,
) *PrinterService {
	return &PrinterService{
		registry: reg,
		encoder:  encoder,
		jobRepo:  jobRepo,
		logger:   utils.NewServiceLogger(logger, "printer-service"),
		base:     logger,
		now:      time.Now,
	}
}

// Connect opens a transport of the given kind
func (ps *PrinterService) Connect(ctx context.Context, kind model.PrinterKind, params model.ConnectParams) error {
	return ps.registry.Connect(ctx, kind, params)
}

// Disconnect closes the active transport, if any
func (ps *PrinterService) Disconnect(ctx context.Context) error {
	return ps.registry.Disconnect(ctx)
}

// IsConnected reports whether a printer is connected
func (ps *PrinterService) IsConnected() bool {
	return ps.registry.IsConnected()
}

// GetPrinterType returns the connected kind, or "" when disconnected
func (ps *PrinterService) GetPrinterType() model.PrinterKind {
	return ps.registry.CurrentKind()
}

// State returns the current connection state
func (ps *PrinterService) State() model.ConnectionState {
	return ps.registry.State()
}

// GetStatus returns the transport status report
func (ps *PrinterService) GetStatus(ctx context.Context) (*model.StatusReport, error) {
	return ps.registry.Status(ctx)
}

// Print encodes the request and writes it to the connected printer.
// A write failure leaves the session DISCONNECTED.
func (ps *PrinterService) Print(ctx context.Context, req model.PrintRequest) error {
	if req == nil {
		return &PrintError{Err: escpos.ErrInvalidRequest}
	}
	requestType := req.RequestType()

	kind := ps.registry.CurrentKind()
	if kind == "" {
		return &PrintError{RequestType: requestType, Err: ErrNotConnected}
	}

	data, err := ps.encoder.Encode(ps.stampReceipt(req))
	if err != nil {
		return &PrintError{Kind: kind, RequestType: requestType, Err: err}
	}

	job := model.NewPrintJob(kind, requestType, len(data))
	start := time.Now()
	err = ps.registry.Write(ctx, data)
	duration := time.Since(start)

	utils.NewPrinterLogger(ps.base, string(kind)).LogPrint(string(requestType), len(data), duration, err)

	job.Complete(duration, err)
	ps.journal(ctx, job)

	if err != nil {
		return &PrintError{Kind: kind, RequestType: requestType, Err: err}
	}
	return nil
}

// ListJobs returns the most recent print jobs
func (ps *PrinterService) ListJobs(ctx context.Context, limit int) ([]*model.PrintJob, error) {
	jobs, err := ps.jobRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list print jobs: %w", err)
	}
	return jobs, nil
}

// JobStats returns aggregate journal counters
func (ps *PrinterService) JobStats(ctx context.Context) (*repository.JobStats, error) {
	stats, err := ps.jobRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get print job stats: %w", err)
	}
	return stats, nil
}

// stampReceipt returns a copy of a receipt request carrying the print time
// when the caller left Timestamp unset. Other requests pass through.
func (ps *PrinterService) stampReceipt(req model.PrintRequest) model.PrintRequest {
	switch r := req.(type) {
	case model.ReceiptRequest:
		if r.Receipt.Timestamp.IsZero() {
			r.Receipt.Timestamp = ps.now()
		}
		return r
	case *model.ReceiptRequest:
		if r != nil && r.Receipt.Timestamp.IsZero() {
			stamped := *r
			stamped.Receipt.Timestamp = ps.now()
			return stamped
		}
	}
	return req
}

// journal records the job. Failures are logged only.
func (ps *PrinterService) journal(ctx context.Context, job *model.PrintJob) {
	if ps.jobRepo == nil {
		return
	}
	if err := ps.jobRepo.Create(context.WithoutCancel(ctx), job); err != nil {
		ps.logger.Warn("Failed to journal print job",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}
