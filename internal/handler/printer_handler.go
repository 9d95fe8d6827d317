// internal/handler/printer_handler.go
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/escpos"
	"printer-service/internal/model"
	"printer-service/internal/registry"
	"printer-service/internal/repository"
	"printer-service/internal/service"
	"printer-service/internal/transport"
	"printer-service/internal/utils"
)

// PrinterHandler handles printer-related HTTP requests
type PrinterHandler struct {
	printerService *service.PrinterService
	maxBodyBytes   int64
	logger         *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printerService *service.PrinterService, maxBodyBytes int64, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		printerService: printerService,
		maxBodyBytes:   maxBodyBytes,
		logger:         utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	printer := router.Group("/printer")
	{
		printer.GET("", h.GetPrinter)
		printer.POST("/connect", h.Connect)
		printer.POST("/disconnect", h.Disconnect)
		printer.GET("/status", h.GetStatus)
		printer.GET("/jobs", h.ListJobs)

		printRoutes := printer.Group("/print")
		{
			printRoutes.POST("/raw", h.PrintRaw)
			printRoutes.POST("/text", h.PrintText)
			printRoutes.POST("/receipt", h.PrintReceipt)
			printRoutes.POST("/image", h.PrintImage)
		}
	}
}

// ConnectRequest selects a transport kind and its parameters
type ConnectRequest struct {
	Kind model.PrinterKind `json:"kind" binding:"required" example:"USB"`
	model.ConnectParams
}

// TextPrintRequest prints plain text
type TextPrintRequest struct {
	Text string `json:"text"`
}

// ImagePrintRequest prints a binarized raster. Pixels are base64 in JSON.
type ImagePrintRequest struct {
	Pixels []byte `json:"pixels"`
	Width  int    `json:"width" binding:"min=0,max=65535"`
	Height int    `json:"height" binding:"min=0,max=65535"`
}

// PrinterInfo describes the current session
type PrinterInfo struct {
	Connected bool                  `json:"connected"`
	Kind      model.PrinterKind     `json:"kind,omitempty"`
	State     model.ConnectionState `json:"state"`
	Kinds     []model.PrinterKind   `json:"supported_kinds"`
}

// GetPrinter returns the connection state
// @Summary Printer info
// @Description Get the current printer connection state
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=PrinterInfo} "Printer state"
// @Router /api/v1/printer [get]
func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	state := h.printerService.State()
	utils.SuccessResponse(c, http.StatusOK, "Printer state retrieved", &PrinterInfo{
		Connected: state.IsConnected(),
		Kind:      h.printerService.GetPrinterType(),
		State:     state,
		Kinds:     model.AllPrinterKinds,
	})
}

// Connect opens a printer session
// @Summary Connect printer
// @Description Open a session on a USB, Bluetooth, serial, network or API printer
// @Tags Printer
// @Accept json
// @Produce json
// @Param request body ConnectRequest true "Connect request"
// @Success 200 {object} utils.APIResponse{data=PrinterInfo} "Connected, or selection cancelled"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Already connected"
// @Failure 501 {object} utils.APIResponse "Unsupported transport"
// @Failure 502 {object} utils.APIResponse "Connection failed"
// @Router /api/v1/printer/connect [post]
func (h *PrinterHandler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if !req.Kind.IsValid() {
		utils.ValidationErrorResponse(c, map[string]string{
			"kind": "must be one of USB, BLUETOOTH, SERIAL, NETWORK, API",
		})
		return
	}

	err := h.printerService.Connect(c.Request.Context(), req.Kind, req.ConnectParams)
	if err != nil {
		if transport.IsCancelled(err) {
			utils.SuccessResponse(c, http.StatusOK, "Printer selection cancelled", gin.H{
				"cancelled": true,
				"state":     h.printerService.State(),
			})
			return
		}
		h.respondError(c, "Failed to connect printer", err)
		return
	}

	h.GetPrinter(c)
}

// Disconnect closes the printer session
// @Summary Disconnect printer
// @Description Close the current printer session; succeeds when nothing is connected
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse "Disconnected"
// @Failure 502 {object} utils.APIResponse "Handle release failed; session is cleared anyway"
// @Router /api/v1/printer/disconnect [post]
func (h *PrinterHandler) Disconnect(c *gin.Context) {
	if err := h.printerService.Disconnect(c.Request.Context()); err != nil {
		h.respondError(c, "Failed to disconnect printer", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer disconnected", gin.H{
		"state": h.printerService.State(),
	})
}

// GetStatus queries the transport
// @Summary Printer status
// @Description Best-effort transport status; relay transports query the relay live
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.StatusReport} "Status report"
// @Failure 502 {object} utils.APIResponse "Status query failed"
// @Router /api/v1/printer/status [get]
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	report, err := h.printerService.GetStatus(c.Request.Context())
	if err != nil {
		h.logger.Warn("Printer status query failed", zap.Error(err))
		utils.ErrorResponseWithCode(c, http.StatusBadGateway, "STATUS_FAILED", "Failed to get printer status", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer status retrieved", report)
}

// PrintRaw writes the request body to the printer unchanged
// @Summary Print raw bytes
// @Description Send ESC/POS bytes directly
// @Tags Print
// @Accept octet-stream
// @Produce json
// @Success 200 {object} utils.APIResponse "Printed"
// @Failure 409 {object} utils.APIResponse "Not connected"
// @Failure 413 {object} utils.APIResponse "Body too large"
// @Failure 502 {object} utils.APIResponse "Write failed"
// @Router /api/v1/printer/print/raw [post]
func (h *PrinterHandler) PrintRaw(c *gin.Context) {
	body := c.Request.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, h.maxBodyBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large", err)
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	h.print(c, model.RawRequest{Data: data})
}

// PrintText prints plain text followed by a cut
// @Summary Print text
// @Tags Print
// @Accept json
// @Produce json
// @Param request body TextPrintRequest true "Text"
// @Success 200 {object} utils.APIResponse "Printed"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Not connected"
// @Failure 502 {object} utils.APIResponse "Write failed"
// @Router /api/v1/printer/print/text [post]
func (h *PrinterHandler) PrintText(c *gin.Context) {
	var req TextPrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.print(c, model.TextRequest{Text: req.Text})
}

// PrintReceipt prints an itemized receipt
// @Summary Print receipt
// @Description Render and print a receipt; an unset timestamp prints the current time
// @Tags Print
// @Accept json
// @Produce json
// @Param request body model.Receipt true "Receipt"
// @Success 200 {object} utils.APIResponse "Printed"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Not connected"
// @Failure 502 {object} utils.APIResponse "Write failed"
// @Router /api/v1/printer/print/receipt [post]
func (h *PrinterHandler) PrintReceipt(c *gin.Context) {
	var receipt model.Receipt
	if err := c.ShouldBindJSON(&receipt); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	errs := make(map[string]string)
	for i, item := range receipt.Items {
		if item.Quantity < 0 {
			errs["items["+strconv.Itoa(i)+"].quantity"] = "must not be negative"
		}
	}
	if len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs)
		return
	}

	h.print(c, model.ReceiptRequest{Receipt: receipt})
}

// PrintImage prints a binarized raster image
// @Summary Print image
// @Description Print a 1-bit raster; width is in bytes per row, height in dots
// @Tags Print
// @Accept json
// @Produce json
// @Param request body ImagePrintRequest true "Image"
// @Success 200 {object} utils.APIResponse "Printed"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Not connected"
// @Failure 502 {object} utils.APIResponse "Write failed"
// @Router /api/v1/printer/print/image [post]
func (h *PrinterHandler) PrintImage(c *gin.Context) {
	var req ImagePrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.print(c, model.ImageRequest{Pixels: req.Pixels, Width: req.Width, Height: req.Height})
}

// ListJobs returns the print journal
// @Summary List print jobs
// @Tags Print
// @Produce json
// @Param limit query int false "Maximum jobs returned" default(50)
// @Success 200 {object} utils.APIResponse{data=object{jobs=[]model.PrintJob,stats=repository.JobStats}} "Print jobs"
// @Failure 500 {object} utils.APIResponse "Journal unavailable"
// @Router /api/v1/printer/jobs [get]
func (h *PrinterHandler) ListJobs(c *gin.Context) {
	limit := repository.DefaultListLimit
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	jobs, err := h.printerService.ListJobs(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, "Failed to list print jobs", err)
		return
	}

	stats, err := h.printerService.JobStats(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to get print job stats", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Print jobs retrieved", gin.H{
		"jobs":  jobs,
		"stats": stats,
	})
}

func (h *PrinterHandler) print(c *gin.Context, req model.PrintRequest) {
	if err := h.printerService.Print(c.Request.Context(), req); err != nil {
		h.respondError(c, "Print failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printed", gin.H{
		"request_type": req.RequestType(),
		"kind":         h.printerService.GetPrinterType(),
	})
}

// respondError maps domain errors onto HTTP statuses
func (h *PrinterHandler) respondError(c *gin.Context, message string, err error) {
	var (
		connErr  *transport.ConnectError
		writeErr *transport.WriteError
		discErr  *transport.DisconnectError
	)

	switch {
	case errors.Is(err, registry.ErrAlreadyConnected):
		utils.ErrorResponseWithCode(c, http.StatusConflict, "ALREADY_CONNECTED", message, err)
	case errors.Is(err, registry.ErrNotConnected):
		utils.ErrorResponseWithCode(c, http.StatusConflict, "NOT_CONNECTED", message, err)
	case errors.Is(err, transport.ErrUnsupportedTransport):
		utils.ErrorResponseWithCode(c, http.StatusNotImplemented, "UNSUPPORTED_TRANSPORT", message, err)
	case errors.Is(err, escpos.ErrInvalidRequest):
		utils.ErrorResponse(c, http.StatusBadRequest, message, err)
	case errors.As(err, &connErr):
		utils.ErrorResponseWithCode(c, http.StatusBadGateway, "CONNECT_FAILED", message, err)
	case errors.As(err, &writeErr):
		utils.ErrorResponseWithCode(c, http.StatusBadGateway, "WRITE_FAILED", message, err)
	case errors.As(err, &discErr):
		utils.ErrorResponseWithCode(c, http.StatusBadGateway, "DISCONNECT_FAILED", message, err)
	default:
		h.logger.Error(message, zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, message, err)
	}
}
