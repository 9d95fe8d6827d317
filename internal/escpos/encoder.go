// internal/escpos/encoder.go
package escpos

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"printer-service/internal/model"
)

// ErrInvalidRequest is returned by Encode for nil or unknown requests
var ErrInvalidRequest = errors.New("invalid print request")

// Config controls receipt layout
type Config struct {
	Width      int            `json:"width"`       // characters per line
	Currency   string         `json:"currency"`    // prefix for money values
	TimeLayout string         `json:"time_layout"` // Go layout for the receipt timestamp
	Location   *time.Location `json:"-"`           // nil keeps the timestamp's own zone
}

// DefaultConfig returns the 32-column layout used on 58/80mm paper
func DefaultConfig() Config {
	return Config{
		Width:      32,
		Currency:   "$",
		TimeLayout: "2006-01-02 15:04",
	}
}

// Encoder turns print requests into ESC/POS byte sequences.
// It holds no state besides its layout and is safe for concurrent use.
type Encoder struct {
	config Config
}

// NewEncoder creates an encoder, filling unset layout fields with defaults
func NewEncoder(cfg Config) *Encoder {
	def := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.TimeLayout == "" {
		cfg.TimeLayout = def.TimeLayout
	}
	return &Encoder{config: cfg}
}

// Encode dispatches on the request variant
func (e *Encoder) Encode(req model.PrintRequest) ([]byte, error) {
	switch r := req.(type) {
	case model.RawRequest:
		return e.EncodeRaw(r.Data), nil
	case model.TextRequest:
		return e.EncodeText(r.Text), nil
	case model.ReceiptRequest:
		return e.EncodeReceipt(&r.Receipt), nil
	case model.ImageRequest:
		return e.EncodeImage(r.Pixels, r.Width, r.Height), nil
	case *model.RawRequest:
		if r != nil {
			return e.EncodeRaw(r.Data), nil
		}
	case *model.TextRequest:
		if r != nil {
			return e.EncodeText(r.Text), nil
		}
	case *model.ReceiptRequest:
		if r != nil {
			return e.EncodeReceipt(&r.Receipt), nil
		}
	case *model.ImageRequest:
		if r != nil {
			return e.EncodeImage(r.Pixels, r.Width, r.Height), nil
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidRequest, req)
}

// EncodeRaw passes caller-supplied protocol bytes through unchanged
func (e *Encoder) EncodeRaw(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// EncodeText wraps text with the initialize preamble and the feed+cut postamble.
// Control bytes inside text are not sanitized.
func (e *Encoder) EncodeText(text string) []byte {
	var buf bytes.Buffer
	buf.Grow(len(text) + 16)

	buf.Write(Commands.Initialize)
	buf.WriteString(text)
	writeTrailer(&buf)

	return buf.Bytes()
}

// EncodeReceipt renders an itemized receipt in fixed-width columns
func (e *Encoder) EncodeReceipt(receipt *model.Receipt) []byte {
	var buf bytes.Buffer
	width := e.config.Width

	buf.Write(Commands.Initialize)

	if receipt.Header != "" {
		buf.Write(Commands.AlignCenter)
		writeLine(&buf, receipt.Header)
	}

	if receipt.StoreName != "" {
		buf.Write(Commands.AlignCenter)
		buf.Write(Commands.BoldOn)
		writeLine(&buf, receipt.StoreName)
		buf.Write(Commands.BoldOff)
	}

	buf.Write(Commands.AlignLeft)

	if !receipt.Timestamp.IsZero() {
		writeLine(&buf, e.formatTimestamp(receipt.Timestamp))
	}

	divider := strings.Repeat("-", width)
	writeLine(&buf, divider)

	for _, item := range receipt.Items {
		writeLine(&buf, padRight(truncate(item.Name, width), width))

		left := fmt.Sprintf("%dx %s", item.Quantity, e.money(item.UnitPrice))
		writeLine(&buf, columns(left, e.money(item.LineTotal()), width))
	}

	writeLine(&buf, divider)
	writeLine(&buf, "Subtotal: "+e.money(receipt.Subtotal))

	if receipt.Tax != nil {
		writeLine(&buf, "Tax: "+e.money(*receipt.Tax))
	}

	buf.Write(Commands.BoldOn)
	writeLine(&buf, "TOTAL: "+e.money(receipt.Total))
	buf.Write(Commands.BoldOff)

	if receipt.Footer != "" {
		buf.Write(Commands.AlignCenter)
		writeLine(&buf, receipt.Footer)
		buf.Write(Commands.AlignLeft)
	}

	writeTrailer(&buf)
	return buf.Bytes()
}

// EncodeImage emits a GS v 0 raster block. Pixels must already be
// monochrome, one bit per dot, width bytes per row.
func (e *Encoder) EncodeImage(pixels []byte, width, height int) []byte {
	var buf bytes.Buffer
	buf.Grow(len(pixels) + 20)

	buf.Write(Commands.Initialize)
	buf.Write(Commands.RasterImage)

	header := make([]byte, 0, 4)
	header = binary.LittleEndian.AppendUint16(header, uint16(width))
	header = binary.LittleEndian.AppendUint16(header, uint16(height))
	buf.Write(header)

	buf.Write(pixels)
	writeTrailer(&buf)

	return buf.Bytes()
}

func (e *Encoder) money(amount decimal.Decimal) string {
	return e.config.Currency + amount.StringFixed(2)
}

func (e *Encoder) formatTimestamp(ts time.Time) string {
	if e.config.Location != nil {
		ts = ts.In(e.config.Location)
	}
	return ts.Format(e.config.TimeLayout)
}

// Helper functions

func writeLine(buf *bytes.Buffer, line string) {
	buf.WriteString(line)
	buf.Write(Commands.LineFeed)
}

func writeTrailer(buf *bytes.Buffer) {
	for i := 0; i < trailingFeeds; i++ {
		buf.Write(Commands.LineFeed)
	}
	buf.Write(Commands.CutPartialFeed)
}

// truncate cuts s to at most width runes
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width])
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// columns right-aligns right against left within width, keeping at least one space
func columns(left, right string, width int) string {
	gap := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
