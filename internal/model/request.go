// internal/model/request.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestType names the variant of a PrintRequest
type RequestType string

const (
	RequestTypeRaw     RequestType = "RAW"
	RequestTypeText    RequestType = "TEXT"
	RequestTypeReceipt RequestType = "RECEIPT"
	RequestTypeImage   RequestType = "IMAGE"
)

// PrintRequest is the tagged union of everything the encoder accepts.
// Values are never mutated after creation.
type PrintRequest interface {
	RequestType() RequestType
}

// RawRequest injects protocol bytes directly
type RawRequest struct {
	Data []byte `json:"data"`
}

// TextRequest prints plain text followed by feeds and a cut
type TextRequest struct {
	Text string `json:"text"`
}

// ReceiptRequest prints an itemized receipt
type ReceiptRequest struct {
	Receipt Receipt `json:"receipt"`
}

// ImageRequest prints an already-binarized raster image.
// Width is the horizontal size in bytes (8 dots per byte), Height in dots.
type ImageRequest struct {
	Pixels []byte `json:"pixels"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (RawRequest) RequestType() RequestType     { return RequestTypeRaw }
func (TextRequest) RequestType() RequestType    { return RequestTypeText }
func (ReceiptRequest) RequestType() RequestType { return RequestTypeReceipt }
func (ImageRequest) RequestType() RequestType   { return RequestTypeImage }

// Receipt is the structured receipt model rendered by the encoder.
// Total == Subtotal + Tax is the caller's obligation; the encoder only
// renders the numbers it is given. A zero Timestamp omits the timestamp
// line when encoding directly; PrinterService.Print stamps it instead.
type Receipt struct {
	Header    string           `json:"header,omitempty"`
	StoreName string           `json:"store_name,omitempty"`
	Items     []LineItem       `json:"items"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Tax       *decimal.Decimal `json:"tax,omitempty"`
	Total     decimal.Decimal  `json:"total"`
	Footer    string           `json:"footer,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// LineItem is a single receipt row
type LineItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal returns quantity times unit price
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}
