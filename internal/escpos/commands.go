// internal/escpos/commands.go
package escpos

// Commands contains the ESC/POS command definitions used by the encoder
var Commands = struct {
	// Basic commands
	Initialize    []byte
	StatusRequest []byte

	// Text formatting
	BoldOn  []byte
	BoldOff []byte

	// Text alignment
	AlignLeft   []byte
	AlignCenter []byte
	AlignRight  []byte

	// Paper handling
	LineFeed []byte

	// Cutting
	CutFull        []byte
	CutPartialFeed []byte // GS V 65 n: feed n lines then partial cut

	// Graphics
	RasterImage []byte // + xL xH yL yH + data
}{
	Initialize:    []byte{0x1B, 0x40},       // ESC @
	StatusRequest: []byte{0x10, 0x04, 0x01}, // DLE EOT 1

	BoldOn:  []byte{0x1B, 0x45, 0x01}, // ESC E 1
	BoldOff: []byte{0x1B, 0x45, 0x00}, // ESC E 0

	AlignLeft:   []byte{0x1B, 0x61, 0x00}, // ESC a 0
	AlignCenter: []byte{0x1B, 0x61, 0x01}, // ESC a 1
	AlignRight:  []byte{0x1B, 0x61, 0x02}, // ESC a 2

	LineFeed: []byte{0x0A}, // LF

	CutFull:        []byte{0x1D, 0x56, 0x00},       // GS V 0
	CutPartialFeed: []byte{0x1D, 0x56, 0x41, 0x03}, // GS V A 3

	RasterImage: []byte{0x1D, 0x76, 0x30, 0x00}, // GS v 0 m=0
}

// trailingFeeds is the number of line feeds emitted before the cut
const trailingFeeds = 4
