package vtex

import "fmt"

// SourceTexture is the decoded input consumed from the texture-decoding
// collaborator: uncompressed 8-bit-per-channel pixel data with 1, 3 or 4
// channels, rows tightly packed in row-major order.
//
// The residency manager reads from Data during uploads but never mutates
// or retains slices into it beyond staging.
type SourceTexture struct {
	// Width and Height are the texture dimensions in texels.
	Width  int
	Height int

	// Channels is the number of 8-bit channels per texel: 1 (gray),
	// 3 (RGB) or 4 (RGBA).
	Channels int

	// Data holds Width*Height*Channels bytes of pixel data.
	Data []byte
}

// Validate checks the descriptor for dimensions, channel count and data
// length. All errors wrap ErrInvalidSource.
func (s *SourceTexture) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil descriptor", ErrInvalidSource)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidSource, s.Width, s.Height)
	}
	switch s.Channels {
	case 1, 3, 4:
	default:
		return fmt.Errorf("%w: %d channels (want 1, 3 or 4)", ErrInvalidSource, s.Channels)
	}
	if need := s.Width * s.Height * s.Channels; len(s.Data) < need {
		return fmt.Errorf("%w: %d data bytes, need %d", ErrInvalidSource, len(s.Data), need)
	}
	return nil
}

// pixelRGBA returns the texel at (x, y) expanded to the fixed 4-channel
// layout: gray sources replicate to RGB with opaque alpha, RGB sources
// get opaque alpha, RGBA sources pass through.
func (s *SourceTexture) pixelRGBA(x, y int) (r, g, b, a byte) {
	i := (y*s.Width + x) * s.Channels
	switch s.Channels {
	case 1:
		v := s.Data[i]
		return v, v, v, 0xFF
	case 3:
		return s.Data[i], s.Data[i+1], s.Data[i+2], 0xFF
	default:
		return s.Data[i], s.Data[i+1], s.Data[i+2], s.Data[i+3]
	}
}
