package vtex

import (
	"errors"
	"testing"
)

func TestSourceValidate(t *testing.T) {
	tests := []struct {
		name string
		src  *SourceTexture
		ok   bool
	}{
		{"nil", nil, false},
		{"rgba", &SourceTexture{Width: 2, Height: 2, Channels: 4, Data: make([]byte, 16)}, true},
		{"rgb", &SourceTexture{Width: 2, Height: 2, Channels: 3, Data: make([]byte, 12)}, true},
		{"gray", &SourceTexture{Width: 2, Height: 2, Channels: 1, Data: make([]byte, 4)}, true},
		{"zero width", &SourceTexture{Height: 2, Channels: 4, Data: make([]byte, 16)}, false},
		{"two channels", &SourceTexture{Width: 2, Height: 2, Channels: 2, Data: make([]byte, 8)}, false},
		{"short data", &SourceTexture{Width: 2, Height: 2, Channels: 4, Data: make([]byte, 15)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.src.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate failed: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidSource) {
				t.Errorf("Validate error = %v, want ErrInvalidSource", err)
			}
		})
	}
}

func TestPixelRGBAExpansion(t *testing.T) {
	gray := &SourceTexture{Width: 2, Height: 1, Channels: 1, Data: []byte{50, 200}}
	r, g, b, a := gray.pixelRGBA(1, 0)
	if r != 200 || g != 200 || b != 200 || a != 0xFF {
		t.Errorf("gray texel = %d,%d,%d,%d, want 200,200,200,255", r, g, b, a)
	}

	rgb := &SourceTexture{Width: 1, Height: 1, Channels: 3, Data: []byte{10, 20, 30}}
	r, g, b, a = rgb.pixelRGBA(0, 0)
	if r != 10 || g != 20 || b != 30 || a != 0xFF {
		t.Errorf("rgb texel = %d,%d,%d,%d, want 10,20,30,255", r, g, b, a)
	}

	rgba := &SourceTexture{Width: 1, Height: 2, Channels: 4, Data: []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}}
	r, g, b, a = rgba.pixelRGBA(0, 1)
	if r != 5 || g != 6 || b != 7 || a != 8 {
		t.Errorf("rgba texel = %d,%d,%d,%d, want 5,6,7,8", r, g, b, a)
	}
}
