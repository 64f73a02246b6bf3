package vtex

import (
	"io"
	"log/slog"
	"testing"

	"github.com/gogpu/vtex/backend"
)

// loggerDevice records the logger handed to it.
type loggerDevice struct {
	*backend.SoftwareDevice
	got *slog.Logger
}

func (d *loggerDevice) SetLogger(l *slog.Logger) { d.got = l }

func TestSetLoggerReachesAttachedBackend(t *testing.T) {
	defer SetLogger(nil)

	dev := &loggerDevice{SoftwareDevice: backend.NewSoftwareDevice()}
	if err := dev.Init(); err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	m, err := NewManager(dev, WithTileSize(64), WithMaxPhysicalPages(4))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if dev.got == nil {
		t.Fatal("device received no logger at manager creation")
	}

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	SetLogger(custom)
	if dev.got != custom {
		t.Error("SetLogger after manager creation did not reach the backend")
	}

	m.Close()
	other := slog.New(slog.NewTextHandler(io.Discard, nil))
	SetLogger(other)
	if dev.got == other {
		t.Error("closed manager's device still receives logger updates")
	}
}
