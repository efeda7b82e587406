package discovery

import (
	"context"
	"testing"
	"time"
)

func TestNewConnectDiscovery_DefaultsTimeout(t *testing.T) {
	d := NewConnectDiscovery(10*time.Second, nil)
	if d.timeout != 10*time.Second {
		t.Errorf("got timeout %v, want 10s", d.timeout)
	}

	d = NewConnectDiscovery(0, nil)
	if d.timeout != defaultTimeout {
		t.Errorf("got timeout %v, want default %v", d.timeout, defaultTimeout)
	}
}

func TestConnectDiscovery_ServiceEntryToDeviceNilEntry(t *testing.T) {
	d := NewConnectDiscovery(time.Second, nil)
	if device := d.serviceEntryToDevice(nil); device != nil {
		t.Errorf("expected nil device for nil entry, got %+v", device)
	}
}

func TestConnectDiscovery_DiscoverDevicesRespectsTimeout(t *testing.T) {
	d := NewConnectDiscovery(100*time.Millisecond, nil)

	start := time.Now()
	devices, _ := d.DiscoverDevices(context.Background())
	elapsed := time.Since(start)

	if devices == nil {
		t.Error("expected a non-nil (possibly empty) device slice")
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("discovery took %v, expected roughly the configured timeout", elapsed)
	}
}

func TestConnectDiscovery_DiscoverDevicesHandlesCancelledContext(t *testing.T) {
	d := NewConnectDiscovery(5*time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	devices, err := d.DiscoverDevices(ctx)
	if devices == nil {
		t.Error("expected a non-nil device slice even on immediate cancellation")
	}
	_ = err
}
