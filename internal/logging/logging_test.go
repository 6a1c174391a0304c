package logging

import "testing"

func TestNew(t *testing.T) {
	for _, dev := range []bool{true, false} {
		log, err := New(dev)
		if err != nil {
			t.Fatalf("New(%v): %v", dev, err)
		}
		if log == nil {
			t.Fatalf("New(%v) returned nil logger", dev)
		}
		log.Debugw("probe", "development", dev)
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Infow("discarded", "k", "v")
	if err := log.Sync(); err != nil {
		t.Errorf("Sync: %v", err)
	}
}
