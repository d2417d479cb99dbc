package gpio

import (
	"errors"
	"testing"
)

func TestFakeReaderRead(t *testing.T) {
	f := NewFakeReader([]bool{true, false, true})

	want := []bool{true, false, true, true} // last sample repeats
	for i, w := range want {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("read %d: expected %v, got %v", i, w, got)
		}
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	if _, err := f.Read(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]bool{true})
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]bool{true})

	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeReaderReset(t *testing.T) {
	f := NewFakeReader([]bool{true, false})

	f.Read()
	f.Reset()

	got, _ := f.Read()
	if got != true {
		t.Errorf("after reset: expected true, got %v", got)
	}
}
