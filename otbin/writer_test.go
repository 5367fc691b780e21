package otbin

import (
	"bytes"
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestWriterShapeEncoding(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otforge.bin")
	defer teardown()
	//
	w := NewWriter()
	if err := w.Write("HH4s", 1, 300, []byte("abcd")); err != nil {
		t.Fatal(err)
	}
	b, err := w.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 0x01, 0x01, 0x2C, 0x61, 0x62, 0x63, 0x64}
	if !bytes.Equal(b, want) {
		t.Errorf("expected output\n%sgot\n%s", Hexdump(want), Hexdump(b))
	}
}

func TestWriterValueRange(t *testing.T) {
	w := NewWriter()
	if err := w.Write("H", 70000); !errors.Is(err, ErrValueRange) {
		t.Errorf("expected ErrValueRange for 70000 in H field, got %v", err)
	}
	if err := w.Write("B", -1); !errors.Is(err, ErrValueRange) {
		t.Errorf("expected ErrValueRange for -1 in B field, got %v", err)
	}
	if err := w.Write("4s", []byte("abc")); !errors.Is(err, ErrValueRange) {
		t.Errorf("expected ErrValueRange for short byte run, got %v", err)
	}
	if err := w.Write("2H", 1); !errors.Is(err, ErrValueRange) {
		t.Errorf("expected ErrValueRange for missing value, got %v", err)
	}
	if w.Len() != 0 {
		t.Errorf("expected no bytes appended after rejected writes, have %d", w.Len())
	}
	// signed fields take negatives
	if err := w.Write("h", -300); err != nil {
		t.Fatal(err)
	}
	b, err := w.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte{0xFE, 0xD4}) {
		t.Errorf("expected -300 encoded as FE D4, got % X", b)
	}
}

func TestUnresolvedOffsetForwardReference(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otforge.bin")
	defer teardown()
	//
	w := NewWriter()
	base := w.StakeCurrent()
	target := w.NewStake()
	// the offset field is written before its target position exists
	if err := w.AddUnresolvedOffset("H", base, target); err != nil {
		t.Fatal(err)
	}
	if err := w.Write("H", 0xDEAD); err != nil {
		t.Fatal(err)
	}
	if err := w.BindStake(target); err != nil {
		t.Fatal(err)
	}
	if err := w.Write("H", 0xBEEF); err != nil {
		t.Fatal(err)
	}
	b, err := w.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 0x00 || b[1] != 0x04 {
		t.Errorf("expected offset field to resolve to 4, got % X", b[:2])
	}
}

func TestOffsetSharedTarget(t *testing.T) {
	w := NewWriter()
	base := w.StakeCurrent()
	target := w.NewStake()
	if err := w.AddUnresolvedOffset("H", base, target); err != nil {
		t.Fatal(err)
	}
	if err := w.AddUnresolvedOffset("H", base, target); err != nil {
		t.Fatal(err)
	}
	if err := w.BindStake(target); err != nil {
		t.Fatal(err)
	}
	w.WriteRaw([]byte{0xFF})
	b, err := w.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if b[1] != 4 || b[3] != 4 {
		t.Errorf("expected both offset fields to resolve to 4, got % X", b[:4])
	}
}

func TestOffsetNegative(t *testing.T) {
	w := NewWriter()
	target := w.StakeCurrent()
	if err := w.Write("L", 0); err != nil {
		t.Fatal(err)
	}
	base := w.StakeCurrent()
	if err := w.AddUnresolvedOffset("H", base, target); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Finalize(); !errors.Is(err, ErrNegativeOffset) {
		t.Errorf("expected ErrNegativeOffset, got %v", err)
	}
}

func TestOffsetNegativeWithNegOK(t *testing.T) {
	w := NewWriter()
	target := w.StakeCurrent()
	if err := w.Write("L", 0); err != nil {
		t.Fatal(err)
	}
	base := w.StakeCurrent()
	if err := w.AddUnresolvedOffset("h", base, target, NegOK()); err != nil {
		t.Fatal(err)
	}
	b, err := w.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if b[4] != 0xFF || b[5] != 0xFC {
		t.Errorf("expected offset -4 encoded as FF FC, got % X", b[4:6])
	}
}

func TestOffsetOverflow(t *testing.T) {
	w := NewWriter()
	base := w.StakeCurrent()
	target := w.NewStake()
	if err := w.AddUnresolvedOffset("B", base, target); err != nil {
		t.Fatal(err)
	}
	w.WriteRaw(make([]byte, 300))
	if err := w.BindStake(target); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Finalize(); !errors.Is(err, ErrOffsetOverflow) {
		t.Errorf("expected ErrOffsetOverflow for distance 301 in B field, got %v", err)
	}
}

func TestOffsetDivisorAndDelta(t *testing.T) {
	w := NewWriter()
	base := w.StakeCurrent()
	target := w.NewStake()
	if err := w.AddUnresolvedOffset("H", base, target, Divisor(4)); err != nil {
		t.Fatal(err)
	}
	if err := w.Write("H", 0); err != nil {
		t.Fatal(err)
	}
	if err := w.BindStake(target); err != nil { // position 4
		t.Fatal(err)
	}
	b, err := w.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 0 || b[1] != 1 {
		t.Errorf("expected word-counted offset 1, got % X", b[:2])
	}
	//
	w = NewWriter()
	base = w.StakeCurrent()
	target = w.NewStake()
	if err = w.AddUnresolvedOffset("H", base, target, ByteDelta(6)); err != nil {
		t.Fatal(err)
	}
	if err = w.BindStake(target); err != nil { // position 2
		t.Fatal(err)
	}
	w.WriteRaw([]byte{0})
	b, err = w.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 0 || b[1] != 8 {
		t.Errorf("expected offset 2+6=8, got % X", b[:2])
	}
}

func TestOffsetMisaligned(t *testing.T) {
	w := NewWriter()
	base := w.StakeCurrent()
	target := w.NewStake()
	if err := w.AddUnresolvedOffset("H", base, target, Divisor(4)); err != nil {
		t.Fatal(err)
	}
	w.WriteRaw([]byte{0})
	if err := w.BindStake(target); err != nil { // position 3, not a multiple of 4
		t.Fatal(err)
	}
	if _, err := w.Finalize(); !errors.Is(err, ErrMisalignedOffset) {
		t.Errorf("expected ErrMisalignedOffset, got %v", err)
	}
}

func TestStakeCurrentWithValue(t *testing.T) {
	w := NewWriter()
	// offsets counted from an enclosing structure 10 bytes back
	base := w.StakeCurrentWithValue(-10)
	target := w.NewStake()
	if err := w.AddUnresolvedOffset("H", base, target); err != nil {
		t.Fatal(err)
	}
	if err := w.BindStake(target); err != nil { // position 2
		t.Fatal(err)
	}
	b, err := w.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 0 || b[1] != 12 {
		t.Errorf("expected offset 2-(-10)=12, got % X", b[:2])
	}
}

func TestUnboundStakeFailsFinalize(t *testing.T) {
	w := NewWriter()
	base := w.StakeCurrent()
	target := w.NewStake()
	if err := w.AddUnresolvedOffset("H", base, target); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Finalize(); !errors.Is(err, ErrUnboundStake) {
		t.Errorf("expected ErrUnboundStake, got %v", err)
	}
}

func TestBindStakeTwice(t *testing.T) {
	w := NewWriter()
	s := w.NewStake()
	if err := w.BindStake(s); err != nil {
		t.Fatal(err)
	}
	if err := w.BindStake(s); !errors.Is(err, ErrUnboundStake) {
		t.Errorf("expected second bind to fail, got %v", err)
	}
}

func TestDeferredValue(t *testing.T) {
	w := NewWriter()
	if err := w.Write("H", 0); err != nil {
		t.Fatal(err)
	}
	length, err := w.DeferredValue("H")
	if err != nil {
		t.Fatal(err)
	}
	w.WriteRaw(make([]byte, 10))
	if err = w.SetDeferredValue(length, int64(w.Len())); err != nil {
		t.Fatal(err)
	}
	b, err := w.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if b[2] != 0 || b[3] != 14 {
		t.Errorf("expected deferred length 14, got % X", b[2:4])
	}
}

func TestDeferredValueUnsetFailsFinalize(t *testing.T) {
	w := NewWriter()
	if _, err := w.DeferredValue("L"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Finalize(); !errors.Is(err, ErrUnsetDeferredValue) {
		t.Errorf("expected ErrUnsetDeferredValue, got %v", err)
	}
}

func TestWriterAlign(t *testing.T) {
	w := NewWriter()
	w.WriteRaw([]byte{1, 2, 3})
	w.Align(4)
	if w.Len() != 4 {
		t.Errorf("expected length 4 after align, got %d", w.Len())
	}
	w.Align(4)
	if w.Len() != 4 {
		t.Errorf("expected align to be a no-op on aligned length, got %d", w.Len())
	}
}

func TestChecksum(t *testing.T) {
	if cs := Checksum([]byte{0, 0, 0, 1, 0, 0, 0, 2}); cs != 3 {
		t.Errorf("expected checksum 3, got %d", cs)
	}
	// trailing partial word is zero-padded
	if cs := Checksum([]byte{0, 0, 0, 1, 0x80}); cs != 0x80000001 {
		t.Errorf("expected checksum 0x80000001, got 0x%08X", cs)
	}
}
