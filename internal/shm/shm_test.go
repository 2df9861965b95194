//go:build linux

package shm

import "testing"

func TestAllocateZeroInitialized(t *testing.T) {
	region, err := Allocate(4096)
	if err != nil {
		t.Fatal(err)
	}
	defer region.Release()

	if region.Size() != 4096 {
		t.Errorf("Size() = %d, want 4096", region.Size())
	}
	for i, b := range region.Data {
		if b != 0 {
			t.Fatalf("byte %d = %d, want zero-initialized region", i, b)
		}
	}
}

func TestAllocateIsWritable(t *testing.T) {
	region, err := Allocate(64)
	if err != nil {
		t.Fatal(err)
	}
	defer region.Release()

	for i := range region.Data {
		region.Data[i] = byte(i)
	}
	for i := range region.Data {
		if region.Data[i] != byte(i) {
			t.Fatalf("byte %d = %d after write", i, region.Data[i])
		}
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	region, err := Allocate(128)
	if err != nil {
		t.Fatal(err)
	}

	if err := region.Release(); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := region.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if region.Size() != 0 {
		t.Errorf("Size() = %d after release, want 0", region.Size())
	}
}

func TestAllocateRejectsInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := Allocate(size); err == nil {
			t.Errorf("Allocate(%d) succeeded, want error", size)
		}
	}
}

func TestRegionsAreIndependent(t *testing.T) {
	a, err := Allocate(32)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Release()

	b, err := Allocate(32)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	a.Data[0] = 0xAA
	if b.Data[0] != 0 {
		t.Error("write to one region leaked into another")
	}
}
