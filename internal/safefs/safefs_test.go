package safefs

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
)

func TestStat_ReturnsTimeoutError(t *testing.T) {
	prev := osStat
	defer func() { osStat = prev }()

	osStat = func(string) (os.FileInfo, error) {
		select {}
	}

	start := time.Now()
	_, err := Stat(context.Background(), "/does/not/matter", 25*time.Millisecond)
	if err == nil || !errors.Is(err, ErrTimeout) {
		t.Fatalf("Stat err = %v; want timeout", err)
	}
	if time.Since(start) > 250*time.Millisecond {
		t.Fatalf("Stat took too long: %s", time.Since(start))
	}
	var te *TimeoutError
	if !errors.As(err, &te) || te.Op != "stat" {
		t.Fatalf("Stat err = %#v; want *TimeoutError for stat", err)
	}
}

func TestReadDir_ReturnsTimeoutError(t *testing.T) {
	prev := osReadDir
	defer func() { osReadDir = prev }()

	osReadDir = func(string) ([]os.DirEntry, error) {
		select {}
	}

	_, err := ReadDir(context.Background(), "/does/not/matter", 25*time.Millisecond)
	if err == nil || !errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadDir err = %v; want timeout", err)
	}
}

func TestDiskUsage_ReturnsTimeoutError(t *testing.T) {
	prev := diskUsage
	defer func() { diskUsage = prev }()

	diskUsage = func(context.Context, string) (*disk.UsageStat, error) {
		select {}
	}

	_, err := DiskUsage(context.Background(), "/does/not/matter", 25*time.Millisecond)
	if err == nil || !errors.Is(err, ErrTimeout) {
		t.Fatalf("DiskUsage err = %v; want timeout", err)
	}
}

func TestDiskUsage_MapsStat(t *testing.T) {
	prev := diskUsage
	defer func() { diskUsage = prev }()

	diskUsage = func(_ context.Context, path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Path: path, Fstype: "ext4", Total: 1000, Free: 250}, nil
	}

	usage, err := DiskUsage(context.Background(), "/sync", time.Second)
	if err != nil {
		t.Fatalf("DiskUsage: %v", err)
	}
	if usage.Free != 250 || usage.Total != 1000 || usage.Fstype != "ext4" || usage.Path != "/sync" {
		t.Fatalf("DiskUsage = %+v", usage)
	}
}

func TestStat_NoTimeoutCallsDirectly(t *testing.T) {
	dir := t.TempDir()
	info, err := Stat(context.Background(), dir, 0)
	if err != nil || !info.IsDir() {
		t.Fatalf("Stat(%s) = %v, %v", dir, info, err)
	}
}

func TestStat_PropagatesContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Stat(ctx, "/does/not/matter", 50*time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Stat err = %v; want context.Canceled", err)
	}
}
