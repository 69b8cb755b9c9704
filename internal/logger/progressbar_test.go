package logger

import (
	"strings"
	"testing"
)

func TestProgressBarRender(t *testing.T) {
	pb := NewProgressBar(10, 10, false)

	if got := pb.Render(); got != "[          ] 0/10 (0%)" {
		t.Errorf("Render() = %q at start", got)
	}

	pb.Update(5)
	if got := pb.Render(); got != "[=====     ] 5/10 (50%)" {
		t.Errorf("Render() = %q at halfway", got)
	}

	pb.Update(10)
	if got := pb.Render(); got != "[==========] 10/10 (100%)" {
		t.Errorf("Render() = %q at completion", got)
	}
}

func TestProgressBarZeroTotal(t *testing.T) {
	pb := NewProgressBar(0, 10, false)
	if pb.Percentage() != 0 {
		t.Errorf("Percentage() = %d with zero total, want 0", pb.Percentage())
	}
	if got := pb.Render(); got != "[          ] 0/0 (0%)" {
		t.Errorf("Render() = %q with zero total", got)
	}
}

func TestProgressBarIncrement(t *testing.T) {
	pb := NewProgressBar(3, 10, false)
	pb.Increment()
	pb.Increment()
	if pb.Current() != 2 {
		t.Errorf("Current() = %d, want 2", pb.Current())
	}
}

func TestProgressBarColor(t *testing.T) {
	pb := NewProgressBar(4, 10, true)
	pb.Update(2)
	if !strings.HasPrefix(pb.Render(), "\033[36m") {
		t.Errorf("Render() = %q, want cyan while in progress", pb.Render())
	}

	pb.Update(4)
	if !strings.HasPrefix(pb.Render(), "\033[32m") {
		t.Errorf("Render() = %q, want green when complete", pb.Render())
	}
}

func TestProgressBarMinimumWidth(t *testing.T) {
	pb := NewProgressBar(10, 0, false)
	// A non-positive width falls back to 10 columns.
	if got := pb.Render(); !strings.Contains(got, "[          ]") {
		t.Errorf("Render() = %q, want default width bar", got)
	}
}
