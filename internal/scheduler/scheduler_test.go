package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_ValidTimezone(t *testing.T) {
	s, err := New("Africa/Kampala")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop(context.Background())
	if s.location.String() != "Africa/Kampala" {
		t.Errorf("expected Africa/Kampala, got %s", s.location.String())
	}
}

func TestNew_InvalidTimezone(t *testing.T) {
	if _, err := New("Invalid/Zone"); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestValidateSpec(t *testing.T) {
	for _, spec := range []string{"0 * * * *", "*/15 6-22 * * 1-5", "@hourly", "@every 30m"} {
		if err := ValidateSpec(spec); err != nil {
			t.Errorf("expected %q to be valid: %v", spec, err)
		}
	}
	for _, spec := range []string{"", "61 * * * *", "every hour", "* * * *"} {
		if err := ValidateSpec(spec); err == nil {
			t.Errorf("expected %q to be rejected", spec)
		}
	}
}

func TestSchedule_InvalidSpec(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop(context.Background())

	if err := s.Schedule("not a cron", func() {}); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if !s.Next().IsZero() {
		t.Error("expected no next run after failed schedule")
	}
}

func TestSchedule_Replaces(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop(context.Background())

	if err := s.Schedule("0 6 * * *", func() {}); err != nil {
		t.Fatal(err)
	}
	first := s.entryID

	if err := s.Schedule("0 18 * * *", func() {}); err != nil {
		t.Fatal(err)
	}
	if s.entryID == first {
		t.Error("expected new entry ID after reschedule")
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("expected 1 cron entry, got %d", n)
	}
}

func TestStart_RunsTask(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	if err := s.Schedule("@every 1s", func() { calls.Add(1) }); err != nil {
		t.Fatal(err)
	}
	s.Start()

	if next := s.Next(); next.IsZero() {
		t.Error("expected next run once started")
	}

	deadline := time.Now().Add(3 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	if calls.Load() == 0 {
		t.Fatal("expected task to run at least once")
	}
}

func TestSchedule_RecoversPanickingTask(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop(context.Background())

	if err := s.Schedule("@hourly", func() { panic("boom") }); err != nil {
		t.Fatal(err)
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped the scheduled job: %v", r)
		}
	}()
	s.cron.Entry(s.entryID).WrappedJob.Run()
}
