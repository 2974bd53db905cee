package tray

import "testing"

func TestStatusTitle(t *testing.T) {
	if got := StatusTitle(""); got != "○ Idle" {
		t.Errorf("StatusTitle(\"\") = %q", got)
	}
	if got := StatusTitle("gesture"); got != "● Running: gesture" {
		t.Errorf("StatusTitle(gesture) = %q", got)
	}
}

func TestTray_CallbacksWithoutMenu(t *testing.T) {
	tr := New([]Mode{{ID: "gesture", Title: "Gesture"}})

	var started string
	stopped := false
	tr.OnStart(func(mode string) { started = mode })
	tr.OnStop(func() { stopped = true })

	tr.handleStart("gesture")
	tr.handleStop()

	if started != "gesture" || !stopped {
		t.Errorf("started = %q, stopped = %v", started, stopped)
	}

	tr.SetActive("gesture")
	if tr.Active() != "gesture" {
		t.Errorf("Active() = %q, want gesture", tr.Active())
	}
	tr.SetActive("")
	if tr.Active() != "" {
		t.Errorf("Active() = %q, want idle", tr.Active())
	}
}
