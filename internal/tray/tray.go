// Package tray provides the system tray launcher for gesturemouse.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Mode is one launchable entry of the menu.
type Mode struct {
	ID      string
	Title   string
	Tooltip string
}

// Tray is the system tray launcher: one item per mode, Stop and Quit.
type Tray struct {
	modes   []Mode
	onStart func(mode string)
	onStop  func()
	onQuit  func()
	active  string
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuModes  map[string]*systray.MenuItem
	menuStop   *systray.MenuItem
}

// New creates a Tray offering modes in the given order.
func New(modes []Mode) *Tray {
	return &Tray{
		modes:     modes,
		menuModes: make(map[string]*systray.MenuItem, len(modes)),
	}
}

// OnStart sets the callback for picking a mode.
func (t *Tray) OnStart(fn func(mode string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStart = fn
}

// OnStop sets the callback for the Stop item.
func (t *Tray) OnStop(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStop = fn
}

// OnQuit sets the callback to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("GestureMouse")
	systray.SetTooltip("Control the mouse with hand gestures")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(StatusTitle(""), "Current mode")
	t.menuStatus.Disable()
	systray.AddSeparator()

	for _, m := range t.modes {
		t.menuModes[m.ID] = systray.AddMenuItemCheckbox(m.Title, m.Tooltip, false)
	}
	systray.AddSeparator()

	t.menuStop = systray.AddMenuItem("Stop", "Stop the running mode")
	t.menuStop.Disable()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit GestureMouse")
	t.mu.Unlock()

	for _, m := range t.modes {
		go t.watchMode(m.ID, t.menuModes[m.ID])
	}

	go func() {
		for {
			select {
			case <-t.menuStop.ClickedCh:
				t.handleStop()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) watchMode(id string, item *systray.MenuItem) {
	for range item.ClickedCh {
		t.handleStart(id)
	}
}

func (t *Tray) handleStart(id string) {
	t.mu.RLock()
	callback := t.onStart
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(id)
	}
}

func (t *Tray) handleStop() {
	t.mu.RLock()
	callback := t.onStop
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetActive marks mode as running; an empty mode means idle.
func (t *Tray) SetActive(mode string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = mode

	if t.menuStatus == nil {
		return
	}
	t.menuStatus.SetTitle(StatusTitle(mode))
	for id, item := range t.menuModes {
		if id == mode {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	if mode == "" {
		t.menuStop.Disable()
	} else {
		t.menuStop.Enable()
	}
}

// Active returns the mode shown as running.
func (t *Tray) Active() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// StatusTitle is the status line shown for mode.
func StatusTitle(mode string) string {
	if mode == "" {
		return "○ Idle"
	}
	return "● Running: " + mode
}
