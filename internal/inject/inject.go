// Package inject synthesizes OS-level mouse and keyboard input.
package inject

// Button names a mouse button.
type Button string

const (
	LeftButton  Button = "left"
	RightButton Button = "right"
)

// Injector is the input-injection capability the dispatcher drives.
// Every call may fail, for example when the OS refuses synthetic input.
type Injector interface {
	MoveTo(x, y int) error
	MouseDown(b Button) error
	MouseUp(b Button) error
	Click(b Button) error
	// Scroll scrolls vertically; positive amounts scroll content up.
	Scroll(amount int) error
	// Hotkey presses keys together; modifiers first, the key last.
	Hotkey(keys ...string) error
}
