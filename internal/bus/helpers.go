package bus

import "github.com/anchore/clio"

// Exit asks the application event loop to stop once the current work is done.
func Exit() {
	Publish(clio.ExitEvent(false))
}

// ExitWithInterrupt asks the application event loop to stop immediately (e.g. the user pressed ctrl+c).
func ExitWithInterrupt() {
	Publish(clio.ExitEvent(true))
}
