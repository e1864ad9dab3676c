package bus

import (
	"github.com/wagoodman/go-partybus"
)

var publisher partybus.Publisher

// Set sets the singleton event bus publisher. This is optional; if no bus is provided, events are not published.
func Set(p partybus.Publisher) {
	publisher = p
}

// Get returns the current event bus publisher (may be nil).
func Get() partybus.Publisher {
	return publisher
}

// Publish an event onto the bus. If there is no bus set by the calling application, this does nothing.
func Publish(e partybus.Event) {
	if publisher != nil {
		publisher.Publish(e)
	}
}
