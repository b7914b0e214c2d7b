package handlers

// AppHandlers holds every handler the router wires up.
type AppHandlers struct {
	NotificationHandler *NotificationHandler
	BroadcastHandler    *BroadcastHandler
}
