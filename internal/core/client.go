package core

// Client is a connected chat participant as seen by the core layer.
// Name is the authenticated username; ID identifies the connection, so two
// tabs of the same user are distinct clients sharing one roster entry.
type Client struct {
	ID     string
	Name   string
	Events chan *Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id, name string) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:     id,
		Name:   name,
		Events: make(chan *Event, 32),
	}
}
