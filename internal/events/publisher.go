package events

// Publisher is the outbound side of the distribution layer as seen by the
// workflow engine. Publishing is fire-and-forget: implementations must never
// block the caller on slow subscribers, and delivery failures stay local to
// the distribution layer.
type Publisher interface {
	PublishGlobal(eventType string, data any)
	PublishToResource(resourceType, resourceID, eventType string, data any)
	PublishToActor(actorID, eventType string, data any)
}

// NopPublisher discards every event. Useful in tests and tooling that runs
// workflow mutations without a realtime hub.
type NopPublisher struct{}

func (NopPublisher) PublishGlobal(string, any)                     {}
func (NopPublisher) PublishToResource(string, string, string, any) {}
func (NopPublisher) PublishToActor(string, string, any)            {}
