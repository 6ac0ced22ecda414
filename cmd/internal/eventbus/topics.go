package eventbus

var (
	// TopicGenerationEvents carries generation task requests and results.
	TopicGenerationEvents = NewTopic("content-pipeline.generation.events")
)

var AllTopics = []Topic{
	TopicGenerationEvents,
}
