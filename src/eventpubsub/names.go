package eventpubsub

const (
	GenerationCompletedEvent = "GenerationCompletedEvent"
	ChampionFoundEvent       = "ChampionFoundEvent"
	RunTerminatedEvent       = "RunTerminatedEvent"
	Error                    = "DefaultError"
)
