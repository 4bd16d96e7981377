package events

// WeightsUpdated is published after a weight table entry is successfully set.
type WeightsUpdated struct {
	Key     string
	Value   float64
	Version uint64
}
