package command

// Arguments are the parsed command line of a cat or put run.
type Arguments struct {
	Target Target

	// Limit is the maximum number of messages (-n), zero means no limit.
	Limit int64
	// ExcludeProperties drops all properties from consumed messages (-p).
	ExcludeProperties bool
	// Commit records consumption progress on the broker (-r).
	Commit bool
	// HideSystem drops system properties from the cat output.
	HideSystem bool
	// Acks is the producer acknowledgement level.
	Acks string
}

func (a Arguments) HasLimit() bool {
	return a.Limit > 0
}
