package service

import "time"

// LogFilter narrows an event history query.
type LogFilter struct {
	From    time.Time // inclusive; zero means no lower bound
	To      time.Time // inclusive; zero means no upper bound
	Type    string    // one of the models.Event* types, or empty
	Channel string    // channel name, or empty for all
}
