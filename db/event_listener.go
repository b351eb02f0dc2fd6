package db

import "time"

//go:generate mockgen -destination=../mocks/mock_event_listener.go -package=mocks github.com/NethermindEth/statedb/db EventListener
type EventListener interface {
	// OnIO is called when a read or write that started at start completes.
	OnIO(write bool, start time.Time)
	// OnCommit is called when a batch write that started at start completes.
	OnCommit(start time.Time)
}

type SelectiveListener struct {
	OnIOCb     func(write bool, duration time.Duration)
	OnCommitCb func(duration time.Duration)
}

func (l *SelectiveListener) OnIO(write bool, start time.Time) {
	if l.OnIOCb != nil {
		l.OnIOCb(write, time.Since(start))
	}
}

func (l *SelectiveListener) OnCommit(start time.Time) {
	if l.OnCommitCb != nil {
		l.OnCommitCb(time.Since(start))
	}
}
