package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastClaimUnix atomic.Int64 // unix seconds
	settled       atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) TouchClaim(t time.Time) { s.lastClaimUnix.Store(t.Unix()) }
func (s *State) LastClaim() time.Time {
	u := s.lastClaimUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) AddSettled(n int64) { s.settled.Add(n) }
func (s *State) Settled() int64     { return s.settled.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
