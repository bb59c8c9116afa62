// Package vote implements the vote transaction: reload the table from the
// store, add one vote to a row and write the whole table back.
//
// The transaction is not atomic with respect to other sessions. Two votes that
// interleave between the reload and the save both write back a table with only
// their own increment, and the later save silently discards the earlier vote.
// Clearing the cache before the reload narrows that window but does not close
// it.
package vote

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nacionrock/album-votes/events"
	"github.com/nacionrock/album-votes/metrics"
	"github.com/nacionrock/album-votes/poll"
	"github.com/nacionrock/album-votes/session"
	"github.com/nacionrock/album-votes/store"
)

const (
	MsgRegistered = "Vote registered for %s!"
	MsgNotSaved   = "Could not save the vote."
	MsgNotLoaded  = "Could not load the albums from the data source (%v)"
)

type Result struct {
	Table      poll.Table
	Album      string
	Registered bool
}

type Service struct {
	cache     *store.Cache
	publisher events.Publisher
	metrics   *metrics.Metrics
	debug     bool

	mu        sync.RWMutex
	listeners []func(Result)
}

func NewService(cache *store.Cache, publisher events.Publisher, m *metrics.Metrics, debug bool) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &Service{
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		debug:     debug,
	}
}

// Subscribe adds a function that is invoked after every registered vote.
func (v *Service) Subscribe(f func(Result)) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.listeners = append(v.listeners, f)
}

// Open loads the table into a session that does not have one yet, through the
// shared cache. A failed load leaves the session empty and unloaded so that
// the next page view tries again.
func (v *Service) Open(ctx context.Context, s *session.Session) poll.Table {
	if s.Loaded() {
		return s.Table()
	}

	table, err := v.cache.Load(ctx)
	if err != nil {
		v.metrics.LoadErrors.Inc()
		warnf("%v", err)
		s.Notify(session.Warning, fmt.Sprintf(MsgNotLoaded, err))

		return table
	}

	s.Replace(table)

	return table
}

// Refresh drops the shared cache and replaces the session's table with the
// current contents of the store. A failed load replaces it with an empty
// table.
func (v *Service) Refresh(ctx context.Context, s *session.Session) (poll.Table, error) {
	table, err := v.cache.Reload(ctx)
	if err != nil {
		v.metrics.LoadErrors.Inc()
		warnf("%v", err)
		s.Notify(session.Warning, fmt.Sprintf(MsgNotLoaded, err))
	}

	s.Replace(table)

	return table, err
}

// Vote adds one vote to the entry at index.
//
// An index that is out of range for the freshly loaded table is not an error:
// the table may have shrunk since the page was rendered. The vote is dropped
// and Registered is false.
//
// If the save fails the error wraps store.ErrSave and the session is left
// exactly as it was. A vote for an entry that already has poll.MaxVotes is
// refused with an error and nothing is saved.
func (v *Service) Vote(ctx context.Context, s *session.Session, index int) (Result, error) {
	start := time.Now()
	defer func() {
		v.metrics.VoteDuration.Observe(time.Since(start).Seconds())
	}()

	table, err := v.cache.Reload(ctx)
	if err != nil {
		v.metrics.LoadErrors.Inc()
		v.metrics.VotesFailed.Inc()
		warnf("vote for row %v not registered (%v)", index, err)
		s.Notify(session.Error, fmt.Sprintf(MsgNotLoaded, err))

		return Result{Table: s.Table()}, err
	}

	updated, ok := table.Increment(index)
	if !ok && index >= 0 && index < table.Len() {
		album := table.Entries[index].Album
		err := fmt.Errorf("'%v' already has the maximum of %v votes", album, poll.MaxVotes)

		v.metrics.VotesFailed.Inc()
		warnf("vote for '%v' not registered (%v)", album, err)
		s.Notify(session.Error, MsgNotSaved)

		return Result{Table: s.Table(), Album: album}, err
	} else if !ok {
		v.metrics.VotesDropped.Inc()
		if v.debug {
			debugf("dropped vote for row %v (table has %v rows)", index, table.Len())
		}

		return Result{Table: s.Table()}, nil
	}

	entry := updated.Entries[index]

	if err := v.cache.Save(ctx, updated); err != nil {
		v.metrics.VotesFailed.Inc()
		warnf("vote for '%v' not registered (%v)", entry.Album, err)
		s.Notify(session.Error, MsgNotSaved)

		return Result{Table: s.Table(), Album: entry.Album}, err
	}

	s.Replace(updated)
	s.Notify(session.Success, fmt.Sprintf(MsgRegistered, entry.Album))

	v.metrics.VotesRegistered.WithLabelValues(entry.Album).Inc()
	infof("registered vote for '%v' (%v votes)", entry.Album, entry.Votes)

	result := Result{
		Table:      updated.Clone(),
		Album:      entry.Album,
		Registered: true,
	}

	v.publish(ctx, s, index, entry)
	v.notify(result)

	return result, nil
}

// Leaderboard returns the top n entries of the session's table.
func (v *Service) Leaderboard(s *session.Session, n int) []poll.Entry {
	return poll.Top(s.Table(), n)
}

func (v *Service) publish(ctx context.Context, s *session.Session, index int, entry poll.Entry) {
	event := events.Event{
		Index:     index,
		Artist:    entry.Artist,
		Album:     entry.Album,
		Votes:     entry.Votes,
		Session:   s.ID,
		Timestamp: time.Now(),
	}

	if err := v.publisher.Publish(ctx, event); err != nil {
		warnf("error publishing vote event (%v)", err)
	}
}

func (v *Service) notify(result Result) {
	v.mu.RLock()
	listeners := append([]func(Result){}, v.listeners...)
	v.mu.RUnlock()

	for _, f := range listeners {
		f(result)
	}
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	log.Printf("%-5s %s", "INFO", fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	log.Printf("%-5s %s", "WARN", fmt.Sprintf(format, args...))
}
