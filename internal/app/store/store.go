/*
Package store contains the client-side cache stores.

Each store exclusively owns one entity family. Operations that reach the service never
return an error to their caller: they resolve with a value or a neutral sentinel and
record the failure in the store's error slot (Err), mirrored by the Loading flag.

Stores are safe for concurrent use. A store's mutex is never held across a network call,
so an HTTP response and a push event touching the same entity may interleave; the one
applied last wins. Calls that must not run twice for the same key (lazy lookups,
creating a private chat, blocking) are shared between concurrent callers.
*/
package store

import (
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"livesync/internal/pkg/errs"
)

// slot is the loading flag and error slot embedded in every store.
type slot struct {
	smu      sync.RWMutex
	inFlight int
	err      *errs.CustomError

	flights singleflight.Group
}

// Err returns the error recorded by the most recent operation, nil on success.
func (s *slot) Err() *errs.CustomError {
	s.smu.RLock()
	defer s.smu.RUnlock()

	return s.err
}

// Loading reports whether an operation of the store is waiting on the service.
func (s *slot) Loading() bool {
	s.smu.RLock()
	defer s.smu.RUnlock()

	return s.inFlight > 0
}

func (s *slot) begin() {
	s.smu.Lock()
	s.inFlight++
	s.err = nil
	s.smu.Unlock()
}

func (s *slot) end(err *errs.CustomError) {
	s.smu.Lock()
	s.inFlight--
	if err != nil {
		s.err = err
	}
	s.smu.Unlock()
}

// fail records a local rejection that never reached the service.
func (s *slot) fail(err *errs.CustomError) {
	s.smu.Lock()
	s.err = err
	s.smu.Unlock()
}

// succeed clears the error slot for an operation resolved locally.
func (s *slot) succeed() {
	s.smu.Lock()
	s.err = nil
	s.smu.Unlock()
}

// call runs fn with the slot's bookkeeping around it.
func call[T any](s *slot, fn func() (T, *errs.CustomError)) (T, bool) {
	s.begin()
	v, err := fn()
	s.end(err)

	return v, err == nil
}

// shared runs fn once for all concurrent callers passing the same key; each caller
// gets its result. fn must apply its own state changes before returning so a caller
// arriving after the flight ends sees them.
func shared[T any](s *slot, key string, fn func() (T, *errs.CustomError)) (T, *errs.CustomError) {
	v, err, _ := s.flights.Do(key, func() (any, error) {
		res, cerr := fn()
		if cerr != nil {
			return res, cerr
		}
		return res, nil
	})

	res, _ := v.(T)
	if err == nil {
		return res, nil
	}

	var cerr *errs.CustomError
	if errors.As(err, &cerr) {
		return res, cerr
	}
	return res, errs.Internal(err)
}
