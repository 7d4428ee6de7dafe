// Package session owns "who is the current user" for one browser session:
// the bearer credential, the identity behind it, and their persistence
// across reloads.  Every other component reads it; only the Store's own
// methods mutate it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/sportsvenue-portal/internal/apiclient"
	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

var (
	// ErrInvalidLogin: empty credential, identity without id, or an
	// expired credential was supplied to Login.
	ErrInvalidLogin = errors.New("session: invalid login data")
	// ErrVerificationFailed: the server did not confirm the identity.
	ErrVerificationFailed = errors.New("session: user verification failed")
	// ErrSuperseded: another session operation started while this one was
	// waiting on the network; its result was dropped.
	ErrSuperseded = errors.New("session: operation superseded")
)

const bootstrapTimeout = 15 * time.Second

// Store is safe for concurrent use.  Subscribers run synchronously after
// each transition and must not call Store mutators.
type Store struct {
	base    *apiclient.Client
	persist Persister
	log     zerolog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	state State
	epoch uint64

	// commitMu orders persistence writes and notifications.
	commitMu sync.Mutex
	subs     map[int]func(State)
	nextSub  int

	bootOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l zerolog.Logger) Option { return func(s *Store) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// NewStore returns a store in PhaseLoading.  base must be unauthenticated;
// the store attaches credentials itself.
func NewStore(base *apiclient.Client, p Persister, opts ...Option) *Store {
	s := &Store{
		base:    base,
		persist: p,
		log:     zerolog.Nop(),
		now:     time.Now,
		state:   State{Phase: PhaseLoading},
		subs:    map[int]func(State){},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Token implements apiclient.TokenSource.  It is empty unless an identity
// is present too.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// API returns a client that carries this session's credential on every
// call, following logins and logouts.
func (s *Store) API() *apiclient.Client {
	return s.base.WithTokenSource(s)
}

// Subscribe registers fn for every future transition.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.commitMu.Lock()
		defer s.commitMu.Unlock()
		delete(s.subs, id)
	}
}

// begin starts a new operation; results of older operations are dropped.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

func (s *Store) current(epoch uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch == epoch
}

// commit runs write and then publishes next, both only if epoch is still
// current.  The state is published even when write fails.
func (s *Store) commit(ctx context.Context, epoch uint64, next State, write func(context.Context) error) (bool, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if !s.current(epoch) {
		return false, nil
	}
	var werr error
	if write != nil {
		werr = write(ctx)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false, werr
	}
	s.state = next
	s.mu.Unlock()

	for _, fn := range s.subs {
		fn(next.clone())
	}
	return true, werr
}

func (s *Store) clear(ctx context.Context, epoch uint64) bool {
	ok, err := s.commit(ctx, epoch, anonymous(), s.persist.Clear)
	if err != nil {
		s.log.Warn().Err(err).Msg("session: clear persisted credential")
	}
	return ok
}

// EnsureBootstrapped runs Bootstrap once for the lifetime of the store.
// The run is detached from ctx cancellation so an abandoned request cannot
// wipe the session halfway through verification.
func (s *Store) EnsureBootstrapped(ctx context.Context) {
	s.bootOnce.Do(func() {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bootstrapTimeout)
		defer cancel()
		if err := s.Bootstrap(bctx); err != nil {
			s.log.Info().Err(err).Msg("session: bootstrap ended logged out")
		}
	})
}

// Bootstrap rehydrates the session from the persister.  A cached identity
// is adopted optimistically, then GET /users/me decides: its identity
// replaces the cached one, and any failure clears everything.  The
// returned error only explains why the session ended logged out.
func (s *Store) Bootstrap(ctx context.Context) error {
	epoch := s.begin()
	if _, err := s.commit(ctx, epoch, State{Phase: PhaseLoading}, nil); err != nil {
		return err
	}

	rec, err := s.persist.Load(ctx)
	if err != nil {
		s.clear(ctx, epoch)
		return fmt.Errorf("load persisted session: %w", err)
	}
	if rec.Token == "" {
		s.clear(ctx, epoch)
		return nil
	}
	if tokenExpired(rec.Token, s.now()) {
		s.clear(ctx, epoch)
		return fmt.Errorf("%w: persisted credential expired", ErrVerificationFailed)
	}

	if rec.User.Valid() {
		s.commit(ctx, epoch, State{Phase: PhaseOptimistic, Token: rec.Token, User: rec.User}, nil)
	}

	id, err := s.base.WithToken(rec.Token).Me(ctx)
	if err == nil && !id.Valid() {
		err = errors.New("identity payload without id")
	}
	if err != nil {
		if !s.clear(ctx, epoch) {
			return ErrSuperseded
		}
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	ok, werr := s.commit(ctx, epoch, State{Phase: PhaseVerified, Token: rec.Token, User: &id}, func(ctx context.Context) error {
		return s.persist.SaveIdentity(ctx, id)
	})
	if werr != nil {
		s.log.Warn().Err(werr).Msg("session: persist verified identity")
	}
	if !ok {
		return ErrSuperseded
	}
	s.log.Debug().Int64("user_id", id.ID).Msg("session: verified")
	return nil
}

// Login adopts a credential/identity pair and immediately asks the server
// to confirm it.  If the server's identity differs, or the check fails,
// the store is rolled back to logged out.
func (s *Store) Login(ctx context.Context, token string, identity model.Identity) error {
	epoch := s.begin()
	if token == "" || !identity.Valid() {
		s.clear(ctx, epoch)
		return ErrInvalidLogin
	}
	if tokenExpired(token, s.now()) {
		s.clear(ctx, epoch)
		return fmt.Errorf("%w: credential expired", ErrInvalidLogin)
	}

	ok, werr := s.commit(ctx, epoch, State{Phase: PhaseOptimistic, Token: token, User: &identity}, func(ctx context.Context) error {
		if err := s.persist.SaveToken(ctx, token); err != nil {
			return err
		}
		return s.persist.SaveIdentity(ctx, identity)
	})
	if werr != nil {
		s.log.Warn().Err(werr).Msg("session: persist credential")
	}
	if !ok {
		return ErrSuperseded
	}

	me, err := s.base.WithToken(token).Me(ctx)
	if err != nil {
		if !s.clear(ctx, epoch) {
			return ErrSuperseded
		}
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	if me.ID != identity.ID {
		if !s.clear(ctx, epoch) {
			return ErrSuperseded
		}
		return fmt.Errorf("%w: server returned user %d, expected %d", ErrVerificationFailed, me.ID, identity.ID)
	}

	ok, werr = s.commit(ctx, epoch, State{Phase: PhaseVerified, Token: token, User: &me}, func(ctx context.Context) error {
		return s.persist.SaveIdentity(ctx, me)
	})
	if werr != nil {
		s.log.Warn().Err(werr).Msg("session: persist verified identity")
	}
	if !ok {
		return ErrSuperseded
	}
	s.log.Info().Int64("user_id", me.ID).Str("role", me.Role).Msg("session: logged in")
	return nil
}

// LoginWithPassword obtains a credential from POST /auth/login and then
// behaves like Login.  A rejected password leaves the store untouched.
func (s *Store) LoginWithPassword(ctx context.Context, username, password string) error {
	res, err := s.base.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return s.Login(ctx, res.Token, res.User)
}

// Logout clears the credential, identity and persisted record.  It is
// idempotent and wins over any operation still waiting on the network.
func (s *Store) Logout(ctx context.Context) error {
	epoch := s.begin()
	_, err := s.commit(ctx, epoch, anonymous(), s.persist.Clear)
	if err != nil {
		s.log.Warn().Err(err).Msg("session: clear persisted credential")
	}
	return err
}
