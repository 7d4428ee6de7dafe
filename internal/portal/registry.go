package portal

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/sportsvenue-portal/internal/apiclient"
	"github.com/iliyamo/sportsvenue-portal/internal/booking"
	"github.com/iliyamo/sportsvenue-portal/internal/payment"
	"github.com/iliyamo/sportsvenue-portal/internal/session"
	"github.com/iliyamo/sportsvenue-portal/internal/venue"
)

const defaultIdle = 30 * time.Minute

// Registry maps browser session ids to workspaces.
type Registry struct {
	base     *apiclient.Client
	ledger   payment.Ledger
	notifier payment.Notifier
	log      zerolog.Logger
	now      func() time.Time
	idle     time.Duration

	rdb    *redis.Client
	sealer *session.Sealer
	prefix string
	ttl    time.Duration

	mu    sync.Mutex
	items map[string]*Workspace
}

type Option func(*Registry)

func WithLogger(l zerolog.Logger) Option { return func(r *Registry) { r.log = l } }

func WithClock(now func() time.Time) Option { return func(r *Registry) { r.now = now } }

// WithIdle sets how long a workspace may go unused before eviction.
func WithIdle(d time.Duration) Option { return func(r *Registry) { r.idle = d } }

func WithNotifier(n payment.Notifier) Option { return func(r *Registry) { r.notifier = n } }

// WithRedis persists sessions in Redis, sealed with secret.  A nil rdb
// keeps them in memory.
func WithRedis(rdb *redis.Client, secret, prefix string, ttl time.Duration) Option {
	return func(r *Registry) {
		if rdb == nil {
			return
		}
		r.rdb = rdb
		r.sealer = session.NewSealer(secret)
		r.prefix = prefix
		r.ttl = ttl
	}
}

// NewRegistry wires workspaces against base, an unauthenticated client,
// and ledger.
func NewRegistry(base *apiclient.Client, ledger payment.Ledger, opts ...Option) *Registry {
	r := &Registry{
		base:   base,
		ledger: ledger,
		log:    zerolog.Nop(),
		now:    time.Now,
		idle:   defaultIdle,
		items:  map[string]*Workspace{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Get returns the workspace for sid, creating it on first use.
func (r *Registry) Get(sid string) *Workspace {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[sid]
	if !ok {
		w = r.build(sid)
		r.items[sid] = w
		r.log.Debug().Str("sid", sid).Msg("workspace opened")
	}
	w.touch(now)
	return w
}

func (r *Registry) build(sid string) *Workspace {
	log := r.log.With().Str("sid", sid).Logger()
	store := session.NewStore(r.base, r.persister(sid), session.WithLogger(log), session.WithClock(r.now))
	api := store.API()
	venues := venue.NewService(api, log)
	w := &Workspace{
		ID:     sid,
		Store:  store,
		Venues: venues,
		log:    log,
	}
	w.newBooking = func() *booking.Flow {
		return booking.New(store, venues, api, booking.WithLogger(log), booking.WithClock(r.now))
	}
	popts := []payment.Option{payment.WithLogger(log), payment.WithClock(r.now)}
	if r.notifier != nil {
		popts = append(popts, payment.WithNotifier(r.notifier))
	}
	w.newPayment = func() *payment.Flow {
		return payment.New(store, api, r.ledger, popts...)
	}
	return w
}

func (r *Registry) persister(sid string) session.Persister {
	if r.rdb == nil {
		return session.NewMemoryPersister()
	}
	return session.NewRedisPersister(r.rdb, r.sealer, r.prefix, sid, r.ttl)
}

// Len reports the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep closes and drops workspaces idle for longer than the idle limit.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idle)
	var evicted []*Workspace
	r.mu.Lock()
	for sid, w := range r.items {
		if w.idleSince().Before(cutoff) {
			delete(r.items, sid)
			evicted = append(evicted, w)
		}
	}
	r.mu.Unlock()

	for _, w := range evicted {
		w.Close()
	}
	if len(evicted) > 0 {
		r.log.Info().Int("evicted", len(evicted)).Msg("idle workspaces evicted")
	}
	return len(evicted)
}

// Run sweeps periodically until ctx is done, then closes every workspace.
func (r *Registry) Run(ctx context.Context) {
	every := r.idle / 4
	if every < time.Second {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	items := r.items
	r.items = map[string]*Workspace{}
	r.mu.Unlock()
	for _, w := range items {
		w.Close()
	}
}
