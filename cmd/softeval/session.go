package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crystal-mush/softeval/pkg/boltstore"
	"github.com/crystal-mush/softeval/pkg/conf"
	"github.com/crystal-mush/softeval/pkg/eval"
	"github.com/crystal-mush/softeval/pkg/eval/functions"
	"github.com/crystal-mush/softeval/pkg/events"
	"github.com/crystal-mush/softeval/pkg/gamedb"
	"github.com/crystal-mush/softeval/pkg/metrics"
)

// shutdownGrace bounds how long Close waits for metrics requests in flight.
var shutdownGrace = time.Second

// session is one evaluator over one world. The mutex serializes
// evaluation against config reloads.
type session struct {
	mu      sync.Mutex
	conf    *conf.Conf
	store   *boltstore.Store // nil for the in-memory minimal world
	db      *gamedb.Database
	ctx     *eval.EvalContext
	bus     *events.Bus
	metrics *metrics.Metrics
	out     io.Writer
	srv     *http.Server
}

func openSession(opts *options, out io.Writer) (*session, error) {
	c := conf.Default()
	if opts.config != "" {
		var err error
		if c, err = conf.Load(opts.config); err != nil {
			return nil, err
		}
	}
	if opts.db != "" {
		c.Database = opts.db
	}
	if opts.metricsAddr != "" {
		c.MetricsAddr = opts.metricsAddr
	}

	s := &session{conf: c, out: out, bus: events.NewBus()}
	if c.Database != "" {
		store, err := boltstore.OpenWorld(c.Database)
		if err != nil {
			return nil, err
		}
		s.store = store
		s.db = store.DB()
	} else {
		s.db = gamedb.Minimal()
	}

	s.ctx = eval.NewEvalContext(s.db, c.Eval())
	functions.RegisterAll(s.ctx)
	for _, def := range s.db.UFuncList() {
		s.ctx.Funcs.DefineUFunction(*def)
	}
	s.ctx.Notifier = s.bus
	s.bus.SubscribeGlobal(events.SubscriberFunc(s.print))

	player, err := s.resolve(opts.player)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.setPlayer(player)
	if opts.trace {
		s.setTrace(true)
	}

	if c.MetricsAddr != "" {
		if err := s.serveMetrics(c.MetricsAddr); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) print(ev events.Event) {
	switch ev.Type {
	case events.EvTrace:
		fmt.Fprintf(s.out, "  [trace %s]: %s\n", ev.Player, ev.Text)
	default:
		fmt.Fprintf(s.out, "  [notify %s]: %s\n", ev.Player, ev.Text)
	}
}

func (s *session) serveMetrics(addr string) error {
	m, err := metrics.New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, time.Now())
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	s.metrics = m
	s.ctx.Observer = m

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	s.srv = &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics: listener on %s: %v", addr, err)
		}
	}()
	log.Printf("metrics: serving on %s/metrics", addr)
	return nil
}

// watch applies config file changes until ctx is done.
func (s *session) watch(ctx context.Context, path string) error {
	return conf.Watch(ctx, path, func(c *conf.Conf) {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.Database, c.MetricsAddr = s.conf.Database, s.conf.MetricsAddr
		s.conf = c
		s.ctx.ApplyConfig(c.Eval())
	})
}

// Eval runs expr as a fresh top-level command.
func (s *session) Eval(expr string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	s.ctx.BeginCommand(expr)
	s.ctx.RData = nil
	result := s.ctx.Exec(expr, eval.EvFCheck|eval.EvEval|eval.EvTop, nil)
	if s.metrics != nil {
		s.metrics.ObserveEvaluation(time.Since(start))
	}
	return result
}

// resolve reads "#n", "n" or a player name.
func (s *session) resolve(spec string) (gamedb.DBRef, error) {
	spec = strings.TrimSpace(spec)
	if n, err := strconv.Atoi(strings.TrimPrefix(spec, "#")); err == nil {
		ref := gamedb.DBRef(n)
		if _, ok := s.db.Object(ref); !ok {
			return gamedb.Nothing, fmt.Errorf("no object %s", ref)
		}
		return ref, nil
	}
	if s.store != nil {
		return s.store.LookupPlayer(spec)
	}
	for _, obj := range s.db.Objects {
		if obj.ObjType() == gamedb.TypePlayer && strings.EqualFold(obj.Name, spec) {
			return obj.DBRef, nil
		}
	}
	return gamedb.Nothing, fmt.Errorf("no player named %q", spec)
}

func (s *session) setPlayer(ref gamedb.DBRef) {
	s.ctx.Player, s.ctx.Caller, s.ctx.Cause = ref, ref, ref
}

// setTrace toggles TRACE on the executor in memory only.
func (s *session) setTrace(on bool) {
	if obj, ok := s.db.Object(s.ctx.Player); ok {
		obj.SetFlag(gamedb.FlagTrace, on)
	}
}

// needStore returns the bolt store, or an error for the in-memory world.
func (s *session) needStore() (*boltstore.Store, error) {
	if s.store == nil {
		return nil, errors.New("this command needs --db or a database config key")
	}
	return s.store, nil
}

func (s *session) Close() {
	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		if err := s.srv.Shutdown(ctx); err != nil {
			log.Printf("metrics: shutdown: %v", err)
		}
		cancel()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("boltstore: close: %v", err)
		}
	}
}
