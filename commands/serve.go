package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/compute/metadata"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/netutil"

	"github.com/nacionrock/album-votes/events"
	"github.com/nacionrock/album-votes/httpd"
	"github.com/nacionrock/album-votes/metrics"
	"github.com/nacionrock/album-votes/session"
	"github.com/nacionrock/album-votes/store"
	"github.com/nacionrock/album-votes/vote"
)

const ENV_PREFIX = "ALBUM_VOTES"

var ServeCmd = Serve{
	command:        newCommand(),
	bind:           DEFAULT_BIND,
	ttl:            store.DefaultTTL,
	sessionTTL:     session.DefaultTTL,
	kafka:          "",
	topic:          events.DefaultTopic,
	maxConnections: 1024,
}

type Serve struct {
	command
	bind           string
	ttl            time.Duration
	sessionTTL     time.Duration
	kafka          string
	topic          string
	maxConnections int
}

// environment holds the ALBUM_VOTES_xxx overrides for a container deployment.
// An override only applies to an option left at its default value.
type environment struct {
	Bind        string        `envconfig:"bind"`
	Store       string        `envconfig:"store"`
	File        string        `envconfig:"file"`
	URL         string        `envconfig:"url"`
	Worksheet   string        `envconfig:"worksheet"`
	Credentials string        `envconfig:"credentials"`
	DSN         string        `envconfig:"dsn"`
	Redis       string        `envconfig:"redis"`
	Kafka       string        `envconfig:"kafka"`
	Topic       string        `envconfig:"topic"`
	TTL         time.Duration `envconfig:"ttl"`
}

func (cmd *Serve) Name() string {
	return "serve"
}

func (cmd *Serve) Description() string {
	return "Runs the album voting web page"
}

func (cmd *Serve) Usage() string {
	return "--store <store> [store options] [--bind <address>]"
}

func (cmd *Serve) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] serve [options]\n", APP)
	fmt.Println()
	fmt.Println("  Serves the voting page, the JSON API and the live leaderboard websocket. Options")
	fmt.Printf("  left at their defaults can be set with %s_xxx environment variables.\n", ENV_PREFIX)
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s serve --store sheets --credentials "service-account.json" \`+"\n", APP)
	fmt.Println(`                 --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                 --bind "0.0.0.0:8080" --kafka "localhost:9092"`)
	fmt.Println()
}

func (cmd *Serve) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("serve")

	flagset.StringVar(&cmd.bind, "bind", cmd.bind, "HTTP server address")
	flagset.DurationVar(&cmd.ttl, "ttl", cmd.ttl, "Lifetime of the shared table cache")
	flagset.DurationVar(&cmd.sessionTTL, "session-ttl", cmd.sessionTTL, "Idle time after which a session is discarded")
	flagset.StringVar(&cmd.kafka, "kafka", cmd.kafka, "Comma separated Kafka brokers for vote events. Events are not published if empty")
	flagset.StringVar(&cmd.topic, "topic", cmd.topic, "Kafka topic for vote events")
	flagset.IntVar(&cmd.maxConnections, "max-connections", cmd.maxConnections, "Maximum number of simultaneous HTTP connections (0 for no limit)")

	return flagset
}

func (cmd *Serve) Execute(args ...any) error {
	ctx, options := arguments(args...)

	cmd.debug = options.Debug

	var env environment
	if err := envconfig.Process(ENV_PREFIX, &env); err != nil {
		return fmt.Errorf("invalid environment (%v)", err)
	}

	cmd.configure(env)

	if metadata.OnGCE() {
		if port := os.Getenv("PORT"); port != "" {
			cmd.bind = ":" + port
		}
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return cmd.run(ctx)
}

func (cmd *Serve) configure(env environment) {
	defaults := newCommand()

	override := func(field *string, value, initial string) {
		if value != "" && *field == initial {
			*field = value
		}
	}

	override(&cmd.bind, env.Bind, DEFAULT_BIND)
	override(&cmd.store, env.Store, defaults.store)
	override(&cmd.file, env.File, defaults.file)
	override(&cmd.url, env.URL, defaults.url)
	override(&cmd.worksheet, env.Worksheet, defaults.worksheet)
	override(&cmd.credentials, env.Credentials, defaults.credentials)
	override(&cmd.dsn, env.DSN, defaults.dsn)
	override(&cmd.redis, env.Redis, defaults.redis)
	override(&cmd.kafka, env.Kafka, "")
	override(&cmd.topic, env.Topic, events.DefaultTopic)

	if env.TTL > 0 && cmd.ttl == store.DefaultTTL {
		cmd.ttl = env.TTL
	}
}

func (cmd *Serve) run(ctx context.Context) error {
	s, closer, err := cmd.open(ctx)
	if err != nil {
		return err
	}

	defer closer()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	publisher, err := cmd.publisher()
	if err != nil {
		return err
	}

	defer publisher.Close()

	hub := httpd.NewHub()
	sessions := session.NewManager(cmd.sessionTTL)
	votes := vote.NewService(store.NewCache(s, cmd.ttl), publisher, metrics.New(registry, "album_votes"), cmd.debug)

	server, err := httpd.NewServer(votes, sessions, hub, registry, cmd.debug)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cmd.bind)
	if err != nil {
		return fmt.Errorf("error binding to %v (%v)", cmd.bind, err)
	}

	if cmd.maxConnections > 0 {
		listener = netutil.LimitListener(listener, cmd.maxConnections)
	}

	srv := http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go hub.Run(ctx)
	go prune(ctx, sessions, cmd.sessionTTL, cmd.debug)

	errs := make(chan error, 1)
	go func() {
		infof("serving %v on %v", s, listener.Addr())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case <-ctx.Done():
		infof("shutting down")

	case err := <-errs:
		return fmt.Errorf("HTTP server error (%v)", err)
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdown); err != nil {
		warnf("%v", err)
	}

	return nil
}

func (cmd *Serve) publisher() (events.Publisher, error) {
	brokers := []string{}
	for _, b := range strings.Split(cmd.kafka, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	if len(brokers) == 0 {
		return events.Nop{}, nil
	}

	k, err := events.NewKafka(brokers, cmd.topic)
	if err != nil {
		return nil, err
	}

	infof("publishing vote events to %v (topic %v)", strings.Join(brokers, ","), cmd.topic)

	return k, nil
}

func prune(ctx context.Context, sessions *session.Manager, ttl time.Duration, debug bool) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if n := sessions.Prune(); n > 0 && debug {
				debugf("pruned %v idle sessions (%v active)", n, sessions.Len())
			}
		}
	}
}
