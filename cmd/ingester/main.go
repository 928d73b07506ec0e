// ingester runs the event-label relay: it reconciles the labeler's
// published event catalog against an external listing, consumes the
// firehose for likes against that catalog, and serves signed labels
// over a subscribeLabels websocket.
//
// Usage:
//
//	./ingester -config ingester.toml
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/consfyi/bsky-event-ingester/internal/atclient"
	"github.com/consfyi/bsky-event-ingester/internal/config"
	"github.com/consfyi/bsky-event-ingester/internal/correlation"
	"github.com/consfyi/bsky-event-ingester/internal/firehose"
	"github.com/consfyi/bsky-event-ingester/internal/metrics"
	"github.com/consfyi/bsky-event-ingester/internal/reconciler"
	"github.com/consfyi/bsky-event-ingester/internal/signing"
	"github.com/consfyi/bsky-event-ingester/internal/store"
	"github.com/consfyi/bsky-event-ingester/internal/subserver"
)

const likeCollection = "app.bsky.feed.like"

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	configPath := flag.String("config", "ingester.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("ingester: load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("ingester: received %v, shutting down", sig)
		cancel()
	}()

	kp, err := signing.Load(cfg.KeypairPath)
	if err != nil {
		log.Fatalf("ingester: load keypair: %v", err)
	}
	labelerDID, err := kp.DID()
	if err != nil {
		log.Fatalf("ingester: derive labeler did: %v", err)
	}
	log.Printf("ingester: labeler did %s", labelerDID)

	st, err := store.Open(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("ingester: open store: %v", err)
	}
	defer st.Close()

	notifier := store.NewNotifier()
	corr := correlation.New()

	client, err := atclient.Login(ctx, cfg.BskyEndpoint, cfg.BskyUsername, cfg.BskyPassword)
	if err != nil {
		log.Fatalf("ingester: login: %v", err)
	}

	rec := reconciler.New(client, labelerDID, cfg.UIEndpoint, cfg.EventsURL, corr)

	// Run one reconciliation synchronously before serving anything, so
	// the correlation map and published catalog are never empty on a
	// cold start.
	if err := rec.Run(ctx); err != nil {
		log.Fatalf("ingester: initial reconcile: %v", err)
	}
	log.Printf("ingester: initial reconcile done, %d events tracked", corr.Len())

	startCursor, _, err := st.Cursor(ctx)
	if err != nil {
		log.Fatalf("ingester: load firehose cursor: %v", err)
	}

	cons := firehose.New(labelerDID, corr, st, notifier, kp, cfg.CommitFirehoseCursorEvery.Duration)

	e := echo.New()
	e.HideBanner = true
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	subsrv := subserver.New(st, notifier, cfg.AdminToken)
	subsrv.Register(e)

	g, gctx := errgroup.WithContext(ctx)

	// Subscription Server.
	g.Go(func() error {
		errCh := make(chan error, 1)
		go func() { errCh <- e.Start(cfg.IngesterBind) }()
		select {
		case <-gctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		case err := <-errCh:
			if err == http.ErrServerClosed {
				return nil
			}
			return err
		}
	})

	// DB-notification listener, fanning NOTIFY labels out to local
	// subscribers.
	g.Go(func() error {
		return notifier.Listen(gctx, st)
	})

	// Reconciler loop.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.LabelSyncDelay.Duration)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := rec.Run(gctx); err != nil {
					return err
				}
				log.Printf("ingester: reconcile done, %d events tracked", corr.Len())
			}
		}
	})

	// Firehose Consumer loop: fixed 1s reconnect, per SPEC_FULL.md §4.3.
	g.Go(func() error {
		cursor := startCursor
		for {
			select {
			case <-gctx.Done():
				return nil
			default:
			}

			c, err := firehose.Connect(gctx, firehose.Options{
				Endpoint:          cfg.JetstreamEndpoint,
				WantedCollections: []string{likeCollection},
				Cursor:            cursor,
				Compress:          true,
			})
			if err != nil {
				log.Printf("ingester: firehose connect: %v", err)
				metrics.FirehoseReconnects.Inc()
				select {
				case <-gctx.Done():
					return nil
				case <-time.After(time.Second):
				}
				continue
			}

			newCursor, runErr := cons.Run(gctx, c, cursor)
			cursor = newCursor
			c.Close()

			if runErr != nil {
				log.Printf("ingester: firehose run: %v", runErr)
			}
			if gctx.Err() != nil {
				return nil
			}
			metrics.FirehoseReconnects.Inc()
			select {
			case <-gctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("ingester: %v", err)
	}
	log.Println("ingester: stopped")
}
