package companion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/trip-companion/internal/config"
	"github.com/magabrotheeeer/trip-companion/internal/lib/apiclient"
	"github.com/magabrotheeeer/trip-companion/internal/lib/sl"
	"github.com/magabrotheeeer/trip-companion/internal/metrics"
	"github.com/magabrotheeeer/trip-companion/internal/rabbitmq"
	"github.com/magabrotheeeer/trip-companion/internal/services/favourites"
	"github.com/magabrotheeeer/trip-companion/internal/services/notification"
	"github.com/magabrotheeeer/trip-companion/internal/services/session"
	"github.com/magabrotheeeer/trip-companion/internal/storage/tokenstore"
)

// consumerConcurrency ограничивает число одновременно обрабатываемых событий.
const consumerConcurrency = 4

type App struct {
	cfg     *config.Config
	server  *http.Server
	logger  *slog.Logger
	tokens  tokenstore.Store
	session *session.Store
	feed    *notification.Feed
	popup   *notification.Popup
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	tokens, err := tokenstore.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := apiclient.New(cfg.BaseURL, cfg.TimeoutBackend, tokens, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	sessionStore := session.New(client, tokens, logger, cfg.ResolveTimeout)
	sessionStore.OnLogin = func(o session.Outcome) {
		m.LoginObserved(string(o))
	}

	feed := notification.NewFeed(logger, notification.Options{
		GeneratorEnabled:  cfg.GeneratorEnabled,
		GeneratorMinDelay: cfg.GeneratorMinDelay,
		GeneratorMaxDelay: cfg.GeneratorMaxDelay,
		RefreshInterval:   cfg.RefreshInterval,
		RelabelDelay:      cfg.RelabelDelay,
		Recorder:          m,
	})
	m.ObserveUnread(feed.UnreadCount)
	popup := notification.NewPopup(feed, cfg.PopupDisplay, logger)

	streamCtx, stopStreams := context.WithCancel(context.Background())

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Session:     sessionStore,
		Favourites:  favourites.New(),
		Feed:        feed,
		Popup:       popup,
		Remote:      client,
		Gatherer:    registry,
		CORSOrigins: cfg.CORSOrigins,
		LoginRate:   cfg.LoginRate,
		LoginBurst:  cfg.LoginBurst,
		StreamStop:  streamCtx.Done(),
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	// Shutdown ждёт завершения запросов, открытые потоки закрываем сразу.
	srv.RegisterOnShutdown(stopStreams)

	return &App{
		cfg:     cfg,
		server:  srv,
		logger:  logger,
		tokens:  tokens,
		session: sessionStore,
		feed:    feed,
		popup:   popup,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	// Сессия проверяется до старта сервера, проверку ограничивает resolve_timeout.
	a.session.ResolveExistingSession(ctx)
	a.feed.Start(ctx)

	consumeCtx, stopConsume := context.WithCancel(ctx)
	defer stopConsume()
	consumerDone, closeBroker, err := a.startConsumer(consumeCtx)
	if err != nil {
		a.close()
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	// Начатые обработчики должны успеть подтвердить сообщения до закрытия канала.
	stopConsume()
	<-consumerDone
	closeBroker()
	a.close()
	return err
}

// startConsumer подключает приём событий из брокера, если он настроен.
func (a *App) startConsumer(ctx context.Context) (<-chan struct{}, func(), error) {
	idle := make(chan struct{})
	close(idle)
	if a.cfg.RabbitMQURL == "" {
		a.logger.Info("event ingest disabled")
		return idle, func() {}, nil
	}

	conn, err := rabbitmq.Connect(ctx, a.cfg.RabbitMQURL, a.cfg.RabbitMQMaxRetries, a.cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.EventQueues(a.cfg.RabbitMQ), consumerConcurrency)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	done, err := rabbitmq.ConsumerMessage(ctx, ch, a.cfg.EventsQueue, consumerConcurrency, a.logger, a.ingest)
	if err != nil {
		closeAMQP(a.logger, conn, ch)
		return nil, nil, err
	}

	a.logger.Info("event ingest started", slog.String("queue", a.cfg.EventsQueue))
	return done, func() { closeAMQP(a.logger, conn, ch) }, nil
}

func closeAMQP(logger *slog.Logger, conn *amqp.Connection, ch *amqp.Channel) {
	if err := ch.Close(); err != nil {
		logger.Error("failed to close channel", sl.Err(err))
	}
	if err := conn.Close(); err != nil {
		logger.Error("failed to close connection", sl.Err(err))
	}
}

// close останавливает фоновые задачи и освобождает хранилище токена.
func (a *App) close() {
	a.popup.Close()
	a.feed.Close()
	if err := a.tokens.Close(); err != nil {
		a.logger.Error("failed to close token storage", sl.Err(err))
	}
}

// ingest передаёт событие из брокера в ленту. Некорректные события
// отбрасываются, повторная доставка их не исправит.
func (a *App) ingest(body []byte) error {
	err := a.feed.HandleEvent(body)
	if errors.Is(err, notification.ErrInvalidEvent) || errors.Is(err, notification.ErrUnknownType) {
		return fmt.Errorf("%w: %w", rabbitmq.ErrDiscard, err)
	}
	return err
}
