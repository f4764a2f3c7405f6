// Package jobs runs portal background work on an Asynq queue backed by Redis.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/confportal/conf-portal-api/pkg/mail"
	"github.com/confportal/conf-portal-api/pkg/notify"
)

// Dispatcher delivers one notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, req notify.Request) (*notify.Result, error)
}

// Mailer sends one templated email.
type Mailer interface {
	Send(ctx context.Context, to, subject string, tmpl mail.Template, data map[string]string) (string, error)
}

// JobService holds the Asynq client used to enqueue and the server that
// runs the workers.
type JobService struct {
	Client *asynq.Client
	server *asynq.Server
	logger *zerolog.Logger

	dispatcher Dispatcher
	mailer     Mailer
}

// NewJobService connects to database db of the Redis instance at redisURL,
// the same database the cache uses.
func NewJobService(logger *zerolog.Logger, redisURL string, db int) (*JobService, error) {
	opt, err := redisOpt(redisURL, db)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
			QueueLow:      1,
		},
		Logger:   asynqLogger{logger},
		LogLevel: asynq.WarnLevel,
	})

	return &JobService{
		Client: asynq.NewClient(opt),
		server: server,
		logger: logger,
	}, nil
}

func redisOpt(redisURL string, db int) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	switch o := opt.(type) {
	case asynq.RedisClientOpt:
		o.DB = db
		return o, nil
	case asynq.RedisFailoverClientOpt:
		o.DB = db
		return o, nil
	}
	return opt, nil
}

// InitHandlers sets what the task handlers delegate to. It must be called
// before Start.
func (j *JobService) InitHandlers(d Dispatcher, m Mailer) {
	j.dispatcher = d
	j.mailer = m
}

// Mux routes task types to handlers.
func (j *JobService) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskNotificationSend, j.handleNotificationTask)
	mux.HandleFunc(TaskEmailSend, j.handleEmailTask)
	return mux
}

// Start begins processing tasks in the background.
func (j *JobService) Start() error {
	if j.dispatcher == nil || j.mailer == nil {
		return errors.New("job handlers are not initialised")
	}
	j.logger.Info().Msg("Starting background job server")
	return j.server.Start(j.Mux())
}

// Stop waits for running tasks and closes the Redis connections.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Error().Err(err).Msg("Failed to close job client")
	}
}

// Queue returns an enqueuer bound to this service's client.
func (j *JobService) Queue() *Queue {
	return NewQueue(j.Client, *j.logger)
}

// asynqLogger routes Asynq's own logging into zerolog.
type asynqLogger struct {
	l *zerolog.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }
