package worker

import (
	"context"
	"encoding/json"
	"time"

	"nal/internal/models"
	"nal/internal/repository"
	"nal/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const TypeNotificationDeliver = "notification:deliver"

type notificationPayload struct {
	UserID uint                   `json:"user_id"`
	Type   string                 `json:"type"`
	Title  string                 `json:"title"`
	Body   string                 `json:"body"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// Dispatcher enqueues notification tasks; it satisfies service.Notifier.
// Enqueue failures are logged and dropped, notifications are best effort.
type Dispatcher struct {
	client *asynq.Client
}

func NewDispatcher(redis asynq.RedisClientOpt) *Dispatcher {
	return &Dispatcher{client: asynq.NewClient(redis)}
}

func (d *Dispatcher) Notify(userID uint, notifType, title, body string, data map[string]interface{}) {
	b, err := json.Marshal(notificationPayload{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   data,
	})
	if err != nil {
		return
	}
	task := asynq.NewTask(TypeNotificationDeliver, b)
	if _, err := d.client.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(30*time.Second)); err != nil {
		logger.Get().Warn("failed to enqueue notification",
			zap.Uint("user", userID), zap.String("type", notifType), zap.Error(err))
	}
}

func (d *Dispatcher) Close() error { return d.client.Close() }

// Server consumes notification tasks and persists them.
type Server struct {
	srv  *asynq.Server
	repo *repository.NotificationRepository
}

func NewServer(redis asynq.RedisClientOpt, repo *repository.NotificationRepository) *Server {
	srv := asynq.NewServer(redis, asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
	})
	return &Server{srv: srv, repo: repo}
}

// Start runs the worker in the background.
func (s *Server) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotificationDeliver, s.handleDeliver)
	go func() {
		if err := s.srv.Run(mux); err != nil {
			logger.Get().Error("notification worker stopped", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown() { s.srv.Shutdown() }

func (s *Server) handleDeliver(ctx context.Context, task *asynq.Task) error {
	var p notificationPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		logger.Get().Error("invalid notification payload", zap.Error(err))
		return err
	}
	n := &models.Notification{
		UserID: p.UserID,
		Type:   p.Type,
		Title:  p.Title,
		Body:   p.Body,
	}
	if p.Data != nil {
		if raw, err := json.Marshal(p.Data); err == nil {
			n.Data = datatypes.JSON(raw)
		}
	}
	return s.repo.Create(n)
}
