package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// Client encola tareas.
type Client struct {
	client *asynq.Client
}

// NewClient construye el cliente asynq.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueuePosSync encola la sincronización de un negocio. Una solicitud repetida dentro del
// mismo minuto se rechaza con asynq.ErrDuplicateTask.
func (c *Client) EnqueuePosSync(ctx context.Context, businessID int64) (*asynq.TaskInfo, error) {
	task, err := NewPosSyncTask(businessID)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Unique(time.Minute))
}

// Close libera el cliente.
func (c *Client) Close() error {
	return c.client.Close()
}
