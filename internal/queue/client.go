package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

type Client struct {
	client *asynq.Client
}

// RedisOpt is shared by the client and the worker server.
func RedisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
}

func NewClient(opt asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueImport(payload ImportPayload) error {
	task, err := NewImportTask(payload)
	if err != nil {
		return err
	}
	if _, err := c.client.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(5*time.Minute)); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeInvoiceImport, err)
	}
	return nil
}

func NewImportTask(payload ImportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeInvoiceImport, data), nil
}
