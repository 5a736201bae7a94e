package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wholesale-portal/internal/config"
	"github.com/wholesale-portal/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// expiryGrace 到期任务在截止时间之后稍作延迟，避免与时钟误差竞争
	expiryGrace = 5 * time.Second
)

// Client 队列客户端封装
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
	now          func() time.Time
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue, now: time.Now}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:       client,
		enabled:      true,
		defaultQueue: DefaultQueue,
		now:          time.Now,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueCloseoutExpiry 在清单截止时间之后投递清理任务；同一清单重复投递会被忽略
func (c *Client) EnqueueCloseoutExpiry(companyID uint, listID string, expiresAt time.Time) error {
	if !c.Enabled() {
		return nil
	}
	payload := CloseoutListExpiredPayload{CompanyID: companyID, ListID: strings.TrimSpace(listID)}
	if payload.CompanyID == 0 || payload.ListID == "" {
		return fmt.Errorf("invalid closeout expiry payload: company=%d list=%q", companyID, listID)
	}
	task, err := NewCloseoutListExpiredTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task, closeoutExpiryOptions(c.defaultQueue, payload, expiresAt, c.now())...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func closeoutExpiryOptions(queue string, payload CloseoutListExpiredPayload, expiresAt, now time.Time) []asynq.Option {
	delay := expiresAt.Sub(now) + expiryGrace
	if delay < 0 {
		delay = 0
	}
	return []asynq.Option{
		asynq.Queue(queue),
		asynq.ProcessIn(delay),
		asynq.TaskID(closeoutExpiryTaskID(payload)),
		asynq.Retention(time.Hour),
		asynq.MaxRetry(3),
	}
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
