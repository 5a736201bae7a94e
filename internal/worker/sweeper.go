package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/wholesale-portal/internal/logger"
)

// Sweeper 周期性清理过期特卖行并释放空闲公司
type Sweeper interface {
	SweepAll() int
}

// SweepService 特卖过期兜底扫描；队列未启用时是唯一的清理入口
type SweepService struct {
	name     string
	sweeper  Sweeper
	interval time.Duration
	started  atomic.Bool
	done     chan struct{}
}

// NewSweepService 创建扫描服务
func NewSweepService(sweeper Sweeper, interval time.Duration) (*SweepService, error) {
	if sweeper == nil {
		return nil, errors.New("sweeper is nil")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweepService{
		name:     "sweeper",
		sweeper:  sweeper,
		interval: interval,
		done:     make(chan struct{}),
	}, nil
}

// Name 服务名称
func (s *SweepService) Name() string {
	if s == nil || s.name == "" {
		return "sweeper"
	}
	return s.name
}

// Start 启动扫描循环，直到 ctx 取消
func (s *SweepService) Start(ctx context.Context) error {
	if s == nil || s.sweeper == nil {
		return errors.New("sweeper not initialized")
	}
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("sweeper already started")
	}
	defer close(s.done)

	runOnce := func() {
		if evicted := s.sweeper.SweepAll(); evicted > 0 {
			logger.Infow("worker_closeout_sweep_evicted", "evicted", evicted)
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			runOnce()
		}
	}
}

// Stop 等待扫描循环退出
func (s *SweepService) Stop(ctx context.Context) error {
	if s == nil || !s.started.Load() {
		return nil
	}
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
