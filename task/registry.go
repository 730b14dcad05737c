// Package task 管理异步排序任务（例如批量城市排序）的状态。
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Open-Earth-Foundation/CityCatalyst-sub000/core"
)

// Status 是任务状态。
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Task 是一个异步任务。从 Store 读回时 Result 为 JSON 解码后的通用结构。
type Task struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Registry 是任务注册表：内存中保存全部任务，可选写入 core.Store
// 使多实例部署时任意实例都能查询任务状态。
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	wg    sync.WaitGroup

	store  core.Store
	ttl    int // 秒，0 表示不过期
	logger *zap.Logger
	now    func() time.Time
}

// Option Registry 配置选项
type Option func(*Registry)

// WithStore 将任务状态同步写入 Store，ttlSeconds 为保存时长。
func WithStore(s core.Store, ttlSeconds int) Option {
	return func(r *Registry) {
		r.store = s
		r.ttl = ttlSeconds
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tasks:  make(map[string]*Task),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func notFound(id string) error {
	return core.NewDomainError(core.ModuleTask, core.ErrorCodeNotFound, fmt.Sprintf("task: %q not found", id))
}

func storeKey(id string) string { return "task:" + id }

// Create 创建一个 pending 状态的任务。
func (r *Registry) Create(ctx context.Context) (*Task, error) {
	now := r.now()
	t := &Task{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.mu.Lock()
	r.tasks[t.ID] = t
	snapshot := *t
	r.mu.Unlock()

	if err := r.persist(ctx, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Get 返回任务快照；内存中没有时从 Store 读取。
func (r *Registry) Get(ctx context.Context, id string) (*Task, error) {
	r.mu.RLock()
	t, ok := r.tasks[id]
	var snapshot Task
	if ok {
		snapshot = *t
	}
	r.mu.RUnlock()
	if ok {
		return &snapshot, nil
	}

	if r.store == nil {
		return nil, notFound(id)
	}
	data, err := r.store.Get(ctx, storeKey(id))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, notFound(id)
		}
		return nil, err
	}
	var loaded Task
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("task: decode %s: %w", id, err)
	}
	return &loaded, nil
}

// Start 将任务标记为 running。
func (r *Registry) Start(ctx context.Context, id string) error {
	return r.update(ctx, id, func(t *Task) {
		t.Status = StatusRunning
	})
}

// Complete 记录结果并将任务标记为 completed。
func (r *Registry) Complete(ctx context.Context, id string, result any) error {
	return r.update(ctx, id, func(t *Task) {
		t.Status = StatusCompleted
		t.Result = result
		t.Error = ""
	})
}

// Fail 记录错误并将任务标记为 failed。
func (r *Registry) Fail(ctx context.Context, id string, err error) error {
	return r.update(ctx, id, func(t *Task) {
		t.Status = StatusFailed
		t.Error = err.Error()
	})
}

func (r *Registry) update(ctx context.Context, id string, fn func(*Task)) error {
	r.mu.Lock()
	t, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return notFound(id)
	}
	fn(t)
	t.UpdatedAt = r.now()
	snapshot := *t
	r.mu.Unlock()
	return r.persist(ctx, &snapshot)
}

func (r *Registry) persist(ctx context.Context, t *Task) error {
	if r.store == nil {
		return nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("task: encode %s: %w", t.ID, err)
	}
	if r.ttl > 0 {
		return r.store.Set(ctx, storeKey(t.ID), data, r.ttl)
	}
	return r.store.Set(ctx, storeKey(t.ID), data)
}

// Submit 创建任务并在后台执行 fn，fn 的返回值决定任务最终状态。
// 后台执行使用 ctx 派生出的不可取消上下文，调用方请求结束不会中断任务；
// 需要停止时由 fn 自己处理超时。
func (r *Registry) Submit(ctx context.Context, fn func(ctx context.Context) (any, error)) (*Task, error) {
	t, err := r.Create(ctx)
	if err != nil {
		return nil, err
	}
	bg := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		logger := r.logger.With(zap.String("task_id", t.ID))
		if err := r.Start(bg, t.ID); err != nil {
			logger.Warn("persist task state failed", zap.Error(err))
		}
		var err error
		result, runErr := fn(bg)
		if runErr != nil {
			logger.Error("task failed", zap.Error(runErr))
			err = r.Fail(bg, t.ID, runErr)
		} else {
			logger.Info("task completed")
			err = r.Complete(bg, t.ID, result)
		}
		if err != nil {
			logger.Warn("persist task state failed", zap.Error(err))
		}
	}()
	return t, nil
}

// Wait 等待所有后台任务结束。
func (r *Registry) Wait() {
	r.wg.Wait()
}

// Prune 删除内存中 olderThan 之前已结束的任务，返回删除数量。Store 中的数据依赖 TTL 过期。
func (r *Registry) Prune(olderThan time.Duration) int {
	cutoff := r.now().Add(-olderThan)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, t := range r.tasks {
		done := t.Status == StatusCompleted || t.Status == StatusFailed
		if done && t.UpdatedAt.Before(cutoff) {
			delete(r.tasks, id)
			n++
		}
	}
	return n
}
