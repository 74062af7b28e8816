package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/kcore/internal/clock"
	"github.com/viant/kcore/internal/idgen"
	"github.com/viant/kcore/service/messaging"
)

// MessageState represents the state of a journaled message
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateCompleted  MessageState = "completed"
	MessageStateFailed     MessageState = "failed"
)

// Message implements messaging.Message for the filesystem queue
type Message[T any] struct {
	ID        string       `json:"id"`
	Seq       int64        `json:"seq"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack moves the message to the completed directory
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.State = MessageStateCompleted
	m.UpdatedAt = clock.Now()
	return m.queue.settle(context.Background(), m, m.queue.completedDir)
}

// Nack moves the message to the failed directory for a retry, or to the dead
// letter directory once MaxRetries is exceeded
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.State = MessageStateFailed
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = clock.Now()
	dest := m.queue.failedDir
	if m.Retries > m.queue.config.MaxRetries {
		dest = m.queue.dlqDir
	}
	return m.queue.settle(context.Background(), m, dest)
}

// Config holds configuration for the filesystem queue
type Config struct {
	// URL is the base location, any afs scheme (file://, mem://, ...)
	URL        string
	MaxRetries int
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() Config {
	return Config{
		URL:        "/tmp/kcore/journal",
		MaxRetries: 3,
	}
}

// Queue is a journal of JSON messages kept in an afs storage. Each state is a
// directory, file names carry a sequence so that consumption follows
// publication order.
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingDir    string
	processingDir string
	completedDir  string
	failedDir     string
	dlqDir        string
	seq           int64
	mu            sync.Mutex
}

// NewQueue creates the journal directories under config.URL
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.URL == "" {
		return nil, fmt.Errorf("queue URL cannot be empty")
	}
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    url.Join(config.URL, string(MessageStatePending)),
		processingDir: url.Join(config.URL, string(MessageStateProcessing)),
		completedDir:  url.Join(config.URL, string(MessageStateCompleted)),
		failedDir:     url.Join(config.URL, string(MessageStateFailed)),
		dlqDir:        url.Join(config.URL, "dlq"),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.failedDir, q.dlqDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish writes a new pending message
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	now := clock.Now()
	message := &Message[T]{
		ID:        idgen.New(),
		Seq:       q.seq,
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return q.write(ctx, q.pendingDir, message)
}

// Consume returns the oldest failed message still eligible for a retry,
// otherwise the oldest pending one; nil when the journal is drained
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, dir := range []string{q.failedDir, q.pendingDir} {
		objects, err := q.messages(ctx, dir)
		if err != nil {
			return nil, err
		}
		if len(objects) == 0 {
			continue
		}
		obj := objects[0]
		message, err := q.read(ctx, obj.URL())
		if err != nil {
			_ = q.fs.Move(ctx, obj.URL(), url.Join(q.dlqDir, "invalid-"+obj.Name()))
			return nil, err
		}
		message.State = MessageStateProcessing
		message.UpdatedAt = clock.Now()
		if err = q.write(ctx, q.processingDir, message); err != nil {
			return nil, err
		}
		if err = q.fs.Delete(ctx, obj.URL()); err != nil {
			return nil, fmt.Errorf("failed to delete %s: %w", obj.URL(), err)
		}
		return message, nil
	}
	return nil, nil
}

// Count returns the number of messages in state
func (q *Queue[T]) Count(ctx context.Context, state MessageState) (int, error) {
	dir := url.Join(q.config.URL, string(state))
	objects, err := q.messages(ctx, dir)
	return len(objects), err
}

// DLQSize returns the number of dead messages
func (q *Queue[T]) DLQSize(ctx context.Context) (int, error) {
	objects, err := q.messages(ctx, q.dlqDir)
	return len(objects), err
}

func (q *Queue[T]) settle(ctx context.Context, m *Message[T], dir string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.write(ctx, dir, m); err != nil {
		return err
	}
	processing := url.Join(q.processingDir, m.filename())
	if exists, _ := q.fs.Exists(ctx, processing); exists {
		if err := q.fs.Delete(ctx, processing); err != nil {
			return fmt.Errorf("failed to delete %s: %w", processing, err)
		}
	}
	return nil
}

func (q *Queue[T]) messages(ctx context.Context, dir string) ([]storage.Object, error) {
	objects, err := q.fs.List(ctx, dir, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var ret []storage.Object
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			ret = append(ret, obj)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name() < ret[j].Name() })
	return ret, nil
}

func (q *Queue[T]) write(ctx context.Context, dir string, m *Message[T]) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", m.ID, err)
	}
	location := url.Join(dir, m.filename())
	if err = q.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	return nil
}

func (q *Queue[T]) read(ctx context.Context, location string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", location, err)
	}
	message := &Message[T]{queue: q}
	if err = json.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", location, err)
	}
	return message, nil
}

func (m *Message[T]) filename() string {
	return fmt.Sprintf("%012d-%s.json", m.Seq, m.ID)
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
