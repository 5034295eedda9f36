package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/logger"
	"github.com/kbukum/dictation/process"
	"github.com/kbukum/dictation/provider"
)

const defaultSettleDelay = 100 * time.Millisecond

// Config configures the native recorder.
type Config struct {
	// SettleDelay is waited after spawning before the capture counts as started.
	SettleDelay time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
	// TempDir holds in-progress WAV files. Defaults to os.TempDir().
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.SettleDelay <= 0 {
		c.SettleDelay = defaultSettleDelay
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
}

// Option customises a Native recorder.
type Option func(*Native)

// WithLookup replaces the which/where probe.
func WithLookup(fn LookupFunc) Option {
	return func(n *Native) { n.lookup = fn }
}

// WithCommand runs path instead of the probed command for kind.
func WithCommand(kind ToolKind, path string) Option {
	return func(n *Native) { n.commands[kind] = path }
}

// WithLogger sets the component logger.
func WithLogger(l *logger.Logger) Option {
	return func(n *Native) { n.log = l }
}

// pending is the live recorder process between Start and Stop/Cancel.
type pending struct {
	tool      ToolInfo
	handle    *process.Handle
	path      string
	recording bool
	startedAt time.Time
}

// Native captures audio by spawning an OS recorder that writes a WAV file.
// One capture may be in flight at a time.
type Native struct {
	cfg      Config
	lookup   LookupFunc
	commands map[ToolKind]string
	log      *logger.Logger

	mu      sync.Mutex
	pending *pending
}

// NewNative creates a native recorder.
func NewNative(cfg Config, opts ...Option) *Native {
	cfg.ApplyDefaults()
	n := &Native{
		cfg:      cfg,
		lookup:   process.LookPath,
		commands: make(map[ToolKind]string),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = logger.Get(logger.ComponentRecorder)
	}
	return n
}

// ProbeTools reports which recorders are installed, in preference order.
func (n *Native) ProbeTools(ctx context.Context) []ToolInfo {
	return Probe(ctx, n.lookup)
}

// IsAvailable reports whether at least one recorder is installed.
func (n *Native) IsAvailable(ctx context.Context) bool {
	_, err := n.selectTool(ctx)
	return err == nil
}

func (n *Native) selectTool(ctx context.Context) (ToolInfo, error) {
	infos := n.ProbeTools(ctx)
	tools := make(map[string]*Tool, len(infos))
	priority := make([]string, 0, len(infos))
	for _, info := range infos {
		tools[string(info.Kind)] = &Tool{ToolInfo: info}
		priority = append(priority, string(info.Kind))
	}
	sel := &provider.PrioritySelector[*Tool]{Priority: priority}
	tool, err := sel.Select(ctx, tools)
	if err != nil {
		return ToolInfo{}, errors.NoRecordingTool()
	}
	return tool.ToolInfo, nil
}

// Start spawns the preferred recorder writing to a fresh temporary file.
func (n *Native) Start(ctx context.Context) error {
	n.mu.Lock()
	if n.pending != nil {
		n.mu.Unlock()
		return errors.AlreadyRecording()
	}

	tool, err := n.selectTool(ctx)
	if err != nil {
		n.mu.Unlock()
		return err
	}

	command := tool.Command
	if override, ok := n.commands[tool.Kind]; ok {
		command = override
	}
	path := filepath.Join(n.cfg.TempDir, fmt.Sprintf("dictation-%s.wav", uuid.NewString()))

	handle, err := process.Start(process.Command{Binary: command, Args: Args(tool, path)})
	if err != nil {
		n.mu.Unlock()
		n.log.Error("Recorder spawn failed", logger.Fields(logger.FieldTool, command, logger.FieldError, err.Error()))
		return errors.SpawnFailed(command, err)
	}
	p := &pending{tool: tool, handle: handle, path: path}
	n.pending = p
	n.mu.Unlock()

	n.log.Debug("Recorder spawned", logger.Fields(
		logger.FieldTool, command, logger.FieldPID, handle.Pid(), logger.FieldPath, path))

	timer := time.NewTimer(n.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-handle.Done():
	case <-ctx.Done():
		n.abort(p)
		return ctx.Err()
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending != p {
		return errors.RecordingCancelled()
	}
	if handle.Exited() {
		n.pending = nil
		_ = os.Remove(path)
		cause := fmt.Errorf("%s exited immediately", command)
		if msg := handle.Stderr(); msg != "" {
			cause = fmt.Errorf("%s", msg)
		}
		return errors.SpawnFailed(command, cause)
	}
	p.recording = true
	p.startedAt = time.Now()

	n.log.Info("Recording started", logger.Fields(logger.FieldTool, string(tool.Kind)))
	return nil
}

// Stop asks the recorder to finish gracefully, waits for it to exit, and
// returns the WAV it wrote. The temporary file is always removed.
func (n *Native) Stop(ctx context.Context) (*Audio, error) {
	n.mu.Lock()
	p := n.pending
	if p == nil || !p.recording {
		n.mu.Unlock()
		return nil, errors.NotRecording()
	}
	n.pending = nil
	n.mu.Unlock()

	defer os.Remove(p.path) //nolint:errcheck // best effort

	if err := p.handle.Terminate(); err != nil {
		n.log.Warn("Terminate failed, killing recorder", logger.ErrorFields("terminate", err))
		_ = p.handle.Kill()
	}
	select {
	case <-p.handle.Done():
	case <-ctx.Done():
		_ = p.handle.Kill()
		<-p.handle.Done()
		return nil, ctx.Err()
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileMissing(p.path)
		}
		return nil, fmt.Errorf("read recording: %w", err)
	}

	n.log.Info("Recording stopped", logger.Fields(
		logger.FieldBytes, len(data),
		logger.FieldDuration, time.Since(p.startedAt).Milliseconds(),
	))
	return &Audio{Data: data, MimeType: MimeWAV}, nil
}

// Cancel force-kills the recorder and deletes its file. It is a no-op when
// nothing is recording.
func (n *Native) Cancel() {
	n.mu.Lock()
	p := n.pending
	n.pending = nil
	n.mu.Unlock()

	if p == nil {
		return
	}
	n.abort(p)
	n.log.Info("Recording cancelled")
}

func (n *Native) abort(p *pending) {
	n.mu.Lock()
	if n.pending == p {
		n.pending = nil
	}
	n.mu.Unlock()

	_ = p.handle.Kill()
	<-p.handle.Done()
	_ = os.Remove(p.path)
}

// Elapsed is the wall-clock time since Start succeeded, or zero.
func (n *Native) Elapsed() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == nil || !n.pending.recording {
		return 0
	}
	return time.Since(n.pending.startedAt)
}

// IsRecording reports whether a capture is active.
func (n *Native) IsRecording() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pending != nil && n.pending.recording
}
