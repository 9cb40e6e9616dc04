package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"clarion/internal/config"
	"clarion/internal/engine"
	"clarion/internal/job"
	"clarion/internal/logging"
	"clarion/internal/notifications"
	"clarion/internal/packager"
	"clarion/internal/session"
	"clarion/internal/telemetry"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	log        *slog.Logger
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, _ := c.ensureConfig()
		verbose := c.verbose != nil && *c.verbose
		logger, err := logging.NewForCLI(cfg, verbose)
		if err != nil {
			logger = logging.NewNop()
		}
		c.log = logger
	})
	return c.log
}

// runtime is the wired object graph behind one enhance invocation.
type runtime struct {
	cfg     *config.Config
	engine  *engine.FFmpeg
	store   *packager.Store
	emitter *telemetry.Emitter
	history *telemetry.Store
	session *session.Session
}

func (c *commandContext) newRuntime() (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.logger()

	rt := &runtime{cfg: cfg}
	if cfg.Telemetry.Enabled {
		sinks := []telemetry.Sink{telemetry.LogSink{Logger: logging.NewComponentLogger(logger, "telemetry")}}
		if cfg.Telemetry.History {
			history, err := telemetry.OpenStore(cfg)
			if err != nil {
				logger.Warn("history disabled", logging.Error(err))
			} else {
				rt.history = history
				sinks = append(sinks, history)
			}
		}
		if notifier := notifications.New(cfg); notifier != nil {
			sinks = append(sinks, notifier)
		}
		rt.emitter = telemetry.NewEmitter(cfg.Telemetry.BufferSize, logger, sinks...)
	}

	rt.engine = engine.NewFromConfig(cfg, logger)
	rt.store = packager.NewStore(cfg.Paths.OutputDir, rt.emitter, logger)
	orch := job.New(rt.engine, rt.store,
		job.WithLogger(logger),
		job.WithEmitter(rt.emitter),
		job.WithPolicy(cfg.FilterPolicy()),
	)
	rt.session = session.New(orch, rt.store, cfg.FilterPolicy(), cfg.DefaultFormat())
	return rt, nil
}

func (r *runtime) Close() {
	if r == nil {
		return
	}
	if r.engine != nil {
		_ = r.engine.Close()
	}
	r.emitter.Close()
	if r.history != nil {
		_ = r.history.Close()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatRatio(ratio *float64) string {
	if ratio == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *ratio)
}
