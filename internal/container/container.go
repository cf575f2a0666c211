// Package container wires the approval console together and owns its lifecycle.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/approval-console/internal/application/service"
	"github.com/garyjia/approval-console/internal/attachment"
	"github.com/garyjia/approval-console/internal/config"
	"github.com/garyjia/approval-console/internal/importer"
	"github.com/garyjia/approval-console/internal/infrastructure/external/approvalapi"
	consolehttp "github.com/garyjia/approval-console/internal/interfaces/http"
	"github.com/garyjia/approval-console/internal/store"
)

// Container manages all console dependencies.
// Components are built in dependency order by Start and released by Close.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure
	client *approvalapi.Client
	store  *store.Store

	// Application
	feed        *service.EventFeed
	approvals   service.ApprovalService
	attachments *attachment.Manager
	importer    *importer.Importer

	// Interfaces
	server *consolehttp.Server

	// Lifecycle
	mu     sync.Mutex
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a container from configuration.
// It does not build components; call Start for that.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start builds every component in dependency order:
// 1. Upstream client
// 2. Schema and department store
// 3. Application services
// 4. HTTP server
//
// The configured schema is preloaded afterwards. A failed preload is logged
// and leaves the console usable; the next schema request retries it.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	ctx, c.cancel = context.WithCancel(ctx)

	c.logger.Info("Starting container initialization")

	c.client = ProvideClient(&c.config.Upstream, c.logger)
	c.store = ProvideStore(c.client, c.logger)
	c.logger.Info("Upstream client initialized", zap.String("base_url", c.config.Upstream.BaseURL))

	bundle := ProvideServices(c.config, c.client, c.store, c.logger)
	c.feed = bundle.Feed
	c.approvals = bundle.Approvals
	c.attachments = bundle.Attachments
	c.importer = bundle.Importer
	c.logger.Info("Application services initialized")

	c.server = ProvideServer(&c.config.Server, bundle, c.logger)

	if _, err := c.approvals.LoadSchema(ctx, c.config.Upstream.SchemaKey); err != nil {
		c.logger.Warn("Schema preload failed",
			zap.String("key", c.config.Upstream.SchemaKey),
			zap.Error(err))
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close stops the HTTP server and releases the container.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	if c.cancel != nil {
		c.cancel()
	}

	var err error
	if c.server != nil {
		if stopErr := c.server.Stop(); stopErr != nil {
			c.logger.Error("Failed to stop HTTP server", zap.Error(stopErr))
			err = fmt.Errorf("stop server: %w", stopErr)
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if err != nil {
		return err
	}
	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are built.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health reports whether the schema and departments have been loaded.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if !c.ready.Load() {
		status.Overall = false
		status.Components["container"] = ComponentHealth{Healthy: false, Message: "not started"}
		return status
	}

	active := c.store.Schema()
	if len(active.Fields) > 0 {
		status.Components["schema"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("%s: %d fields", active.Key, len(active.Fields)),
		}
	} else {
		status.Components["schema"] = ComponentHealth{Healthy: false, Message: "no schema loaded"}
		status.Overall = false
	}

	if c.store.DepartmentsLoaded() {
		status.Components["departments"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("%d roots", len(c.store.Departments())),
		}
	} else {
		// Departments load lazily; not loaded yet is not a failure.
		status.Components["departments"] = ComponentHealth{Healthy: true, Message: "not loaded"}
	}

	return status
}

// Client returns the upstream client
func (c *Container) Client() *approvalapi.Client { return c.client }

// Store returns the schema and department store
func (c *Container) Store() *store.Store { return c.store }

// Approvals returns the approval service
func (c *Container) Approvals() service.ApprovalService { return c.approvals }

// Importer returns the excel importer
func (c *Container) Importer() *importer.Importer { return c.importer }

// Feed returns the notification feed
func (c *Container) Feed() *service.EventFeed { return c.feed }

// Server returns the HTTP server
func (c *Container) Server() *consolehttp.Server { return c.server }
