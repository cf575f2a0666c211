package container

import (
	"go.uber.org/zap"

	"github.com/garyjia/approval-console/internal/application/service"
	"github.com/garyjia/approval-console/internal/attachment"
	"github.com/garyjia/approval-console/internal/config"
	"github.com/garyjia/approval-console/internal/importer"
	"github.com/garyjia/approval-console/internal/infrastructure/external/approvalapi"
	consolehttp "github.com/garyjia/approval-console/internal/interfaces/http"
	"github.com/garyjia/approval-console/internal/store"
	"github.com/garyjia/approval-console/pkg/utils"
)

// ServiceBundle groups the application services.
type ServiceBundle struct {
	Feed        *service.EventFeed
	Approvals   service.ApprovalService
	Attachments *attachment.Manager
	Importer    *importer.Importer
}

// ProvideClient creates the upstream REST client.
func ProvideClient(cfg *config.UpstreamConfig, logger *zap.Logger) *approvalapi.Client {
	return approvalapi.NewClient(approvalapi.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}, logger.Named("upstream"))
}

// ProvideStore creates the schema and department store over the client.
func ProvideStore(client *approvalapi.Client, logger *zap.Logger) *store.Store {
	return store.New(client, client, logger.Named("store"))
}

// ProvideServices creates the session-scoped services.
func ProvideServices(cfg *config.Config, client *approvalapi.Client, st *store.Store, logger *zap.Logger) *ServiceBundle {
	feed := service.NewEventFeed(cfg.Console.FeedSize)
	session := store.NewSession(cfg.User())

	approvals := service.NewApprovalService(
		client,
		st,
		store.NewListState(cfg.Console.PageSize),
		session,
		feed,
		cfg.Location(),
		utils.NewKVLogger(logger.Named("approval")),
	)

	attachments := attachment.NewManager(client, attachment.Config{
		MaxSize:  cfg.Attachment.MaxSize,
		MaxCount: cfg.Attachment.MaxCount,
	}, logger.Named("attachment"))

	imp := importer.New(client, client, st, logger.Named("importer")).
		WithApplicant(session.User().ID)

	return &ServiceBundle{
		Feed:        feed,
		Approvals:   approvals,
		Attachments: attachments,
		Importer:    imp,
	}
}

// ProvideServer creates the HTTP server over the services.
func ProvideServer(cfg *config.ServerConfig, services *ServiceBundle, logger *zap.Logger) *consolehttp.Server {
	return consolehttp.NewServer(consolehttp.ServerConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		CORSOrigins:  cfg.CORSOrigins,
	}, consolehttp.Deps{
		Approvals:   services.Approvals,
		Attachments: services.Attachments,
		Importer:    services.Importer,
		Feed:        services.Feed,
	}, utils.NewKVLogger(logger.Named("http")))
}
