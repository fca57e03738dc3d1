// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	contentstore "github.com/dalemusser/contenthub/internal/app/store/content"
	"github.com/dalemusser/contenthub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/contenthub/internal/app/store/users"
	"github.com/dalemusser/contenthub/internal/app/system/workers"
	"github.com/dalemusser/contenthub/internal/domain/models"
)

// Background workers started here are stopped in Shutdown.
var (
	publishSweep *workers.PublishSweep
	stateCleanup *workers.StateCleanup
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. ContentHub
// uses it to promote the bootstrap admin and start the background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := promoteAdmin(ctx, appCfg, deps, logger); err != nil {
		return err
	}

	publishSweep = workers.NewPublishSweep(
		contentstore.New(deps.MongoDatabase), logger, appCfg.PublishSweepInterval)
	publishSweep.Start()

	stateCleanup = workers.NewStateCleanup(
		oauthstate.New(deps.MongoDatabase), logger, appCfg.StateCleanupInterval)
	stateCleanup.Start()

	return nil
}

// promoteAdmin grants the admin role to the configured bootstrap account.
// The account must already exist; admins cannot be conjured without a
// credential, so a missing account is a warning rather than an error.
func promoteAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail == "" {
		return nil
	}

	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, appCfg.AdminEmail)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			logger.Warn("admin bootstrap account not found; register it and restart",
				zap.String("email", appCfg.AdminEmail))
			return nil
		}
		return err
	}

	if u.Role.IsAdmin() {
		return nil
	}

	if err := users.SetGrants(ctx, u.ID, models.RoleAdmin, u.Permissions, u.ProductAccess); err != nil {
		return err
	}

	logger.Info("promoted bootstrap admin",
		zap.String("email", appCfg.AdminEmail),
		zap.String("user_id", u.ID.Hex()))
	return nil
}
