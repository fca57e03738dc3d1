// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/contenthub/internal/app/features/authapi"
	"github.com/dalemusser/contenthub/internal/app/features/authgoogle"
	contentfeature "github.com/dalemusser/contenthub/internal/app/features/content"
	healthfeature "github.com/dalemusser/contenthub/internal/app/features/health"
	contentstore "github.com/dalemusser/contenthub/internal/app/store/content"
	"github.com/dalemusser/contenthub/internal/app/store/oauthstate"
	tokenstore "github.com/dalemusser/contenthub/internal/app/store/tokens"
	userstore "github.com/dalemusser/contenthub/internal/app/store/users"
	"github.com/dalemusser/contenthub/internal/app/system/auth"
	"github.com/dalemusser/contenthub/internal/app/system/mailer"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// ContentHub builds the stores once, wires the auth manager over them,
// and mounts the JSON API: health, local and Google authentication, the
// current-user endpoints, and the content surface.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	tokens := tokenstore.New(db, appCfg.TokenTTL)
	content := contentstore.New(db)
	states := oauthstate.New(db)

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	authMgr, err := auth.NewManager(appCfg.SessionKey, appCfg.SessionDomain, secure, users, tokens, logger)
	if err != nil {
		logger.Error("auth manager init failed", zap.Error(err))
		return nil, err
	}

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		SiteName: appCfg.MailFromName,
		BaseURL:  appCfg.BaseURL,
	}, logger)

	r := chi.NewRouter()

	// Global auth middleware: resolves the bearer token or session cookie
	// into the current user for every request.
	r.Use(authMgr.LoadUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Local authentication and account endpoints, with the Google OAuth
	// flow nested under the same prefix. The Google handler is mounted
	// even when unconfigured; it answers with a redirect error so the
	// login page can explain.
	authHandler := authapi.NewHandler(users, tokens, authMgr, mail, logger)
	googleHandler := authgoogle.NewHandler(users, states, authMgr,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)

	authRouter := authapi.Routes(authHandler)
	authRouter.Mount("/google", authgoogle.Routes(googleHandler))
	r.Mount("/auth", authRouter)
	authapi.MountUserRoutes(r, authHandler)

	// Content API
	contentHandler := contentfeature.NewHandler(content, logger)
	r.Mount("/content", contentfeature.Routes(contentHandler))

	return r, nil
}
