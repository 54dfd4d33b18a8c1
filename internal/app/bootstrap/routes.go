// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authgooglefeature "github.com/exoticc/storeapi/internal/app/features/authgoogle"
	healthfeature "github.com/exoticc/storeapi/internal/app/features/health"
	loginfeature "github.com/exoticc/storeapi/internal/app/features/login"
	ordersfeature "github.com/exoticc/storeapi/internal/app/features/orders"
	paymentsfeature "github.com/exoticc/storeapi/internal/app/features/payments"
	productsfeature "github.com/exoticc/storeapi/internal/app/features/products"
	profilefeature "github.com/exoticc/storeapi/internal/app/features/profile"
	registerfeature "github.com/exoticc/storeapi/internal/app/features/register"
	accountstore "github.com/exoticc/storeapi/internal/app/store/accounts"
	customerstore "github.com/exoticc/storeapi/internal/app/store/customers"
	orderstore "github.com/exoticc/storeapi/internal/app/store/orders"
	productstore "github.com/exoticc/storeapi/internal/app/store/products"
	sellerstore "github.com/exoticc/storeapi/internal/app/store/sellers"
	"github.com/exoticc/storeapi/internal/app/system/auth"
	"github.com/exoticc/storeapi/internal/app/system/googleauth"
	"github.com/exoticc/storeapi/internal/app/system/imagestore"
	"github.com/exoticc/storeapi/internal/app/system/mailer"
	"github.com/exoticc/storeapi/internal/app/system/payments"
	"github.com/exoticc/storeapi/internal/app/system/ratelimit"
	"github.com/exoticc/storeapi/internal/app/system/signup"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. It builds the session manager,
// the mongo-backed stores, the outbound integrations (SMTP, Google
// token verification, Razorpay, image storage), and mounts the feature
// routers under /api.
//
// Secure cookies are enabled in production mode. The whole /api tree
// shares one per-IP rate limit; OTP issuance has its own tighter limits
// inside the register feature.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessions, err := auth.NewManager(appCfg.SessionSecret, secure, logger,
		auth.WithCookieName(appCfg.SessionCookieName))
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Mongo-backed stores.
	customers := customerstore.New(deps.MongoDatabase)
	sellers := sellerstore.New(deps.MongoDatabase)
	products := productstore.New(deps.MongoDatabase)
	orders := orderstore.New(deps.MongoDatabase)
	accounts := accountstore.NewFetcher(customers, sellers)

	// Outbound integrations.
	mail, err := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		SiteName: appCfg.SiteName,
	}, logger)
	if err != nil {
		logger.Error("mailer init failed", zap.Error(err))
		return nil, err
	}

	images, err := newImageStore(appCfg)
	if err != nil {
		logger.Error("image store init failed", zap.Error(err))
		return nil, err
	}

	gateway, err := payments.New(appCfg.RazorpayKeyID, appCfg.RazorpayKeySecret)
	if err != nil {
		logger.Error("payment gateway init failed", zap.Error(err))
		return nil, err
	}

	verifier := googleauth.New(appCfg.GoogleClientID)
	flow := signup.New(customers, sellers, mail, logger)
	codes := ratelimit.NewCodeLimiter()
	apiLimiter := ratelimit.New(appCfg.APIRateLimit, appCfg.APIRateWindow)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Locally stored product images, when the local backend is active.
	if appCfg.StorageType == "local" {
		r.Handle(appCfg.StorageLocalURL+"/*",
			fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(apiLimiter.Middleware)
		// Resolve the session cookie into a user on every request so
		// role changes and deleted accounts take effect immediately.
		api.Use(sessions.Authenticate(accounts))

		api.Route("/auth", func(ar chi.Router) {
			registerHandler := registerfeature.NewHandler(flow, sessions, codes, logger)
			registerfeature.MountRoutes(ar, registerHandler)

			loginHandler := loginfeature.NewHandler(customers, sellers, sessions, logger)
			loginfeature.MountRoutes(ar, loginHandler)

			googleHandler := authgooglefeature.NewHandler(verifier, customers, sessions, logger)
			authgooglefeature.MountRoutes(ar, googleHandler)

			profileHandler := profilefeature.NewHandler(customers, logger)
			ar.Group(func(pr chi.Router) {
				pr.Use(sessions.RequireSignedIn)
				profilefeature.MountRoutes(pr, profileHandler)
			})
		})

		api.Route("/products", func(pr chi.Router) {
			productsHandler := productsfeature.NewHandler(products, sellers, images, logger)
			productsfeature.MountRoutes(pr, productsHandler)
		})

		api.Route("/orders", func(or chi.Router) {
			or.Use(sessions.RequireSignedIn)
			ordersHandler := ordersfeature.NewHandler(orders, products, mail, logger)
			ordersfeature.MountRoutes(or, ordersHandler)
		})

		api.Route("/payment", func(pr chi.Router) {
			pr.Use(sessions.RequireSignedIn)
			paymentsHandler := paymentsfeature.NewHandler(gateway, orders, products, logger)
			paymentsfeature.MountRoutes(pr, paymentsHandler)
		})
	})

	return r, nil
}

// newImageStore picks the configured image backend. ValidateConfig has
// already rejected unknown storage types.
func newImageStore(appCfg AppConfig) (imagestore.Provider, error) {
	if appCfg.StorageType == "cloudinary" {
		return imagestore.NewCloudinary(appCfg.CloudinaryURL, appCfg.CloudinaryFolder)
	}
	return imagestore.NewLocal(appCfg.StorageLocalPath, appCfg.StorageLocalURL)
}
