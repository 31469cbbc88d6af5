package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/shutterspot/backend/internal/adapter"
	"github.com/shutterspot/backend/internal/adapter/googledrive"
	"github.com/shutterspot/backend/internal/adapter/memory"
	"github.com/shutterspot/backend/internal/auth"
	"github.com/shutterspot/backend/internal/crypto"
	"github.com/shutterspot/backend/internal/handler"
	"github.com/shutterspot/backend/internal/secret"
	"github.com/shutterspot/backend/internal/session"
	"github.com/shutterspot/backend/internal/store"
	syncengine "github.com/shutterspot/backend/internal/sync"
	"github.com/shutterspot/backend/internal/thumbnail"
)

// App holds the dependencies for the Lambda function.
type App struct {
	driveHandler     *handler.DriveHandler
	photoHandler     *handler.PhotoHandler
	scheduler        *syncengine.Scheduler
	apiGatewaySecret string
}

// NewApp initializes the application dependencies.
func NewApp(ctx context.Context) *App {
	devMode := os.Getenv("DEV_MODE") == "true"

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Sprintf("unable to load SDK config, %v", err))
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if devMode {
		logger.SetLevel(logrus.DebugLevel)
	}

	// DynamoDB Client
	dynamoClient := dynamodb.NewFromConfig(cfg)

	// KMS Client
	var encryptor crypto.Encryptor
	if devMode {
		encryptor = crypto.NewMockEncryptor()
		fmt.Println("Using MockEncryptor (DEV_MODE=true)")
	} else {
		kmsClient := kms.NewFromConfig(cfg)
		kmsKeyID := os.Getenv("KMS_KEY_ID")
		if kmsKeyID == "" {
			kmsKeyID = "alias/shutterspot-token-key"
		}
		encryptor = crypto.NewKMSEncryptor(kmsClient, kmsKeyID)
	}

	// ---------- Secret Resolver ----------
	var resolver secret.Resolver
	if devMode {
		resolver = secret.NewEnvResolver()
		fmt.Println("Using EnvResolver (DEV_MODE=true)")
	} else {
		resolver = secret.NewSSMResolver(ssm.NewFromConfig(cfg))
		fmt.Println("Using SSMResolver (SSM Parameter Store)")
	}

	googleClientSecretParam := os.Getenv("GOOGLE_CLIENT_SECRET_PARAM")
	if googleClientSecretParam == "" {
		googleClientSecretParam = "/shutterspot/google-client-secret"
	}
	googleClientSecret, err := resolver.GetSecret(ctx, googleClientSecretParam)
	if err != nil {
		log.Printf("WARNING: failed to resolve GOOGLE_CLIENT_SECRET: %v", err)
	}

	jwtSecretParam := os.Getenv("JWT_SECRET_PARAM")
	if jwtSecretParam == "" {
		jwtSecretParam = "/shutterspot/jwt-secret"
	}
	jwtSecret, err := resolver.GetSecret(ctx, jwtSecretParam)
	if err != nil {
		log.Printf("WARNING: failed to resolve JWT_SECRET: %v", err)
		jwtSecret = "default-dev-secret"
	}

	apiGatewaySecretParam := os.Getenv("API_GATEWAY_SECRET_PARAM")
	if apiGatewaySecretParam == "" {
		apiGatewaySecretParam = "/shutterspot/api-gateway-secret"
	}
	apiGatewaySecret, err := resolver.GetSecret(ctx, apiGatewaySecretParam)
	if err != nil {
		log.Printf("WARNING: failed to resolve API_GATEWAY_SECRET: %v", err)
	}

	// OAuth2 Config. The sync subsystem only reads Drive contents.
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if redirectURL == "" {
		frontendURL := os.Getenv("FRONTEND_URL")
		if frontendURL == "" {
			frontendURL = "http://localhost:3000"
		}
		redirectURL = frontendURL + "/api/auth/callback"
	}

	oauthConfig := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: googleClientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/drive.readonly",
		},
		Endpoint: google.Endpoint,
	}

	// Persistence + lease lock. DEV_MODE swaps everything stateful for
	// in-memory implementations so the whole stack runs without AWS.
	var dataStore store.Store
	var credStore auth.CredentialStore
	var locker session.Locker
	if devMode {
		dataStore = store.NewMemoryStore()
		credStore = auth.NewMemoryCredentialStore()
		locker = session.NewMemoryLocker()
		fmt.Println("Using in-memory storage (DEV_MODE=true)")
	} else {
		tables := store.Tables{
			Connections: envOr("CONNECTIONS_TABLE", "DriveConnections"),
			Galleries:   envOr("GALLERIES_TABLE", "Galleries"),
			Photos:      envOr("PHOTOS_TABLE", "Photos"),
		}
		dataStore = store.NewDynamoStore(dynamoClient, tables)
		credStore = auth.NewDynamoCredentialStore(dynamoClient, envOr("USER_CREDENTIALS_TABLE", "UserCredentials"))
		locker = session.NewLeaseManager(dynamoClient, envOr("SYNC_LEASES_TABLE", "SyncLeases"))
	}

	credentialService := auth.NewCredentialService(oauthConfig, credStore, encryptor)

	// Storage Provider
	var storageProvider adapter.StorageProvider
	if devMode {
		storageProvider = memory.NewProvider()
		fmt.Println("Using MemoryProvider (DEV_MODE=true)")
	} else {
		storageProvider = googledrive.NewProvider(credentialService)
	}

	reconciler := syncengine.NewReconciler(dataStore, storageProvider, thumbnail.NewGenerator(), locker, logger)
	scheduler := syncengine.NewScheduler(dataStore, reconciler, nil, logger)

	driveHandler := handler.NewDriveHandler(storageProvider, dataStore, reconciler, jwtSecret)
	photoHandler := handler.NewPhotoHandler(dataStore, jwtSecret)

	return &App{
		driveHandler:     driveHandler,
		photoHandler:     photoHandler,
		scheduler:        scheduler,
		apiGatewaySecret: apiGatewaySecret,
	}
}

// Scheduler exposes the sync scheduler for the long-running server entrypoint.
func (app *App) Scheduler() *syncengine.Scheduler {
	return app.scheduler
}

// HandleScheduledEvent runs one scheduler batch. Wired to an EventBridge rule
// in the Lambda deployment.
func (app *App) HandleScheduledEvent(ctx context.Context) (int, error) {
	return app.scheduler.RunScheduledSyncs(ctx)
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod

	fmt.Printf("Request: %s %s\n", method, path)

	// CORS Preflight
	if method == "OPTIONS" {
		return corsResponse(events.APIGatewayProxyResponse{StatusCode: 204}), nil
	}

	// Security: Verify Request Origin (CloudFront only)
	// Skip check for OPTIONS (preflight) and if DEV_MODE is true
	if os.Getenv("DEV_MODE") != "true" {
		if req.Headers["X-Origin-Verify"] != app.apiGatewaySecret && req.Headers["x-origin-verify"] != app.apiGatewaySecret {
			fmt.Printf("Security Block: Missing or invalid X-Origin-Verify header\n")
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusForbidden,
				Body:       "Forbidden: Access denied",
			}, nil
		}
	}

	// Strip /api prefix if present (for CloudFront proxying)
	if strings.HasPrefix(path, "/api") {
		path = strings.TrimPrefix(path, "/api")
	}

	if req.PathParameters == nil {
		req.PathParameters = make(map[string]string)
	}

	// /drive
	if strings.HasPrefix(path, "/drive") {
		if path == "/drive/folders" && method == "GET" {
			return corsResponse(must(app.driveHandler.ListFolders(ctx, req))), nil
		}
		if path == "/drive/connections" && method == "GET" {
			return corsResponse(must(app.driveHandler.ListConnections(ctx, req))), nil
		}
		if path == "/drive/connections" && method == "POST" {
			return corsResponse(must(app.driveHandler.CreateConnection(ctx, req))), nil
		}
		// /drive/connections/{id}[...]
		if strings.HasPrefix(path, "/drive/connections/") {
			parts := strings.Split(strings.TrimPrefix(path, "/drive/connections/"), "/")
			req.PathParameters["id"] = parts[0]

			if len(parts) == 1 {
				if method == "GET" {
					return corsResponse(must(app.driveHandler.GetConnection(ctx, req))), nil
				}
				if method == "PATCH" || method == "PUT" {
					return corsResponse(must(app.driveHandler.UpdateConnection(ctx, req))), nil
				}
				if method == "DELETE" {
					return corsResponse(must(app.driveHandler.DeleteConnection(ctx, req))), nil
				}
			}
			if len(parts) == 2 && parts[1] == "sync" && method == "POST" {
				return corsResponse(must(app.driveHandler.SyncConnection(ctx, req))), nil
			}
		}
	}

	// /galleries/{id}/photos
	if strings.HasPrefix(path, "/galleries/") && strings.HasSuffix(path, "/photos") && method == "GET" {
		parts := strings.Split(strings.Trim(path, "/"), "/")
		if len(parts) == 3 {
			req.PathParameters["id"] = parts[1]
			return corsResponse(must(app.photoHandler.ListGalleryPhotos(ctx, req))), nil
		}
	}

	// /photos/{id}[...]
	if strings.HasPrefix(path, "/photos/") {
		parts := strings.Split(strings.TrimPrefix(path, "/photos/"), "/")
		req.PathParameters["id"] = parts[0]

		if len(parts) == 1 && method == "GET" {
			return corsResponse(must(app.photoHandler.GetPhoto(ctx, req))), nil
		}
		if len(parts) == 2 && parts[1] == "favorite" {
			if method == "POST" {
				return corsResponse(must(app.photoHandler.Favorite(ctx, req))), nil
			}
			if method == "DELETE" {
				return corsResponse(must(app.photoHandler.Unfavorite(ctx, req))), nil
			}
		}
	}

	return corsResponse(events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf("Not Found: %s %s", method, path),
	}), nil
}

// corsResponse adds CORS headers to an API Gateway response.
func corsResponse(resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["Access-Control-Allow-Origin"] = os.Getenv("FRONTEND_URL")
	if resp.Headers["Access-Control-Allow-Origin"] == "" {
		resp.Headers["Access-Control-Allow-Origin"] = "http://localhost:3000"
	}
	resp.Headers["Access-Control-Allow-Credentials"] = "true"
	resp.Headers["Access-Control-Allow-Methods"] = "GET,POST,PUT,DELETE,OPTIONS,PATCH"
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type,Authorization"
	return resp
}

// must unwraps a handler response, ignoring the error.
func must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		fmt.Printf("Handler error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Internal Server Error"}
	}
	return resp
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
