package main

import (
	"context"
	"net/http"

	"penpal_server/config"
	"penpal_server/routes"
	"penpal_server/services"
	"penpal_server/utils"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	logger, err := utils.NewLogger(cfg.Environment)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx := context.Background()

	dynamoClient, err := services.InitializeDynamoDBClient(ctx)
	if err != nil {
		logger.Fatal("failed to initialize DynamoDB client", zap.Error(err))
	}
	dynamoService := &services.DynamoService{Client: dynamoClient}

	var kmsClient *kms.Client
	if cfg.KMSEnabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Fatal("failed to load AWS config", zap.Error(err))
		}
		kmsClient = kms.NewFromConfig(awsCfg)
	}

	addressKey, err := services.LoadAddressKey(ctx, cfg, kmsClient)
	if err != nil {
		logger.Fatal("failed to load address encryption key", zap.Error(err))
	}
	cipher, err := services.NewAddressCipher(addressKey)
	if err != nil {
		logger.Fatal("failed to initialize address cipher", zap.Error(err))
	}

	var store services.ObjectStore
	if cfg.UseMemoryObjectStore {
		logger.Warn("using in-memory object store; scans will not survive restarts")
		store = services.NewMemoryStore()
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Fatal("failed to load AWS config", zap.Error(err))
		}
		store = services.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket)
	}

	// Service graph. Consent is the hub every match-scoped service
	// depends on.
	auditService := &services.AuditService{Dynamo: dynamoService}
	consentService := &services.ConsentService{Dynamo: dynamoService, Logger: logger}
	profileService := &services.ProfileService{Dynamo: dynamoService}
	authService := &services.AuthService{Dynamo: dynamoService, JWTSecret: cfg.JWTSecret, Logger: logger}
	safetyService := &services.SafetyService{Dynamo: dynamoService, Consent: consentService, Audit: auditService, Logger: logger}
	revealService := &services.RevealService{Dynamo: dynamoService, Consent: consentService, Safety: safetyService, Audit: auditService, Cipher: cipher, Logger: logger}
	discoveryService := &services.DiscoveryService{Dynamo: dynamoService, Consent: consentService, Logger: logger, AllowRerequestAfterReject: cfg.AllowRerequestAfterReject}
	matchService := &services.MatchService{Dynamo: dynamoService, Consent: consentService, Profiles: profileService}
	messageService := &services.MessageService{Dynamo: dynamoService, Consent: consentService, Profiles: profileService}
	letterService := &services.LetterService{Dynamo: dynamoService, Consent: consentService, Profiles: profileService}
	scanService := &services.ScanService{Dynamo: dynamoService, Letters: letterService, Consent: consentService, Store: store, Logger: logger}
	adminService := &services.AdminService{Dynamo: dynamoService, Consent: consentService, Messages: messageService, Audit: auditService, Logger: logger}

	r := mux.NewRouter()
	routes.RegisterRoutes(r)
	routes.RegisterAuthRoutes(r, authService, cfg.JWTSecret)
	routes.RegisterProfileRoutes(r, profileService, cfg.JWTSecret)
	routes.RegisterDiscoveryRoutes(r, discoveryService, cfg.JWTSecret)
	routes.RegisterMatchRoutes(r, matchService, messageService, letterService, cfg.JWTSecret)
	routes.RegisterAddressRoutes(r, revealService, cfg.JWTSecret)
	routes.RegisterLetterRoutes(r, letterService, scanService, cfg.JWTSecret)
	routes.RegisterSafetyRoutes(r, safetyService, cfg.JWTSecret)
	routes.RegisterAdminRoutes(r, adminService, auditService, cfg.JWTSecret)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	logger.Info("starting server", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
	if err := http.ListenAndServe(":"+cfg.Port, corsHandler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
