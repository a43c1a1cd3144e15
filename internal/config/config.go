package config

import (
	"crypto/rsa"
	"encoding/base64"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/snapsweep/media-service/internal/utils"
)

const (
	AppName             = "media-service"
	LDConnectionTimeout = 5 * time.Second
)

type Config struct {
	AppName          string
	AppPort          string
	DBUrl            string
	MediaBackend     string // "s3" or "memory"
	MediaS3Bucket    string
	MediaS3Prefix    string
	StripeSecretKey  string
	StripeCustomerID string
	RSAPublicKey     *rsa.PublicKey

	LDFlag_StuckCommitStaleMinutes int
	LDFlag_SeedDbWithTestData      bool
}

func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}

	mediaBackend := os.Getenv("MEDIA_BACKEND")
	if mediaBackend == "" {
		mediaBackend = "s3"
	}
	if mediaBackend != "s3" && mediaBackend != "memory" {
		utils.Logger.Fatalf("MEDIA_BACKEND must be 's3' or 'memory', got %q", mediaBackend)
	}

	mediaS3Bucket := os.Getenv("MEDIA_S3_BUCKET")
	if mediaBackend == "s3" && mediaS3Bucket == "" {
		utils.Logger.Fatal("MEDIA_S3_BUCKET env var is missing")
	}
	mediaS3Prefix := os.Getenv("MEDIA_S3_PREFIX")

	stripeSecretKey := os.Getenv("STRIPE_SECRET_KEY")
	stripeCustomerID := os.Getenv("STRIPE_CUSTOMER_ID")
	if stripeSecretKey != "" && stripeCustomerID == "" {
		utils.Logger.Fatal("STRIPE_CUSTOMER_ID env var is missing (required with STRIPE_SECRET_KEY)")
	}

	pubB64 := os.Getenv("JWT_PUBLIC_KEY_BASE64")
	if pubB64 == "" {
		utils.Logger.Fatal("JWT_PUBLIC_KEY_BASE64 env var is missing")
	}
	pubPEM, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("JWT_PUBLIC_KEY_BASE64 is not valid base64")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	staleMinutes := 60
	seedDbWithTestData := false

	ldSDKKey := os.Getenv("LD_SDK_KEY")
	if ldSDKKey != "" {
		ldClient, err := ld.MakeClient(ldSDKKey, LDConnectionTimeout)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
		}
		defer ldClient.Close()

		ctx := ldcontext.NewWithKind("service", AppName)

		staleFlag, err := ldClient.IntVariation("stuck_commit_stale_minutes", ctx, 60)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Error retrieving stuck_commit_stale_minutes flag")
		}
		utils.Logger.Debugf("stuck_commit_stale_minutes flag: %d", staleFlag)
		staleMinutes = staleFlag

		seedFlag, err := ldClient.BoolVariation("seed_db_with_test_data", ctx, false)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Error retrieving seed_db_with_test_data flag")
		}
		utils.Logger.Debugf("seed_db_with_test_data flag: %t", seedFlag)
		seedDbWithTestData = seedFlag
	} else {
		utils.Logger.Info("LD_SDK_KEY not set; using flag defaults")
	}

	return &Config{
		AppName:          AppName,
		AppPort:          appPort,
		DBUrl:            dbURL,
		MediaBackend:     mediaBackend,
		MediaS3Bucket:    mediaS3Bucket,
		MediaS3Prefix:    mediaS3Prefix,
		StripeSecretKey:  stripeSecretKey,
		StripeCustomerID: stripeCustomerID,
		RSAPublicKey:     pubKey,

		LDFlag_StuckCommitStaleMinutes: staleMinutes,
		LDFlag_SeedDbWithTestData:      seedDbWithTestData,
	}
}
