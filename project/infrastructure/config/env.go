package config

import (
	"context"
	"fmt"
	"os"

	"wholesale-bot/project/infrastructure/secret"
)

// Config は環境変数から読み込まれるアプリケーション設定を表します
type Config struct {
	// 基本設定
	GcpProject string

	// WatchChannelID は承認依頼を監視するSlackチャンネルのID。
	// 空の場合はどのメッセージにも反応しません（チャンネル移設時はここを変更）
	WatchChannelID string

	// Slack API設定（Secret Manager から読み込み）
	SlackSigningSecret string
	SlackBotToken      string

	// Shopify Admin API設定
	ShopifyDomain     string // 例: carismodesign.myshopify.com
	ShopifyAdminToken string // Secret Manager から読み込み
	ShopifyAPIVersion string

	// Firestore設定
	FirestoreProjectID       string
	CollectionProcessedEvents string
}

// NewConfig は環境変数から設定を読み込み、Config構造体を返します。
// センシティブな情報（Slack認証情報・Shopifyトークン）はSecret Managerから取得します
func NewConfig(ctx context.Context) (*Config, error) {
	gcpProject := mustGetEnv("GCP_PROJECT")

	// Secret Manager クライアントを初期化（設定読み込み中のみ使用）
	secretMgr, err := secret.NewManager(ctx, gcpProject)
	if err != nil {
		return nil, fmt.Errorf("Secret Manager 初期化失敗: %w", err)
	}
	defer secretMgr.Close()

	slackSigningSecret, err := secretMgr.GetSecret(ctx, "slack-signing-secret")
	if err != nil {
		return nil, fmt.Errorf("SLACK_SIGNING_SECRET 取得失敗: %w", err)
	}

	slackBotToken, err := secretMgr.GetSecret(ctx, "slack-bot-token")
	if err != nil {
		return nil, fmt.Errorf("SLACK_BOT_TOKEN 取得失敗: %w", err)
	}

	shopifyAdminToken, err := secretMgr.GetSecret(ctx, "shopify-admin-token")
	if err != nil {
		return nil, fmt.Errorf("SHOPIFY_ADMIN_TOKEN 取得失敗: %w", err)
	}

	// Firestore は基本的に同一プロジェクトを使う（分ける場合のみ環境変数で上書き）
	firestoreProject := os.Getenv("FIRESTORE_PROJECT_ID")
	if firestoreProject == "" {
		firestoreProject = gcpProject
	}

	config := &Config{
		GcpProject: gcpProject,

		WatchChannelID: os.Getenv("WHOLESALE_APPROVAL_CHANNEL_ID"),

		SlackSigningSecret: slackSigningSecret,
		SlackBotToken:      slackBotToken,

		ShopifyDomain:     mustGetEnv("SHOPIFY_DOMAIN"),
		ShopifyAdminToken: shopifyAdminToken,
		ShopifyAPIVersion: getEnvOrDefault("SHOPIFY_API_VERSION", "2025-10"),

		FirestoreProjectID:        firestoreProject,
		CollectionProcessedEvents: getEnvOrDefault("FS_COLLECTION_PROCESSED_EVENTS", "processed_events"),
	}

	return config, nil
}

// mustGetEnv は環境変数を取得し、存在しない場合はパニックします
func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable not set: %s", key))
	}
	return value
}

// getEnvOrDefault は環境変数を取得し、未設定の場合はデフォルト値を返します
func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
