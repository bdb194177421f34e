package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"wholesale-bot/project/handler"
	"wholesale-bot/project/infrastructure/config"
	"wholesale-bot/project/infrastructure/shopify"
	"wholesale-bot/project/infrastructure/slack"
	"wholesale-bot/project/infrastructure/store"
	"wholesale-bot/project/service"

	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()

	// ローカル実行用に .env があれば読み込む（本番は環境変数のみ）
	_ = godotenv.Load()

	// 1. 設定を読み込む
	cfg, err := config.NewConfig(ctx)
	if err != nil {
		log.Fatalf("設定読み込み失敗: %v", err)
	}

	// 2. 依存関係を初期化
	// Firestore リポジトリ（処理済みイベントの占有用）
	repo, err := store.NewFirestoreRepo(ctx, cfg)
	if err != nil {
		log.Fatalf("Firestore 初期化失敗: %v", err)
	}
	defer repo.Close()

	// Slack API ポート実装
	slackClient := slack.NewClient(cfg.SlackBotToken)

	// Shopify Admin API ポート実装
	shopifyClient := shopify.NewClient(cfg)

	// 3. サービス層を初期化
	approvalService := service.NewApprovalService(slackClient, shopifyClient)

	// 4. HTTP ハンドラーを設定
	mux := http.NewServeMux()

	// Slack イベント受信
	mux.Handle("/slack/events", handler.NewEventsHandler(cfg.SlackSigningSecret, cfg.WatchChannelID, repo, approvalService))

	// Slack インタラクション（ボタン・モーダル）
	mux.Handle("/slack/interactions", handler.NewInteractionsHandler(cfg.SlackSigningSecret, repo, approvalService))

	// Slack スラッシュコマンド
	mux.Handle("/slack/commands", handler.NewCommandsHandler(cfg.SlackSigningSecret, approvalService))

	// ヘルスチェック
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// 5. サーバー起動
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("サーバー起動: %s", addr)
	if cfg.WatchChannelID == "" {
		log.Printf("警告: WHOLESALE_APPROVAL_CHANNEL_ID が未設定です（メッセージ検知は無効）")
	} else {
		log.Printf("監視チャンネル: %s", cfg.WatchChannelID)
	}

	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Fatalf("サーバーエラー: %v", err)
	}
}
