package store

import (
	"context"
	"fmt"
	"time"

	"wholesale-bot/project/infrastructure/config"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// isAlreadyExists は Firestore の AlreadyExists エラーを判定するヘルパー関数です
func isAlreadyExists(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.AlreadyExists
}

// FirestoreRepo は domain.ProcessedEventRepository の Firestore 実装です。
// Slack はイベントや操作を再送してくるため、処理済みキーをドキュメントの
// 作成一回性（Create は既存IDに対して失敗する）で占有します
type FirestoreRepo struct {
	cli          *firestore.Client
	processedCol string
}

// NewFirestoreRepo は Firestore リポジトリを初期化します
func NewFirestoreRepo(ctx context.Context, cfg *config.Config) (*FirestoreRepo, error) {
	client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: クライアント初期化失敗: %w", err)
	}

	return &FirestoreRepo{
		cli:          client,
		processedCol: cfg.CollectionProcessedEvents,
	}, nil
}

// Claim は指定キーの処理権を取得します。
// ドキュメントの新規作成に成功すれば初回 (true)、AlreadyExists なら
// 既にどこかのリクエストが処理済み (false) です
func (repo *FirestoreRepo) Claim(ctx context.Context, eventKey string) (bool, error) {
	docRef := repo.cli.Collection(repo.processedCol).Doc(eventKey)

	_, err := docRef.Create(ctx, map[string]interface{}{
		"claimed_at": time.Now().Unix(),
	})
	if err != nil {
		if isAlreadyExists(err) {
			return false, nil
		}
		return false, fmt.Errorf("firestore: イベント占有失敗 (key=%s): %w", eventKey, err)
	}

	return true, nil
}

// Close は Firestore クライアントを閉じます
func (repo *FirestoreRepo) Close() error {
	if repo.cli != nil {
		return repo.cli.Close()
	}
	return nil
}
