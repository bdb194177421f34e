package service

import (
	"context"

	"wholesale-bot/project/domain"
)

// SlackPort は Slack API 呼び出しのポートです
type SlackPort interface {
	// PostThreadMessage はスレッドにテキストメッセージを投稿します
	PostThreadMessage(ctx context.Context, channelID, threadTS, text string) error

	// PostDecisionSurface は決定サーフェス（ボタン付きメッセージ）をスレッドに投稿します
	PostDecisionSurface(ctx context.Context, channelID, threadTS, text string, options []DecisionOption) error

	// OpenRateModal はカスタム料率入力モーダルを開きます。
	// privateMetadata には決定トークンをそのまま載せ、送信時に回収します
	OpenRateModal(ctx context.Context, triggerID, privateMetadata string) error
}

// ShopifyPort は顧客レコードへのタグ変更のポートです
type ShopifyPort interface {
	// MutateTags は一回のタグ変更呼び出しを行います。
	// トランスポート障害・GraphQLエラー・userErrors のいずれも
	// domain.ErrMutationFailed を包んだエラーとして返します。リトライはしません
	MutateTags(ctx context.Context, req domain.TagMutationRequest) error
}
