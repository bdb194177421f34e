package domain

import (
	"context"
)

// ProcessedEventRepository は処理済みイベントの占有（クレーム）を担当します。
// Slackは応答が遅いとイベントや操作を再送するため、同一キーの処理を
// 一度だけに抑えることでタグ変更の at-most-once を保証します
type ProcessedEventRepository interface {
	// Claim は指定キーの処理権を取得します。
	// 初回の呼び出しは (true, nil)、既にクレーム済みのキーは (false, nil) を返します。
	// ストア障害時のみ error を返します
	Claim(ctx context.Context, eventKey string) (bool, error)
}
