package domain

import "errors"

// ドメインエラー定義
var (
	// ErrInvalid は不正な値が設定された場合のエラー
	ErrInvalid = errors.New("ドメイン: 不正な値です")

	// ErrMutationFailed はバックエンドのタグ変更呼び出しが失敗した場合のエラー
	ErrMutationFailed = errors.New("ドメイン: タグ変更に失敗しました")
)
