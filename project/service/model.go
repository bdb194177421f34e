package service

// Slack操作の識別子定義。
// ボタンの action_id とモーダルの callback_id / block_id は
// Slackアプリ設定と往復するため固定値です
const (
	// ActionApprove30 はデフォルト料率（30%）での承認ボタン
	ActionApprove30 = "approve_30"

	// ActionApprove25 は25%での承認ボタン
	ActionApprove25 = "approve_25"

	// ActionApproveOther はカスタム料率入力モーダルを開くボタン
	ActionApproveOther = "approve_other"

	// ActionReject は却下ボタン
	ActionReject = "reject"

	// RateModalCallbackID はカスタム料率モーダルの callback_id
	RateModalCallbackID = "approve_other_modal"

	// RateBlockID / RateInputActionID はモーダル内の料率入力欄の識別子
	RateBlockID       = "pct_block"
	RateInputActionID = "pct"
)

// ChannelMessageEvent は監視チャンネルに投稿されたメッセージを表します
type ChannelMessageEvent struct {
	// ChannelID はメッセージが投稿されたチャンネルのID
	ChannelID string

	// MessageTS はメッセージのタイムスタンプ
	MessageTS string

	// ThreadTS はスレッドTS（スレッド内投稿の場合のみ）
	ThreadTS string

	// Text は正規化済みの本文（dto.SlackEvent.CollectText の結果）
	Text string
}

// ReplyTS は決定サーフェスの返信先スレッドTSを返します。
// 親メッセージへの返信なら自分のTS、スレッド内ならそのスレッドのTSです
func (ev *ChannelMessageEvent) ReplyTS() string {
	if ev.ThreadTS != "" {
		return ev.ThreadTS
	}
	return ev.MessageTS
}

// ReviewerAction はレビュアーのボタン押下を表します
type ReviewerAction struct {
	// ActionID は押されたボタンの識別子（ActionApprove30 など）
	ActionID string

	// TokenRaw はボタン値に載せた決定トークン（不透明文字列）
	TokenRaw string

	// TriggerID はモーダルを開くためのトリガーID（approve_other のみ使用）
	TriggerID string

	// ChannelID / ThreadTS は結果通知の投稿先
	ChannelID string
	ThreadTS  string
}

// CustomRateSubmission はカスタム料率モーダルの送信を表します
type CustomRateSubmission struct {
	// TokenRaw はモーダルの private_metadata に載せた決定トークン
	TokenRaw string

	// RawRate はレビュアーが入力した料率文字列（未検証）
	RawRate string

	// ChannelID / ThreadTS は結果通知の投稿先（container から取得）
	ChannelID string
	ThreadTS  string
}

// DecisionOption は決定サーフェスの選択肢一つを表します。
// Block Kit への変換は Slack アダプター側で行います
type DecisionOption struct {
	// ActionID はボタンの識別子
	ActionID string

	// Label はボタンの表示文言
	Label string

	// Style はボタンのスタイル（"primary", "danger", 空文字はデフォルト）
	Style string

	// Value は全選択肢で同一の決定トークン
	Value string
}
