package dto

// SlackInteractionPayload は Interactivity エンドポイントに届くペイロードです。
// ボタン押下（block_actions）とモーダル送信（view_submission）の両方を表します
type SlackInteractionPayload struct {
	Type      string                   `json:"type"` // "block_actions", "view_submission"
	TriggerID string                   `json:"trigger_id,omitempty"`
	User      SlackInteractionUser     `json:"user"`
	Container SlackContainer           `json:"container"`
	Actions   []SlackBlockAction       `json:"actions,omitempty"` // block_actions のみ
	View      *SlackView               `json:"view,omitempty"`    // view_submission のみ
	Channel   *SlackInteractionChannel `json:"channel,omitempty"`
}

// SlackInteractionUser は操作したユーザーです
type SlackInteractionUser struct {
	ID   string `json:"id"`
	Name string `json:"username,omitempty"`
}

// SlackInteractionChannel は操作が発生したチャンネルです
type SlackInteractionChannel struct {
	ID string `json:"id"`
}

// SlackContainer は操作元メッセージの位置情報です。
// モーダル送信時にもここから元スレッドを辿れます
type SlackContainer struct {
	Type      string `json:"type,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
	MessageTS string `json:"message_ts,omitempty"`
	ThreadTS  string `json:"thread_ts,omitempty"`
	ViewID    string `json:"view_id,omitempty"`
}

// SlackBlockAction は押されたボタンの情報です。
// Value には決定トークン（不透明文字列）がそのまま入っています
type SlackBlockAction struct {
	ActionID string `json:"action_id"`
	BlockID  string `json:"block_id,omitempty"`
	Value    string `json:"value,omitempty"`
	ActionTS string `json:"action_ts,omitempty"`
}

// SlackView はモーダルビューの状態です
type SlackView struct {
	ID              string          `json:"id"`
	CallbackID      string          `json:"callback_id"`
	PrivateMetadata string          `json:"private_metadata,omitempty"`
	State           *SlackViewState `json:"state,omitempty"`
}

// SlackViewState は入力ブロックの値を保持します
// （block_id → action_id → 値 の二段マップ）
type SlackViewState struct {
	Values map[string]map[string]SlackViewStateValue `json:"values"`
}

// SlackViewStateValue は単一入力要素の値です
type SlackViewStateValue struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
}

// SlackViewErrorsResponse は view_submission への検証エラー応答です。
// モーダルは開いたまま、指定ブロックにエラー文言が表示されます
type SlackViewErrorsResponse struct {
	ResponseAction string            `json:"response_action"` // 常に "errors"
	Errors         map[string]string `json:"errors"`          // block_id → エラー文言
}
