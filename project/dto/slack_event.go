package dto

import "strings"

// SlackEventRequest は Slack Events API のリクエスト全体を表します
type SlackEventRequest struct {
	Token          string               `json:"token"`
	TeamID         string               `json:"team_id"`
	APIAppID       string               `json:"api_app_id"`
	Event          SlackEvent           `json:"event"`
	Type           string               `json:"type"` // "event_callback", "url_verification"
	EventID        string               `json:"event_id"`
	EventTime      int64                `json:"event_time"`
	Challenge      string               `json:"challenge,omitempty"` // URL検証時のみ
	Authorizations []SlackAuthorization `json:"authorizations,omitempty"`
}

// SlackEvent は message イベントを表現する構造体です。
// 担当チャンネルに流れる通知は送信元によって表現形式が揺れる
// （プレーンテキスト / レガシー添付 / Block Kit / リッチテキスト）ため、
// 本文になりうるフィールドをすべて保持します
type SlackEvent struct {
	Type      string `json:"type"`                // "message" など
	User      string `json:"user"`                // イベント発生者（メッセージ送信者）
	Text      string `json:"text"`                // メッセージ本文（Bot投稿では空のことがある）
	Channel   string `json:"channel"`             // チャンネルID
	Timestamp string `json:"ts"`                  // メッセージTS
	ThreadTS  string `json:"thread_ts,omitempty"` // スレッドTS（スレッド内の場合）
	BotID     string `json:"bot_id,omitempty"`    // Bot投稿の場合
	SubType   string `json:"subtype,omitempty"`   // "bot_message" など

	// 本文の代替表現
	Attachments    []SlackAttachment    `json:"attachments,omitempty"`
	Blocks         []SlackBlock         `json:"blocks,omitempty"`
	InitialComment *SlackInitialComment `json:"initial_comment,omitempty"` // ファイル共有時のコメント
}

// SlackAttachment はレガシー形式の添付を表します
type SlackAttachment struct {
	Title  string                 `json:"title,omitempty"`
	Text   string                 `json:"text,omitempty"`
	Fields []SlackAttachmentField `json:"fields,omitempty"`
}

// SlackAttachmentField は添付内の表形式フィールドを表します
type SlackAttachmentField struct {
	Title string `json:"title,omitempty"`
	Value string `json:"value,omitempty"`
}

// SlackBlock は Block Kit のブロックを表します（本文抽出に必要な範囲のみ）
type SlackBlock struct {
	Type     string                 `json:"type"` // "section", "header", "rich_text" など
	Text     *SlackTextObject       `json:"text,omitempty"`
	Fields   []SlackTextObject      `json:"fields,omitempty"`
	Elements []SlackRichTextElement `json:"elements,omitempty"` // rich_text のみ
}

// SlackTextObject は Block Kit のテキストオブジェクトです
type SlackTextObject struct {
	Type string `json:"type"` // "plain_text" or "mrkdwn"
	Text string `json:"text"`
}

// SlackRichTextElement は rich_text ブロック直下の要素です
type SlackRichTextElement struct {
	Type     string              `json:"type"` // "rich_text_section" など
	Elements []SlackRichTextSpan `json:"elements,omitempty"`
}

// SlackRichTextSpan は rich_text_section 内のテキスト断片です
type SlackRichTextSpan struct {
	Type string `json:"type"` // "text", "link" など
	Text string `json:"text,omitempty"`
}

// SlackInitialComment はファイル共有に添えられたコメントです
type SlackInitialComment struct {
	Comment string `json:"comment,omitempty"`
}

// SlackAuthorization は OAuth 認可情報を表します
type SlackAuthorization struct {
	EnterpriseID string `json:"enterprise_id,omitempty"`
	TeamID       string `json:"team_id"`
	UserID       string `json:"user_id"`
	IsBot        bool   `json:"is_bot"`
}

// CollectText はイベント内の可視テキストをすべて集め、改行区切りの
// 一本の文字列に正規化します。本文テキスト → 添付（タイトル・本文・
// フィールド）→ ブロック（section/header本文・sectionフィールド・
// リッチテキスト）→ ファイル共有コメント の順に走査します。
// どの表現も存在しない場合は空文字を返します（エラーにはしない）
func (e *SlackEvent) CollectText() string {
	var parts []string
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}

	// プレーンテキスト
	add(e.Text)

	// レガシー添付
	for _, a := range e.Attachments {
		add(a.Title)
		add(a.Text)
		for _, f := range a.Fields {
			add(f.Title)
			add(f.Value)
		}
	}

	// Block Kit
	for _, b := range e.Blocks {
		switch b.Type {
		case "section", "header":
			if b.Text != nil {
				add(b.Text.Text)
			}
			// section のフィールド（通知Botはよくこの形式を使う）
			for _, fld := range b.Fields {
				add(fld.Text)
			}
		case "rich_text":
			for _, el := range b.Elements {
				if el.Type != "rich_text_section" {
					continue
				}
				// セクション内の断片は区切りなしで連結
				var sb strings.Builder
				for _, span := range el.Elements {
					sb.WriteString(span.Text)
				}
				add(sb.String())
			}
		}
	}

	// ファイル共有のコメント
	if e.InitialComment != nil {
		add(e.InitialComment.Comment)
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}
