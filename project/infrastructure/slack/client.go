package slack

import (
	"context"
	"fmt"

	"wholesale-bot/project/service"

	"github.com/slack-go/slack"
)

// Client は service.SlackPort の Slack SDK 実装です。
// ワークスペースは単一のため、起動時に受け取ったBotトークンをそのまま使います
type Client struct {
	api *slack.Client
}

// NewClient は Slack クライアントを初期化します
func NewClient(botToken string) *Client {
	return &Client{
		api: slack.New(botToken),
	}
}

// PostThreadMessage はスレッドにテキストメッセージを投稿します。
// threadTS が空の場合はチャンネル直下に投稿します
func (c *Client) PostThreadMessage(ctx context.Context, channelID, threadTS, text string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	_, _, err := c.api.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return fmt.Errorf("slack: メッセージ投稿失敗 (channel=%s, ts=%s): %w", channelID, threadTS, err)
	}

	return nil
}

// PostDecisionSurface は決定サーフェス（ボタン付きメッセージ）を投稿します。
// text はボタンを描画できないクライアント向けのフォールバック本文です
func (c *Client) PostDecisionSurface(ctx context.Context, channelID, threadTS, text string, options []service.DecisionOption) error {
	opts := []slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(buildActionBlocks(options)...),
	}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	_, _, err := c.api.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return fmt.Errorf("slack: 決定サーフェス投稿失敗 (channel=%s, ts=%s): %w", channelID, threadTS, err)
	}

	return nil
}

// OpenRateModal はカスタム料率入力モーダルを開きます。
// 決定トークンは private_metadata に載せ、view_submission で回収します
func (c *Client) OpenRateModal(ctx context.Context, triggerID, privateMetadata string) error {
	placeholder := slack.NewTextBlockObject(slack.PlainTextType, "e.g., 17", false, false)
	input := slack.NewPlainTextInputBlockElement(placeholder, service.RateInputActionID)
	label := slack.NewTextBlockObject(slack.PlainTextType, "Enter discount % (1–50)", false, false)

	view := slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      service.RateModalCallbackID,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, "Approve (custom %)", false, false),
		Submit:          slack.NewTextBlockObject(slack.PlainTextType, "Apply", false, false),
		Close:           slack.NewTextBlockObject(slack.PlainTextType, "Cancel", false, false),
		PrivateMetadata: privateMetadata,
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewInputBlock(service.RateBlockID, label, nil, input),
			},
		},
	}

	if _, err := c.api.OpenViewContext(ctx, triggerID, view); err != nil {
		return fmt.Errorf("slack: モーダル表示失敗 (trigger_id=%s): %w", triggerID, err)
	}

	return nil
}

// buildActionBlocks は決定サーフェスの選択肢を Block Kit のボタンに変換します
func buildActionBlocks(options []service.DecisionOption) []slack.Block {
	elements := make([]slack.BlockElement, 0, len(options))
	for _, opt := range options {
		text := slack.NewTextBlockObject(slack.PlainTextType, opt.Label, false, false)
		btn := slack.NewButtonBlockElement(opt.ActionID, opt.Value, text)
		switch opt.Style {
		case "primary":
			btn = btn.WithStyle(slack.StylePrimary)
		case "danger":
			btn = btn.WithStyle(slack.StyleDanger)
		}
		elements = append(elements, btn)
	}

	return []slack.Block{
		slack.NewActionBlock("wholesale_decision", elements...),
	}
}
