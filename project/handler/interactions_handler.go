package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"wholesale-bot/project/domain"
	"wholesale-bot/project/dto"
	"wholesale-bot/project/infrastructure/httpsec"
	"wholesale-bot/project/service"
)

// resolveTimeout はバックグラウンドのアウトカム確定処理（タグ変更＋通知）の上限時間です
const resolveTimeout = 60 * time.Second

// InteractionsHandler は Slack Interactivity（ボタン押下・モーダル送信）を処理します。
// Slack は3秒以内の応答を要求するため、確定処理はバックグラウンドに切り離し、
// 受信確認だけを即座に返します
type InteractionsHandler struct {
	signingSecret   string
	processedEvents domain.ProcessedEventRepository
	approvalService service.ApprovalService
}

// NewInteractionsHandler はインタラクションハンドラーを作成します
func NewInteractionsHandler(signingSecret string, processedEvents domain.ProcessedEventRepository, approvalService service.ApprovalService) *InteractionsHandler {
	return &InteractionsHandler{
		signingSecret:   signingSecret,
		processedEvents: processedEvents,
		approvalService: approvalService,
	}
}

// ServeHTTP は Slack インタラクション受信エンドポイントです
func (h *InteractionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// body を読み込む（署名検証用）
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "リクエスト本体の読み込み失敗", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Slack 署名検証
	if err := httpsec.VerifySlackSignature(h.signingSecret,
		r.Header.Get("X-Slack-Signature"),
		r.Header.Get("X-Slack-Request-Timestamp"),
		string(body)); err != nil {
		http.Error(w, "署名検証失敗", http.StatusUnauthorized)
		return
	}

	// ペイロードは form の payload フィールドに JSON で入っている
	values := parseFormFromBytes(body)
	var payload dto.SlackInteractionPayload
	if err := json.Unmarshal([]byte(values.Get("payload")), &payload); err != nil {
		http.Error(w, "ペイロード解析失敗", http.StatusBadRequest)
		return
	}

	switch payload.Type {
	case "block_actions":
		h.handleBlockActions(w, &payload)
	case "view_submission":
		h.handleViewSubmission(w, &payload)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// handleBlockActions はボタン押下を処理します。
// 受信確認を先に返し、タグ変更はバックグラウンドで行います
func (h *InteractionsHandler) handleBlockActions(w http.ResponseWriter, payload *dto.SlackInteractionPayload) {
	if len(payload.Actions) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}
	action := payload.Actions[0]

	channelID := payload.Container.ChannelID
	if payload.Channel != nil && payload.Channel.ID != "" {
		channelID = payload.Channel.ID
	}

	act := service.ReviewerAction{
		ActionID:  action.ActionID,
		TokenRaw:  action.Value,
		TriggerID: payload.TriggerID,
		ChannelID: channelID,
		ThreadTS:  replyThreadTS(payload.Container),
	}

	// 同一クリックの再送を抑制する。別のレビュアーの別クリックは
	// action_ts が異なるため、独立した操作として通る
	if !h.claim(fmt.Sprintf("action:%s:%s", action.ActionTS, action.ActionID)) {
		w.WriteHeader(http.StatusOK)
		return
	}

	// 確定処理はバックグラウンドへ（タグ変更のネットワーク往復で ack を塞がない）
	go h.resolveAsync(func(ctx context.Context) error {
		return h.approvalService.OnReviewerAction(ctx, &act)
	})

	w.WriteHeader(http.StatusOK)
}

// handleViewSubmission はカスタム料率モーダルの送信を処理します。
// 入力が不正な場合はモーダルを開いたままフィールドエラーを返し、状態遷移しません
func (h *InteractionsHandler) handleViewSubmission(w http.ResponseWriter, payload *dto.SlackInteractionPayload) {
	if payload.View == nil || payload.View.CallbackID != service.RateModalCallbackID {
		w.WriteHeader(http.StatusOK)
		return
	}

	rawRate := ""
	if payload.View.State != nil {
		rawRate = payload.View.State.Values[service.RateBlockID][service.RateInputActionID].Value
	}

	// 検証エラーは ack と同じ応答で返す必要があるため、ここで同期的に検証する
	if _, err := domain.ParseCustomRate(rawRate); err != nil {
		if !errors.Is(err, domain.ErrInvalid) {
			log.Printf("料率検証で想定外エラー: %v", err)
		}
		writeViewErrors(w, map[string]string{
			service.RateBlockID: fmt.Sprintf("Please enter an integer between %d and %d.", domain.MinCustomRate, domain.MaxCustomRate),
		})
		return
	}

	sub := service.CustomRateSubmission{
		TokenRaw:  payload.View.PrivateMetadata,
		RawRate:   rawRate,
		ChannelID: payload.Container.ChannelID,
		ThreadTS:  replyThreadTS(payload.Container),
	}

	// 同一送信の再送を抑制（モーダルは ack で閉じるため view_id 単位で一意）
	if !h.claim("view:" + payload.View.ID) {
		w.WriteHeader(http.StatusOK)
		return
	}

	go h.resolveAsync(func(ctx context.Context) error {
		return h.approvalService.OnCustomRateSubmission(ctx, &sub)
	})

	// 空の 200 でモーダルを閉じる
	w.WriteHeader(http.StatusOK)
}

// resolveAsync は確定処理を専用のタイムアウト付きコンテキストで実行します。
// 失敗はログに記録するのみで、リトライも再提示もしません（終端状態）
func (h *InteractionsHandler) resolveAsync(fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		log.Printf("アウトカム確定処理エラー: %v", err)
	}
}

// claim は操作キーの処理権を取得します。ストア障害時は処理を優先して通します
func (h *InteractionsHandler) claim(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	claimed, err := h.processedEvents.Claim(ctx, key)
	if err != nil {
		log.Printf("操作占有確認失敗 (key=%s): %v", key, err)
		return true
	}
	return claimed
}

// replyThreadTS は通知の返信先スレッドTSを決めます
func replyThreadTS(c dto.SlackContainer) string {
	if c.ThreadTS != "" {
		return c.ThreadTS
	}
	return c.MessageTS
}

// writeViewErrors は view_submission へのフィールドエラー応答を書き込みます
func writeViewErrors(w http.ResponseWriter, fieldErrors map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	resp := dto.SlackViewErrorsResponse{
		ResponseAction: "errors",
		Errors:         fieldErrors,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("検証エラー応答の書き込み失敗: %v", err)
	}
}
