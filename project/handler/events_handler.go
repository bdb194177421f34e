package handler

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"wholesale-bot/project/domain"
	"wholesale-bot/project/dto"
	"wholesale-bot/project/infrastructure/httpsec"
	"wholesale-bot/project/service"
)

// EventsHandler は Slack Events API からのイベントを処理します
type EventsHandler struct {
	signingSecret   string
	watchChannelID  string
	processedEvents domain.ProcessedEventRepository
	approvalService service.ApprovalService
}

// NewEventsHandler はイベントハンドラーを作成します
func NewEventsHandler(signingSecret, watchChannelID string, processedEvents domain.ProcessedEventRepository, approvalService service.ApprovalService) *EventsHandler {
	return &EventsHandler{
		signingSecret:   signingSecret,
		watchChannelID:  watchChannelID,
		processedEvents: processedEvents,
		approvalService: approvalService,
	}
}

// ServeHTTP は Slack イベント受信エンドポイントです
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// リクエスト本体を読み込む
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "リクエスト本体の読み込み失敗", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// まず url_verification かどうかを確認（署名検証の前に）
	var preCheck struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &preCheck); err == nil {
		if preCheck.Type == "url_verification" {
			// URL 検証に応答（署名検証をスキップ）
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(preCheck.Challenge))
			return
		}
	}

	// Slack 署名検証（url_verification 以外のリクエスト）
	signature := r.Header.Get("X-Slack-Signature")
	timestamp := r.Header.Get("X-Slack-Request-Timestamp")
	if err := httpsec.VerifySlackSignature(h.signingSecret, signature, timestamp, string(body)); err != nil {
		http.Error(w, "署名検証失敗", http.StatusUnauthorized)
		return
	}

	// JSON パース（完全版）
	var req dto.SlackEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "JSON パース失敗", http.StatusBadRequest)
		return
	}

	// event_callback のみ処理
	if req.Type != "event_callback" {
		w.WriteHeader(http.StatusOK)
		return
	}

	// イベント処理。失敗しても Slack 側への応答は成功にして、
	// 同一イベントの再送ループを避ける
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := h.handleEvent(ctx, req); err != nil {
		log.Printf("イベント処理エラー: %v", err)
	}

	w.WriteHeader(http.StatusOK)
}

// handleEvent は個別のイベントを処理します
func (h *EventsHandler) handleEvent(ctx context.Context, req dto.SlackEventRequest) error {
	// 監視対象は message イベントのみ
	if req.Event.Type != "message" {
		return nil
	}

	// 監視チャンネル以外は無視（未設定の場合はすべて無視）
	if h.watchChannelID == "" || req.Event.Channel != h.watchChannelID {
		return nil
	}

	// Slack の再送（応答遅延時など）で同じイベントを二重処理しないよう、
	// event_id 単位で処理権を占有する
	if req.EventID != "" {
		claimed, err := h.processedEvents.Claim(ctx, "evt:"+req.EventID)
		if err != nil {
			// ストア障害時は処理を止めない（サーフェスの重複提示は許容する）
			log.Printf("イベント占有確認失敗 (event_id=%s): %v", req.EventID, err)
		} else if !claimed {
			return nil
		}
	}

	// 本文を一本のテキストに正規化（プレーン・添付・ブロック・リッチテキスト）
	bodyText := req.Event.CollectText()
	if bodyText == "" {
		return nil
	}

	event := service.ChannelMessageEvent{
		ChannelID: req.Event.Channel,
		MessageTS: req.Event.Timestamp,
		ThreadTS:  req.Event.ThreadTS,
		Text:      bodyText,
	}

	return h.approvalService.OnChannelMessage(ctx, &event)
}
