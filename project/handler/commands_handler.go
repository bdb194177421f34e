package handler

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"wholesale-bot/project/domain"
	"wholesale-bot/project/dto"
	"wholesale-bot/project/infrastructure/httpsec"
	"wholesale-bot/project/service"
)

// コマンド引数パターン
var (
	// commandIDRe は顧客IDらしき数字列（4桁以上）を拾う
	commandIDRe = regexp.MustCompile(`(\d{4,})`)

	// commandNameRe は name="Some Name" または name=word 形式を拾う
	commandNameRe = regexp.MustCompile(`(?i)name=("([^"]+)"|(\S+))`)
)

// CommandsHandler は Slack スラッシュコマンドを処理します
type CommandsHandler struct {
	signingSecret   string
	approvalService service.ApprovalService
}

// NewCommandsHandler はコマンドハンドラーを作成します
func NewCommandsHandler(signingSecret string, approvalService service.ApprovalService) *CommandsHandler {
	return &CommandsHandler{
		signingSecret:   signingSecret,
		approvalService: approvalService,
	}
}

// ServeHTTP は Slack スラッシュコマンド受信エンドポイントです
func (h *CommandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// body を読み込む（署名検証用）
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"response_type":"ephemeral","text":"リクエスト読み込み失敗"}`)
		return
	}
	defer r.Body.Close()

	// Slack 署名検証
	if err := httpsec.VerifySlackSignature(h.signingSecret,
		r.Header.Get("X-Slack-Signature"),
		r.Header.Get("X-Slack-Request-Timestamp"),
		string(bodyBytes)); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"response_type":"ephemeral","text":"署名検証失敗"}`)
		return
	}

	// form パース（bodyBytesから再構築）
	values := parseFormFromBytes(bodyBytes)

	var cmd dto.SlackCommandRequest
	cmd.TeamID = values.Get("team_id")
	cmd.ChannelID = values.Get("channel_id")
	cmd.UserID = values.Get("user_id")
	cmd.Command = values.Get("command")
	cmd.Text = values.Get("text")

	// コマンド実行
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	switch cmd.Command {
	case "/wholesale-approve":
		h.handleWholesaleApprove(w, ctx, cmd)
	default:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"response_type":"ephemeral","text":"不明なコマンド: %s"}`, cmd.Command)
	}
}

// handleWholesaleApprove は /wholesale-approve コマンドを処理します。
// 動作確認用の手動エントリーポイントで、通常の検知フローと同じ
// 決定サーフェスを提示するだけです
func (h *CommandsHandler) handleWholesaleApprove(w http.ResponseWriter, ctx context.Context, cmd dto.SlackCommandRequest) {
	text := strings.TrimSpace(cmd.Text)

	customerID := ""
	if m := commandIDRe.FindStringSubmatch(text); m != nil {
		customerID = m[1]
	}

	name := "Customer"
	if m := commandNameRe.FindStringSubmatch(text); m != nil {
		if m[2] != "" {
			name = m[2]
		} else {
			name = m[3]
		}
	}

	if customerID == "" {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"response_type":"ephemeral","text":"使用方法: /wholesale-approve <CustomerID> name=\"<Customer Name>\""}`)
		return
	}

	token := domain.DecisionToken{
		SubjectName: name,
		SubjectID:   customerID,
	}

	if err := h.approvalService.OnManualRequest(ctx, cmd.ChannelID, "", token); err != nil {
		log.Printf("/wholesale-approve 実行エラー: %v", err)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"response_type":"ephemeral","text":"決定サーフェスの投稿に失敗しました"}`)
		return
	}

	// 提示済み。コマンド自体への追加応答は不要
	w.WriteHeader(http.StatusOK)
}

// parseFormFromBytes はバイト列からURLエンコードされたフォームをパースします
func parseFormFromBytes(b []byte) formValues {
	values := make(formValues)
	for _, pair := range strings.Split(string(b), "&") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			key, _ := url.QueryUnescape(parts[0])
			val, _ := url.QueryUnescape(parts[1])
			values[key] = append(values[key], val)
		}
	}
	return values
}

// formValues はurl.Valuesと同じインターフェースを提供
type formValues map[string][]string

func (v formValues) Get(key string) string {
	if vals, ok := v[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}
