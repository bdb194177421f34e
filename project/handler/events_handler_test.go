package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"wholesale-bot/project/domain"
	"wholesale-bot/project/service"
)

const testSigningSecret = "test-signing-secret"

// signedRequest はテスト用に Slack 互換の署名ヘッダ付きリクエストを作ります
func signedRequest(t *testing.T, path, body string) *http.Request {
	t.Helper()

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	fmt.Fprintf(mac, "v0:%s:%s", ts, body)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	return req
}

// fakeClaimRepo は domain.ProcessedEventRepository のメモリ実装です
type fakeClaimRepo struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{seen: make(map[string]bool)}
}

func (r *fakeClaimRepo) Claim(ctx context.Context, eventKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	if r.seen[eventKey] {
		return false, nil
	}
	r.seen[eventKey] = true
	return true, nil
}

// fakeApprovalService は service.ApprovalService の呼び出し記録用実装です。
// バックグラウンド実行されるメソッドの完了は called チャネルで待ち合わせます
type fakeApprovalService struct {
	mu            sync.Mutex
	channelEvents []service.ChannelMessageEvent
	manualTokens  []domain.DecisionToken
	actions       []service.ReviewerAction
	submissions   []service.CustomRateSubmission
	called        chan string
}

func newFakeApprovalService() *fakeApprovalService {
	return &fakeApprovalService{called: make(chan string, 16)}
}

func (f *fakeApprovalService) OnChannelMessage(ctx context.Context, ev *service.ChannelMessageEvent) error {
	f.mu.Lock()
	f.channelEvents = append(f.channelEvents, *ev)
	f.mu.Unlock()
	f.called <- "OnChannelMessage"
	return nil
}

func (f *fakeApprovalService) OnManualRequest(ctx context.Context, channelID, threadTS string, token domain.DecisionToken) error {
	f.mu.Lock()
	f.manualTokens = append(f.manualTokens, token)
	f.mu.Unlock()
	f.called <- "OnManualRequest"
	return nil
}

func (f *fakeApprovalService) OnReviewerAction(ctx context.Context, act *service.ReviewerAction) error {
	f.mu.Lock()
	f.actions = append(f.actions, *act)
	f.mu.Unlock()
	f.called <- "OnReviewerAction"
	return nil
}

func (f *fakeApprovalService) OnCustomRateSubmission(ctx context.Context, sub *service.CustomRateSubmission) error {
	f.mu.Lock()
	f.submissions = append(f.submissions, *sub)
	f.mu.Unlock()
	f.called <- "OnCustomRateSubmission"
	return nil
}

// waitForCall はバックグラウンド処理の完了を待ちます
func waitForCall(t *testing.T, f *fakeApprovalService, method string) {
	t.Helper()
	select {
	case got := <-f.called:
		if got != method {
			t.Fatalf("呼ばれたメソッド: got %s, want %s", got, method)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("%s が呼ばれなかった", method)
	}
}

// assertNoCall は追加の呼び出しが起きないことを確認します
func assertNoCall(t *testing.T, f *fakeApprovalService) {
	t.Helper()
	select {
	case got := <-f.called:
		t.Fatalf("想定外の呼び出し: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventsHandler_URLVerification(t *testing.T) {
	h := NewEventsHandler(testSigningSecret, "C123", newFakeClaimRepo(), newFakeApprovalService())

	// URL検証は署名なしで応答する
	body := `{"type":"url_verification","challenge":"challenge-token"}`
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "challenge-token" {
		t.Errorf("body: got %q, want %q", got, "challenge-token")
	}
}

func TestEventsHandler_RejectsBadSignature(t *testing.T) {
	h := NewEventsHandler(testSigningSecret, "C123", newFakeClaimRepo(), newFakeApprovalService())

	body := `{"type":"event_callback","event":{"type":"message","channel":"C123","ts":"1.1","text":"x"}}`
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")
	req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestEventsHandler_TriggerMessage(t *testing.T) {
	svc := newFakeApprovalService()
	h := NewEventsHandler(testSigningSecret, "C123", newFakeClaimRepo(), svc)

	body := `{
		"type": "event_callback",
		"event_id": "Ev001",
		"event": {
			"type": "message",
			"channel": "C123",
			"ts": "1700000000.000100",
			"text": "New wholesale signup, approve directly in this thread:\nName: Jane Doe\nCustomer ID: 98765"
		}
	}`
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, signedRequest(t, "/slack/events", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	waitForCall(t, svc, "OnChannelMessage")
	if len(svc.channelEvents) != 1 {
		t.Fatalf("channelEvents: got %d, want 1", len(svc.channelEvents))
	}
	ev := svc.channelEvents[0]
	if ev.ChannelID != "C123" || ev.MessageTS != "1700000000.000100" {
		t.Errorf("イベント属性が不正: %+v", ev)
	}
	if !strings.Contains(ev.Text, "Customer ID: 98765") {
		t.Errorf("正規化テキストが不正: %q", ev.Text)
	}
}

func TestEventsHandler_IgnoresOtherChannels(t *testing.T) {
	svc := newFakeApprovalService()
	h := NewEventsHandler(testSigningSecret, "C123", newFakeClaimRepo(), svc)

	body := `{"type":"event_callback","event_id":"Ev002","event":{"type":"message","channel":"C999","ts":"1.1","text":"New wholesale signup, approve\nCustomer ID: 1234"}}`
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, signedRequest(t, "/slack/events", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	assertNoCall(t, svc)
}

func TestEventsHandler_WatchChannelUnset(t *testing.T) {
	// 監視チャンネル未設定ならどのメッセージにも反応しない
	svc := newFakeApprovalService()
	h := NewEventsHandler(testSigningSecret, "", newFakeClaimRepo(), svc)

	body := `{"type":"event_callback","event_id":"Ev003","event":{"type":"message","channel":"C123","ts":"1.1","text":"x"}}`
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, signedRequest(t, "/slack/events", body))
	assertNoCall(t, svc)
}

func TestEventsHandler_DeduplicatesRedelivery(t *testing.T) {
	// Slack の再送（同一 event_id）は一度しか処理しない
	svc := newFakeApprovalService()
	h := NewEventsHandler(testSigningSecret, "C123", newFakeClaimRepo(), svc)

	body := `{"type":"event_callback","event_id":"Ev004","event":{"type":"message","channel":"C123","ts":"1.1","text":"New wholesale signup, approve directly in this thread:\nCustomer ID: 1234"}}`

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, signedRequest(t, "/slack/events", body))
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d", rec.Code)
		}
	}

	waitForCall(t, svc, "OnChannelMessage")
	assertNoCall(t, svc)
}
