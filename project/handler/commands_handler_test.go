package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func commandBody(command, text string) string {
	v := url.Values{}
	v.Set("team_id", "T001")
	v.Set("channel_id", "C123")
	v.Set("user_id", "U001")
	v.Set("command", command)
	v.Set("text", text)
	return v.Encode()
}

func TestCommandsHandler_WholesaleApprove(t *testing.T) {
	svc := newFakeApprovalService()
	h := NewCommandsHandler(testSigningSecret, svc)

	body := commandBody("/wholesale-approve", `98765 name="Jane Doe"`)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, signedRequest(t, "/slack/commands", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	waitForCall(t, svc, "OnManualRequest")
	if len(svc.manualTokens) != 1 {
		t.Fatalf("manualTokens: got %d, want 1", len(svc.manualTokens))
	}
	tok := svc.manualTokens[0]
	if tok.SubjectID != "98765" {
		t.Errorf("SubjectID: got %q, want %q", tok.SubjectID, "98765")
	}
	if tok.SubjectName != "Jane Doe" {
		t.Errorf("SubjectName: got %q, want %q", tok.SubjectName, "Jane Doe")
	}
}

func TestCommandsHandler_UnquotedName(t *testing.T) {
	svc := newFakeApprovalService()
	h := NewCommandsHandler(testSigningSecret, svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, "/slack/commands", commandBody("/wholesale-approve", "12345 name=Acme")))

	waitForCall(t, svc, "OnManualRequest")
	if got := svc.manualTokens[0].SubjectName; got != "Acme" {
		t.Errorf("SubjectName: got %q, want %q", got, "Acme")
	}
}

func TestCommandsHandler_DefaultsName(t *testing.T) {
	svc := newFakeApprovalService()
	h := NewCommandsHandler(testSigningSecret, svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, "/slack/commands", commandBody("/wholesale-approve", "12345")))

	waitForCall(t, svc, "OnManualRequest")
	if got := svc.manualTokens[0].SubjectName; got != "Customer" {
		t.Errorf("SubjectName: got %q, want %q", got, "Customer")
	}
}

func TestCommandsHandler_MissingID(t *testing.T) {
	// ID なしは使用方法をエフェメラルで返し、提示は行わない
	svc := newFakeApprovalService()
	h := NewCommandsHandler(testSigningSecret, svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, "/slack/commands", commandBody("/wholesale-approve", `name="Jane Doe"`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "使用方法") {
		t.Errorf("使用方法の案内が含まれていない: %q", rec.Body.String())
	}
	assertNoCall(t, svc)
}

func TestCommandsHandler_UnknownCommand(t *testing.T) {
	svc := newFakeApprovalService()
	h := NewCommandsHandler(testSigningSecret, svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, "/slack/commands", commandBody("/other", "12345")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertNoCall(t, svc)
}

func TestCommandsHandler_RejectsBadSignature(t *testing.T) {
	h := NewCommandsHandler(testSigningSecret, newFakeApprovalService())

	req := httptest.NewRequest(http.MethodPost, "/slack/commands",
		strings.NewReader(commandBody("/wholesale-approve", "12345")))
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")
	req.Header.Set("X-Slack-Request-Timestamp", "0")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
