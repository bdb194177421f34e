package service

import (
	"context"
	"fmt"

	"wholesale-bot/project/domain"
)

// ApprovalService は卸売申込の承認ワークフローを管理するサービスです
type ApprovalService interface {
	// OnChannelMessage は監視チャンネルへの投稿を受け取り、承認依頼であれば
	// 決定サーフェスをスレッドに提示します。承認依頼でなければ何もしません
	OnChannelMessage(ctx context.Context, ev *ChannelMessageEvent) error

	// OnManualRequest はスラッシュコマンドからの手動提示要求を処理します
	OnManualRequest(ctx context.Context, channelID, threadTS string, token domain.DecisionToken) error

	// OnReviewerAction はレビュアーのボタン押下を処理します。
	// プリセット承認・却下は即座にアウトカムを確定し、カスタム料率は
	// 入力モーダルを開きます
	OnReviewerAction(ctx context.Context, act *ReviewerAction) error

	// OnCustomRateSubmission はカスタム料率モーダルの送信を処理します。
	// 料率が不正な場合は domain.ErrInvalid を包んだエラーを返し、状態遷移しません
	OnCustomRateSubmission(ctx context.Context, sub *CustomRateSubmission) error
}

// approvalService は ApprovalService の実装です
type approvalService struct {
	sp SlackPort
	bp ShopifyPort
}

// NewApprovalService は ApprovalService のインスタンスを作成します
func NewApprovalService(sp SlackPort, bp ShopifyPort) ApprovalService {
	return &approvalService{
		sp: sp,
		bp: bp,
	}
}

// OnChannelMessage は承認依頼メッセージを検知し、決定サーフェスを提示します
func (as *approvalService) OnChannelMessage(ctx context.Context, ev *ChannelMessageEvent) error {
	// トリガー判定と申込者情報の抽出
	result := domain.ParseTriggerMessage(ev.Text)
	if !result.IsTrigger {
		// フレーズがあってもIDが解決できない場合はここに来る。
		// 操作対象のないサーフェスを出さないため、無言でスキップする
		return nil
	}

	token := domain.DecisionToken{
		SubjectName: result.SubjectName,
		SubjectID:   result.SubjectID,
	}

	lead := fmt.Sprintf("New wholesale signup detected for %s (ID %s). Choose an action:", token.SubjectName, token.SubjectID)
	if err := as.presentSurface(ctx, ev.ChannelID, ev.ReplyTS(), lead, token); err != nil {
		return fmt.Errorf("OnChannelMessage: 決定サーフェス提示失敗: %w", err)
	}

	return nil
}

// OnManualRequest はスラッシュコマンド経由で決定サーフェスを提示します
func (as *approvalService) OnManualRequest(ctx context.Context, channelID, threadTS string, token domain.DecisionToken) error {
	lead := fmt.Sprintf("Approve/reject wholesale for %s (ID %s):", token.SubjectName, token.SubjectID)
	if err := as.presentSurface(ctx, channelID, threadTS, lead, token); err != nil {
		return fmt.Errorf("OnManualRequest: 決定サーフェス提示失敗: %w", err)
	}
	return nil
}

// OnReviewerAction はボタン押下からアウトカム確定またはモーダル表示へ進めます
func (as *approvalService) OnReviewerAction(ctx context.Context, act *ReviewerAction) error {
	// ボタン値から申込者情報を復元（サーバー側にセッションは持たない）
	token, err := domain.DecodeDecisionToken(act.TokenRaw)
	if err != nil {
		return fmt.Errorf("OnReviewerAction: トークン復元失敗 (action_id=%s): %w", act.ActionID, err)
	}

	switch act.ActionID {
	case ActionApprove30:
		outcome, err := domain.ApprovedAtRate(domain.RateDefault)
		if err != nil {
			return fmt.Errorf("OnReviewerAction: アウトカム生成失敗: %w", err)
		}
		return as.resolveOutcome(ctx, token, outcome, act.ChannelID, act.ThreadTS)

	case ActionApprove25:
		outcome, err := domain.ApprovedAtRate(domain.RateAlternate)
		if err != nil {
			return fmt.Errorf("OnReviewerAction: アウトカム生成失敗: %w", err)
		}
		return as.resolveOutcome(ctx, token, outcome, act.ChannelID, act.ThreadTS)

	case ActionReject:
		return as.resolveOutcome(ctx, token, domain.RejectedOutcome(), act.ChannelID, act.ThreadTS)

	case ActionApproveOther:
		// トークンはモーダルの private_metadata にそのまま引き継ぐ
		if err := as.sp.OpenRateModal(ctx, act.TriggerID, act.TokenRaw); err != nil {
			return fmt.Errorf("OnReviewerAction: モーダル表示失敗: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("OnReviewerAction: 未知のアクションです (action_id=%s)", act.ActionID)
	}
}

// OnCustomRateSubmission はカスタム料率の送信からアウトカムを確定します
func (as *approvalService) OnCustomRateSubmission(ctx context.Context, sub *CustomRateSubmission) error {
	// 料率検証（ハンドラー側でも事前検証されるが、サービス層でも守る）
	rate, err := domain.ParseCustomRate(sub.RawRate)
	if err != nil {
		return fmt.Errorf("OnCustomRateSubmission: 料率検証失敗: %w", err)
	}

	token, err := domain.DecodeDecisionToken(sub.TokenRaw)
	if err != nil {
		return fmt.Errorf("OnCustomRateSubmission: トークン復元失敗: %w", err)
	}

	outcome, err := domain.ApprovedAtRate(rate)
	if err != nil {
		return fmt.Errorf("OnCustomRateSubmission: アウトカム生成失敗: %w", err)
	}

	return as.resolveOutcome(ctx, token, outcome, sub.ChannelID, sub.ThreadTS)
}

// presentSurface は決定トークンを符号化し、4つの選択肢を持つ
// 決定サーフェスをスレッドに投稿します
func (as *approvalService) presentSurface(ctx context.Context, channelID, threadTS, lead string, token domain.DecisionToken) error {
	encoded, err := token.Encode()
	if err != nil {
		return fmt.Errorf("presentSurface: トークン符号化失敗: %w", err)
	}

	options := buildDecisionOptions(encoded)
	if err := as.sp.PostDecisionSurface(ctx, channelID, threadTS, lead, options); err != nil {
		return fmt.Errorf("presentSurface: サーフェス投稿失敗 (channel=%s, ts=%s): %w", channelID, threadTS, err)
	}

	return nil
}

// buildDecisionOptions は決定サーフェスの選択肢一覧を生成します。
// 順序は固定で、全選択肢に同一のトークンを添付します（純粋・決定的）
func buildDecisionOptions(tokenValue string) []DecisionOption {
	return []DecisionOption{
		{ActionID: ActionApprove30, Label: "Approve at 30% (default)", Style: "primary", Value: tokenValue},
		{ActionID: ActionApprove25, Label: "Approve at 25%", Value: tokenValue},
		{ActionID: ActionApproveOther, Label: "Other (choose %)", Value: tokenValue},
		{ActionID: ActionReject, Label: "Reject", Style: "danger", Value: tokenValue},
	}
}

// resolveOutcome は一回限りのタグ変更を実行し、成否をスレッドに通知します。
// 成否に関わらずワークフローはここで終端し、自動リトライはしません
func (as *approvalService) resolveOutcome(ctx context.Context, token domain.DecisionToken, outcome domain.ApprovalOutcome, channelID, threadTS string) error {
	req := outcome.MutationRequest(token.SubjectID)
	if err := req.Validate(); err != nil {
		return fmt.Errorf("resolveOutcome: タグ変更要求が不正です: %w", err)
	}

	if err := as.bp.MutateTags(ctx, req); err != nil {
		// 失敗も終端。通知は一回だけ行い、サーフェスは再提示しない
		if perr := as.sp.PostThreadMessage(ctx, channelID, threadTS, failureText(outcome, err)); perr != nil {
			return fmt.Errorf("resolveOutcome: 失敗通知の投稿に失敗 (%v)。元エラー: %w", perr, err)
		}
		return fmt.Errorf("resolveOutcome: タグ変更失敗: %w", err)
	}

	if err := as.sp.PostThreadMessage(ctx, channelID, threadTS, successText(token, outcome)); err != nil {
		return fmt.Errorf("resolveOutcome: 成功通知の投稿に失敗: %w", err)
	}

	return nil
}

// successText はタグ変更成功時の通知文を生成します
func successText(token domain.DecisionToken, outcome domain.ApprovalOutcome) string {
	if outcome.Rejected {
		return fmt.Sprintf("🚫 Rejected *%s*. Tag `%s` removed. No further action needed.", token.SubjectName, outcome.Tag())
	}
	return fmt.Sprintf("✅ Approved *%s* at *%d%%*. Tag `%s` added. No further action needed.", token.SubjectName, outcome.Rate, outcome.Tag())
}

// failureText はタグ変更失敗時の通知文を生成します（エラー詳細を含む）
func failureText(outcome domain.ApprovalOutcome, err error) string {
	if outcome.Rejected {
		return fmt.Sprintf("❌ Failed to reject: %v", err)
	}
	return fmt.Sprintf("❌ Failed to approve at %d%%: %v", outcome.Rate, err)
}
