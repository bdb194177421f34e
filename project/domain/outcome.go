package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 卸売承認の料率と状態タグの定義
const (
	// RateDefault はデフォルト承認料率（%）
	RateDefault = 30

	// RateAlternate は第二候補の承認料率（%）
	RateAlternate = 25

	// MinCustomRate / MaxCustomRate はカスタム料率の許容範囲（両端含む）
	MinCustomRate = 1
	MaxCustomRate = 50

	// RejectionTag は却下時に顧客レコードから除去する状態タグ
	RejectionTag = "manual-wholesale-customer"
)

// customRateRe はカスタム料率入力の構文チェック（符号・小数・空白を拒否）
var customRateRe = regexp.MustCompile(`^[0-9]+$`)

// ApprovalTag は承認料率に対応するタグ名（wholesale30 など）を返します
func ApprovalTag(rate int) string {
	return fmt.Sprintf("wholesale%d", rate)
}

// ParseCustomRate はレビュアーが入力したカスタム料率文字列を検証します。
// 有効な場合は [MinCustomRate, MaxCustomRate] の整数を返し、
// それ以外（非数値・範囲外・小数・空文字）は ErrInvalid を返します
func ParseCustomRate(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if !customRateRe.MatchString(s) {
		return 0, fmt.Errorf("%w: 料率は整数で入力してください (input=%q)", ErrInvalid, raw)
	}

	rate, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: 料率の数値変換に失敗しました (input=%q)", ErrInvalid, raw)
	}

	if rate < MinCustomRate || rate > MaxCustomRate {
		return 0, fmt.Errorf("%w: 料率は%d〜%dの範囲で入力してください (input=%d)", ErrInvalid, MinCustomRate, MaxCustomRate, rate)
	}

	return rate, nil
}

// ApprovalOutcome はレビュアーの最終判断（指定料率での承認、または却下）を表します。
// 一度タグ変更を試みた後は成否に関わらず終端状態であり、以降の遷移はありません
type ApprovalOutcome struct {
	// Rejected は却下かどうか
	Rejected bool

	// Rate は承認料率（%）。却下の場合は未使用
	Rate int
}

// ApprovedAtRate は指定料率での承認アウトカムを作成します。
// 範囲外の料率は ErrInvalid を返します
func ApprovedAtRate(rate int) (ApprovalOutcome, error) {
	if rate < MinCustomRate || rate > MaxCustomRate {
		return ApprovalOutcome{}, fmt.Errorf("%w: 承認料率が範囲外です (rate=%d)", ErrInvalid, rate)
	}
	return ApprovalOutcome{Rate: rate}, nil
}

// RejectedOutcome は却下アウトカムを作成します
func RejectedOutcome() ApprovalOutcome {
	return ApprovalOutcome{Rejected: true}
}

// Tag はこのアウトカムで付与または除去されるタグ名を返します
func (o ApprovalOutcome) Tag() string {
	if o.Rejected {
		return RejectionTag
	}
	return ApprovalTag(o.Rate)
}

// MutationRequest はこのアウトカムに対応するタグ変更要求を生成します。
// 承認は料率タグの付与、却下は状態タグの除去となり、両方が同時に
// 非空になることはありません
func (o ApprovalOutcome) MutationRequest(subjectID string) TagMutationRequest {
	req := TagMutationRequest{SubjectID: subjectID}
	if o.Rejected {
		req.TagsToRemove = []string{RejectionTag}
	} else {
		req.TagsToAdd = []string{ApprovalTag(o.Rate)}
	}
	return req
}

// TagMutationRequest は顧客レコードへの一回限りのタグ変更要求です
type TagMutationRequest struct {
	// SubjectID は顧客の数値ID（文字列表現）
	SubjectID string

	// TagsToAdd は付与するタグ。TagsToRemove と同時に非空にはならない
	TagsToAdd []string

	// TagsToRemove は除去するタグ
	TagsToRemove []string
}

// Validate はタグ変更要求の不変条件を検証します
func (r TagMutationRequest) Validate() error {
	if strings.TrimSpace(r.SubjectID) == "" {
		return fmt.Errorf("%w: SubjectIDは必須項目です", ErrInvalid)
	}
	if len(r.TagsToAdd) > 0 && len(r.TagsToRemove) > 0 {
		return fmt.Errorf("%w: タグの付与と除去は同時に指定できません", ErrInvalid)
	}
	if len(r.TagsToAdd) == 0 && len(r.TagsToRemove) == 0 {
		return fmt.Errorf("%w: 変更対象のタグが指定されていません", ErrInvalid)
	}
	return nil
}

// DecisionToken は決定サーフェスの各選択肢に添付される、申込者情報の不変キャリアです。
// サーバー側にセッション状態を持たず、Slackとの往復（ボタン値・モーダルの
// private_metadata）で毎回シリアライズ／デシリアライズされます
type DecisionToken struct {
	// SubjectName は申込者名（表示用。空でもよい）
	SubjectName string `json:"name"`

	// SubjectID は顧客の数値ID（文字列表現）
	SubjectID string `json:"customerId"`
}

// Validate はトークンの必須項目を検証します
func (t DecisionToken) Validate() error {
	if strings.TrimSpace(t.SubjectID) == "" {
		return fmt.Errorf("%w: SubjectIDは必須項目です", ErrInvalid)
	}
	return nil
}

// Encode はトークンを不透明な文字列（JSON）に変換します
func (t DecisionToken) Encode() (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("Encode: トークン検証失敗: %w", err)
	}
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("Encode: トークンJSON化失敗: %w", err)
	}
	return string(b), nil
}

// DecodeDecisionToken は不透明な文字列からトークンを復元します
func DecodeDecisionToken(s string) (DecisionToken, error) {
	var t DecisionToken
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return DecisionToken{}, fmt.Errorf("DecodeDecisionToken: トークン解析失敗: %w", err)
	}
	if err := t.Validate(); err != nil {
		return DecisionToken{}, fmt.Errorf("DecodeDecisionToken: トークン検証失敗: %w", err)
	}
	return t, nil
}
