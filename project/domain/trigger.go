package domain

import (
	"regexp"
	"strings"
)

// TriggerResult は承認依頼メッセージの判定結果です
type TriggerResult struct {
	// IsTrigger はトリガーフレーズが認識され、かつ数値IDが解決できた場合のみ true
	IsTrigger bool

	// SubjectName は申込者名。解決できない場合は空文字（トリガー判定には影響しない）
	SubjectName string

	// SubjectID は顧客の数値ID（文字列表現）。空の場合はトリガーとして扱わない
	SubjectID string
}

// トリガー検知パターン
// 通知テンプレートは変更されうるため、厳密一致に加えてゆるい一致も許容する。
// ゆるい一致の誤検知はID未解決時の抑制（IsTrigger=false）で吸収される
var (
	strictTriggerRe = regexp.MustCompile(`(?i)New wholesale signup, approve directly in this thread:`)
	fuzzyPhraseRe   = regexp.MustCompile(`(?i)New\s+wholesale\s+signup`)
	fuzzyApproveRe  = regexp.MustCompile(`(?i)approve`)
)

// ラベル行パターン（太字などの装飾付きラベルも許容）
var (
	nameLabelRe = regexp.MustCompile(`(?i)^\*?\s*Name\*?\s*:`)
	idLabelRe   = regexp.MustCompile(`(?i)^\*?\s*Customer\s*ID\*?\s*:`)
)

// ID正規化パターン
var (
	markupCharsRe = regexp.MustCompile("[`*_~<>]")
	digitRunRe    = regexp.MustCompile(`\d+`)
	// 行単位の抽出に失敗した場合の全文フォールバック（折り返し対策）
	fallbackIDRe = regexp.MustCompile("(?i)Customer\\s*ID:\\s*`?(\\d+)`?")
)

// ParseTriggerMessage は正規化済みテキストを解析し、承認依頼かどうかと
// 申込者情報（名前・顧客ID）を返します。副作用のない純粋関数です
func ParseTriggerMessage(rawText string) TriggerResult {
	text := strings.TrimSpace(rawText)
	lines := splitTrimmedLines(text)

	// トリガーフレーズ判定（厳密一致 + ゆるい一致）
	isTrigger := strictTriggerRe.MatchString(text) ||
		(fuzzyPhraseRe.MatchString(text) && fuzzyApproveRe.MatchString(text))

	// ラベル付き値の抽出（値は同じ行のコロン以降、または次の非空行）
	name := extractLabeledValue(lines, nameLabelRe)
	idRaw := extractLabeledValue(lines, idLabelRe)

	// 装飾文字を除去して最初の数字列を取り出す
	subjectID := ""
	if idRaw != "" {
		normalized := strings.TrimSpace(markupCharsRe.ReplaceAllString(idRaw, ""))
		subjectID = digitRunRe.FindString(normalized)
	}
	if subjectID == "" {
		// 想定外の折り返しなどで行単位の抽出に失敗した場合、全文から探す
		if m := fallbackIDRe.FindStringSubmatch(text); m != nil {
			subjectID = m[1]
		}
	}

	return TriggerResult{
		// IDが解決できない承認依頼は操作対象がないため、トリガーとして扱わない
		IsTrigger:   isTrigger && subjectID != "",
		SubjectName: name,
		SubjectID:   subjectID,
	}
}

// splitTrimmedLines はテキストを改行で分割し、各行をトリムして返します
func splitTrimmedLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// extractLabeledValue はラベル行を探し、同一行のコロン以降に内容があればそれを、
// コロンの後が空行のときだけ次の非空行を値として返します。
// 見つからない場合は空文字を返します
func extractLabeledValue(lines []string, labelRe *regexp.Regexp) string {
	for i, line := range lines {
		if !labelRe.MatchString(line) {
			continue
		}

		// 同一行のコロン以降（値自体にコロンが含まれてもよい）。
		// コロンの後に何か書かれていれば、装飾を剥いだ結果が空でも
		// それを最終値とし、次の行には進まない
		if _, after, found := strings.Cut(line, ":"); found {
			if strings.TrimSpace(after) != "" {
				return trimEmphasis(after)
			}
		}

		// 次の非空行（ラベル行に値がなく、クライアントが値を別行に描画するケース）
		for j := i + 1; j < len(lines); j++ {
			if v := trimEmphasis(lines[j]); v != "" {
				return v
			}
		}
	}
	return ""
}

// trimEmphasis は前後の空白と太字装飾（アスタリスク）を除去します
func trimEmphasis(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*"))
}
