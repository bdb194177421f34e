package domain

import (
	"errors"
	"testing"
)

func TestParseCustomRate_Valid(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"1", 1},
		{"17", 17},
		{"50", 50},
		{" 25 ", 25}, // 前後の空白は許容
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			rate, err := ParseCustomRate(tc.input)
			if err != nil {
				t.Fatalf("ParseCustomRate(%q): 想定外エラー: %v", tc.input, err)
			}
			if rate != tc.want {
				t.Errorf("ParseCustomRate(%q): got %d, want %d", tc.input, rate, tc.want)
			}
		})
	}
}

func TestParseCustomRate_Invalid(t *testing.T) {
	cases := []string{"0", "51", "12.5", "abc", "", "-5", "+17", "1 0"}

	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCustomRate(input)
			if err == nil {
				t.Fatalf("ParseCustomRate(%q): エラーになるべき", input)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("ParseCustomRate(%q): ErrInvalid を包むべき: %v", input, err)
			}
		})
	}
}

func TestApprovalTag(t *testing.T) {
	if got := ApprovalTag(30); got != "wholesale30" {
		t.Errorf("ApprovalTag(30): got %q, want %q", got, "wholesale30")
	}
	if got := ApprovalTag(17); got != "wholesale17" {
		t.Errorf("ApprovalTag(17): got %q, want %q", got, "wholesale17")
	}
}

func TestApprovedAtRate_RangeCheck(t *testing.T) {
	if _, err := ApprovedAtRate(0); !errors.Is(err, ErrInvalid) {
		t.Errorf("ApprovedAtRate(0): ErrInvalid を返すべき: %v", err)
	}
	if _, err := ApprovedAtRate(51); !errors.Is(err, ErrInvalid) {
		t.Errorf("ApprovedAtRate(51): ErrInvalid を返すべき: %v", err)
	}
	if _, err := ApprovedAtRate(30); err != nil {
		t.Errorf("ApprovedAtRate(30): 想定外エラー: %v", err)
	}
}

func TestMutationRequest_Approval(t *testing.T) {
	outcome, err := ApprovedAtRate(30)
	if err != nil {
		t.Fatalf("ApprovedAtRate(30): %v", err)
	}

	req := outcome.MutationRequest("98765")

	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(req.TagsToAdd) != 1 || req.TagsToAdd[0] != "wholesale30" {
		t.Errorf("TagsToAdd: got %v, want [wholesale30]", req.TagsToAdd)
	}
	if len(req.TagsToRemove) != 0 {
		t.Errorf("承認で TagsToRemove が非空: %v", req.TagsToRemove)
	}
}

func TestMutationRequest_Rejection(t *testing.T) {
	req := RejectedOutcome().MutationRequest("98765")

	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(req.TagsToRemove) != 1 || req.TagsToRemove[0] != RejectionTag {
		t.Errorf("TagsToRemove: got %v, want [%s]", req.TagsToRemove, RejectionTag)
	}
	if len(req.TagsToAdd) != 0 {
		t.Errorf("却下で TagsToAdd が非空: %v", req.TagsToAdd)
	}
}

func TestTagMutationRequest_Validate(t *testing.T) {
	cases := []struct {
		name    string
		req     TagMutationRequest
		wantErr bool
	}{
		{"付与のみ", TagMutationRequest{SubjectID: "1", TagsToAdd: []string{"a"}}, false},
		{"除去のみ", TagMutationRequest{SubjectID: "1", TagsToRemove: []string{"a"}}, false},
		{"ID欠落", TagMutationRequest{TagsToAdd: []string{"a"}}, true},
		{"両方指定", TagMutationRequest{SubjectID: "1", TagsToAdd: []string{"a"}, TagsToRemove: []string{"b"}}, true},
		{"タグなし", TagMutationRequest{SubjectID: "1"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr && err == nil {
				t.Error("エラーになるべき")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("想定外エラー: %v", err)
			}
		})
	}
}

func TestDecisionToken_Roundtrip(t *testing.T) {
	token := DecisionToken{SubjectName: "Jane Doe", SubjectID: "98765"}

	encoded, err := token.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := DecodeDecisionToken(encoded)
	if err != nil {
		t.Fatalf("DecodeDecisionToken: %v", err)
	}
	if decoded != token {
		t.Errorf("往復で値が変わった: got %+v, want %+v", decoded, token)
	}
}

func TestDecisionToken_EncodeRequiresID(t *testing.T) {
	_, err := DecisionToken{SubjectName: "No ID"}.Encode()
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("ID欠落トークンの Encode は ErrInvalid を返すべき: %v", err)
	}
}

func TestDecodeDecisionToken_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"壊れたJSON", "{not json"},
		{"ID欠落", `{"name":"Jane"}`},
		{"空文字", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeDecisionToken(tc.input); err == nil {
				t.Error("エラーになるべき")
			}
		})
	}
}
