package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wholesale-bot/project/domain"
	"wholesale-bot/project/infrastructure/config"
)

// 顧客タグ変更の Admin GraphQL ミューテーション
const (
	tagsAddMutation = `
  mutation tagsAdd($id: ID!, $tags: [String!]!) {
    tagsAdd(id: $id, tags: $tags) {
      node { id }
      userErrors { field message }
    }
  }
`

	tagsRemoveMutation = `
  mutation tagsRemove($id: ID!, $tags: [String!]!) {
    tagsRemove(id: $id, tags: $tags) {
      node { id }
      userErrors { field message }
    }
  }
`
)

// Client は service.ShopifyPort の Shopify Admin GraphQL 実装です
type Client struct {
	domain     string
	token      string
	apiVersion string
	httpClient *http.Client
}

// NewClient は Shopify Admin API クライアントを初期化します
func NewClient(cfg *config.Config) *Client {
	return &Client{
		domain:     cfg.ShopifyDomain,
		token:      cfg.ShopifyAdminToken,
		apiVersion: cfg.ShopifyAPIVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// MutateTags は顧客レコードへのタグ変更を一回だけ実行します。
// 付与・除去のどちらか一方のみを受け付け、トランスポート障害と
// GraphQL の userErrors の両方を失敗として扱います。リトライはしません
func (c *Client) MutateTags(ctx context.Context, req domain.TagMutationRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("shopify: タグ変更要求が不正です: %w", err)
	}

	// 数値IDを顧客リソースのGIDに埋め込む
	gid := fmt.Sprintf("gid://shopify/Customer/%s", req.SubjectID)

	if len(req.TagsToAdd) > 0 {
		return c.runTagMutation(ctx, "tagsAdd", tagsAddMutation, gid, req.TagsToAdd)
	}
	return c.runTagMutation(ctx, "tagsRemove", tagsRemoveMutation, gid, req.TagsToRemove)
}

// gqlUserError は GraphQL のフィールド単位エラーです
type gqlUserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// gqlMutationResult はタグ変更ミューテーションの結果部分です
type gqlMutationResult struct {
	UserErrors []gqlUserError `json:"userErrors"`
}

// gqlResponse は Admin GraphQL レスポンスの共通構造です
type gqlResponse struct {
	Data   map[string]gqlMutationResult `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// runTagMutation は単一の GraphQL ミューテーションを実行し、
// userErrors を含むあらゆる失敗を domain.ErrMutationFailed として返します
func (c *Client) runTagMutation(ctx context.Context, field, query, gid string, tags []string) error {
	// リクエストボディを構築
	reqBody := map[string]interface{}{
		"query": query,
		"variables": map[string]interface{}{
			"id":   gid,
			"tags": tags,
		},
	}

	bodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("%w: shopify: リクエストJSON化失敗: %v", domain.ErrMutationFailed, err)
	}

	url := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.domain, c.apiVersion)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyJSON))
	if err != nil {
		return fmt.Errorf("%w: shopify: リクエスト作成失敗: %v", domain.ErrMutationFailed, err)
	}
	httpReq.Header.Set("X-Shopify-Access-Token", c.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Shopify-API-Version", c.apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: shopify: リクエスト送信失敗 (%s): %v", domain.ErrMutationFailed, field, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: shopify: HTTP %d: %s", domain.ErrMutationFailed, resp.StatusCode, string(body))
	}

	var gql gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gql); err != nil {
		return fmt.Errorf("%w: shopify: レスポンス解析失敗 (%s): %v", domain.ErrMutationFailed, field, err)
	}

	// トップレベルの GraphQL エラー
	if len(gql.Errors) > 0 {
		msgs := make([]string, 0, len(gql.Errors))
		for _, e := range gql.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%w: shopify: GraphQLエラー (%s): %s", domain.ErrMutationFailed, field, strings.Join(msgs, "; "))
	}

	// フィールド単位の userErrors
	if errs := gql.Data[field].UserErrors; len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%w: shopify: %s userErrors: %s", domain.ErrMutationFailed, field, strings.Join(msgs, "; "))
	}

	return nil
}
