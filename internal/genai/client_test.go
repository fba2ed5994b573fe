package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainErrors "github.com/samizak/ColorsAI/domain/errors"

	"github.com/stretchr/testify/assert"
)

// ========== Gemini 客户端单元测试 ==========
// 用 httptest 模拟 generateContent 接口

// fakeGeminiResponse 构造包含一张内联图片的响应
func fakeGeminiResponse(mimeType, data string) string {
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": "Here is your coloring page"},
						{"inlineData": map[string]string{"mimeType": mimeType, "data": data}},
					},
				},
			},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

// TestClient_GenerateColoringImage 正常生成
// 验证请求带上了画风后缀，响应取到 inlineData
func TestClient_GenerateColoringImage(t *testing.T) {
	var gotBody generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, Model)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fakeGeminiResponse("image/png", "aGVsbG8=")))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	image, err := client.GenerateColoringImage(context.Background(), "a magical forest")

	assert.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", image.Data)
	assert.Equal(t, "image/png", image.MimeType)

	// 核心断言：提示词拼接了固定画风后缀
	assert.Len(t, gotBody.Contents, 1)
	sent := gotBody.Contents[0].Parts[0].Text
	assert.Equal(t, "a magical forest"+StyleSuffix, sent)
	assert.True(t, strings.HasSuffix(sent, "only black and white"))
	assert.Equal(t, []string{"Text", "Image"}, gotBody.GenerationConfig.ResponseModalities)
}

// TestClient_GenerateColoringImage_DefaultMime mimeType 缺失时按 image/png 处理
func TestClient_GenerateColoringImage_DefaultMime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fakeGeminiResponse("", "ZGF0YQ==")))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	image, err := client.GenerateColoringImage(context.Background(), "a cat")

	assert.NoError(t, err)
	assert.Equal(t, "image/png", image.MimeType)
}

// TestClient_GenerateColoringImage_NoImage 模型只回了文字没回图
func TestClient_GenerateColoringImage_NoImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	image, err := client.GenerateColoringImage(context.Background(), "a cat")

	assert.Nil(t, image)
	assert.ErrorIs(t, err, domainErrors.ErrGenerationFailed)
}

// TestClient_GenerateColoringImage_HTTPError 接口返回异常状态码
func TestClient_GenerateColoringImage_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	image, err := client.GenerateColoringImage(context.Background(), "a cat")

	assert.Nil(t, image)
	assert.ErrorIs(t, err, domainErrors.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "429")
}

// TestClient_GenerateColoringImage_ContextCancel 上下文取消
func TestClient_GenerateColoringImage_ContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fakeGeminiResponse("image/png", "aGVsbG8=")))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClientWithBaseURL("test-key", server.URL)
	image, err := client.GenerateColoringImage(ctx, "a cat")

	assert.Nil(t, image)
	assert.Error(t, err)
}
