package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domainErrors "github.com/samizak/ColorsAI/domain/errors"
)

// ========== Gemini 图片生成客户端 ==========

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// Model 生成模型，需支持图片输出
	Model = "gemini-2.0-flash-exp-image-generation"

	// StyleSuffix 强制涂色书画风的固定提示词后缀，拼接在每个用户提示词之后
	StyleSuffix = ", colouring book art style, only outlines , only black and white"
)

// Client Gemini generateContent 接口客户端
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient 构造函数
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

// NewClientWithBaseURL 指定接口地址的构造函数（测试用）
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // 图片生成较慢，给足超时
		},
	}
}

// GeneratedImage 生成结果
type GeneratedImage struct {
	Data     string // base64 原始数据
	MimeType string
}

// --- generateContent 接口报文结构 ---

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateColoringImage 根据提示词生成一张涂色书风格图片
// 提示词会自动拼接 StyleSuffix，响应中取第一个带 inlineData 的 part
func (c *Client) GenerateColoringImage(ctx context.Context, prompt string) (*GeneratedImage, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt + StyleSuffix}}},
		},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"Text", "Image"},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, Model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGenerationFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domainErrors.ErrGenerationFailed, resp.StatusCode, truncate(body, 200))
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGenerationFailed, err)
	}

	for _, candidate := range result.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				mime := p.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				return &GeneratedImage{Data: p.InlineData.Data, MimeType: mime}, nil
			}
		}
	}

	// 模型有时只回文字不回图
	return nil, fmt.Errorf("%w: response contains no image data", domainErrors.ErrGenerationFailed)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
