package errors

import "errors"

// ================= 业务领域错误定义 =================
// 所有业务逻辑相关的错误统一在此定义，避免跨包重复定义

// ErrPageNotFound 涂色页不存在错误
// 当尝试操作一个不存在于数据库中的涂色页时返回此错误
var ErrPageNotFound = errors.New("coloring page not found in database")

// ErrAuthenticationRequired 未登录错误
// 收藏、生成保存等写操作在没有已登录用户时返回此错误
var ErrAuthenticationRequired = errors.New("authentication required")

// ErrForbidden 越权操作错误
// 当用户尝试修改/删除不属于自己的涂色页时返回此错误
var ErrForbidden = errors.New("operation not allowed for this user")

// ErrEmptyPrompt 空提示词错误
var ErrEmptyPrompt = errors.New("prompt must not be empty")

// ErrEmptyImage 空图片错误
// 创建涂色页时 image 字段不允许为空
var ErrEmptyImage = errors.New("image must not be empty")

// ErrGenerationFailed 图片生成失败错误
// 生成 API 返回异常状态或响应中没有图片数据时返回此错误
var ErrGenerationFailed = errors.New("image generation failed")
