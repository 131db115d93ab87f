package handlers

import "nanodraw/internal/domain"

// User-facing error strings, keyed by failure kind. The zh strings match
// the wording the frontend already displays.
var failureMessages = map[domain.FailureKind]map[string]string{
	domain.FailureValidation: {
		"en": "Prompt is required",
		"zh": "提示词不能为空",
	},
	domain.FailureSubmission: {
		"en": "The generation request was rejected or returned no task id",
		"zh": "API请求失败或未返回任务ID",
	},
	domain.FailureInvalidResponse: {
		"en": "The result endpoint returned a malformed response",
		"zh": "结果接口返回格式错误",
	},
	domain.FailureJobFailed: {
		"en": "Image generation failed",
		"zh": "图片生成失败",
	},
	domain.FailurePollTimeout: {
		"en": "No image URL was produced in time",
		"zh": "未获取到图片URL",
	},
	domain.FailureTransport: {
		"en": "Failed to generate image",
		"zh": "图片生成失败",
	},
}

func failureMessage(kind domain.FailureKind, locale string) string {
	msgs, ok := failureMessages[kind]
	if !ok {
		msgs = failureMessages[domain.FailureTransport]
	}
	if msg, ok := msgs[locale]; ok {
		return msg
	}
	return msgs["en"]
}
