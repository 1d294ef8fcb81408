// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lmstudio

// systemPersona frames every completion request.
const systemPersona = "You are a helpful reading assistant that summarizes text and helps users track their reading progress."

// summaryPrompt asks for a 2-3 sentence summary plus three keywords.
func summaryPrompt(text string) string {
	return "다음 텍스트의 핵심 내용을 2-3문장으로 간단히 요약하고, 주요 키워드 3개를 제시하세요.\n\n텍스트:\n" + text
}

// bookmarkPrompt asks for the reading position (page/chapter plus anchor
// sentence).
func bookmarkPrompt(text string) string {
	return "이 텍스트에서 책갈피 위치를 찾아 간단히 알려주세요. (페이지/챕터 번호와 앵커 문장)\n\n텍스트:\n" + text
}

// autoPrompt lets the model decide between bookmark extraction and summary.
func autoPrompt(text string) string {
	return "이 텍스트를 분석해주세요. 책갈피 정보가 있으면 위치를, 없으면 간단한 요약을 제공하세요.\n\n텍스트:\n" + text
}
