package generate

import (
	"fmt"
	"strings"
)

const answerSystemPrompt = `You are an expert RAG answering assistant.

Return ONLY valid JSON matching this exact schema:

{
  "mode": "answer",
  "answer": {
    "title": "string",
    "summary": "string",
    "steps": ["string", ...],
    "verification": ["string", ...]
  },
  "links": ["string", ...],
  "media": {
    "images": ["string", ...]
  }
}

CRITICAL RULES:
- Output JSON only, with no extra text.
- All fields must be present.
- "links" must contain ONLY pages from the provided PAGES list.
- "media.images" must contain ONLY diagrams from the provided MEDIA list.
- Do NOT invent or hallucinate page numbers or media files.
- Use ONLY the exact page and media references provided in the PAGES and MEDIA sections.
- "steps" must be actionable.
- "verification" must reference how the pages support the answer.
- Use ONLY the provided context. No hallucinations.
- If the context does not contain information to answer the question, you MUST return
  title: "No Information Found", summary: "No relevant information was found in the documentation.",
  steps: [], verification: [], links: [], and media.images: []
- NEVER use general knowledge or information from outside the provided CONTEXT.`

func buildUserPrompt(query, context string, allowedPages, allowedMedia []string) string {
	return fmt.Sprintf(`QUESTION:
%s

CONTEXT:
%s

PAGES:
%s

MEDIA:
%s`, query, context, formatList(allowedPages), formatList(allowedMedia))
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, "\n")
}
