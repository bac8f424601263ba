package llm

import "fmt"

// Instruction templates for the enrichment stages and the retrieval
// answerer. Each template renders to a single model invocation.

const translateTemplate = `Translate the following text into English. If it is already English, return it unchanged. Return only the translated text, nothing else.

Text:
%s`

const classifyTemplate = `Classify the following text as one of: "review", "question", "complaint", "praise", "discussion". Return only the label.

Text:
%s`

const sentimentTemplate = `Determine the sentiment of the following text. Return only one of: "positive", "negative", "neutral".

Text:
%s`

const keywordsTemplate = `Extract the most important keywords from the following text. Return them as a single comma-separated list, nothing else.

Text:
%s`

const focusTemplate = `Extract only the portion of the following text that is specifically about %s. If nothing is specifically about %s, return an empty string.

Text:
%s`

const answerSystem = `You are an assistant that answers questions about public mentions of a company. Base your answer only on the provided mention excerpts and the conversation so far. If the excerpts do not contain the answer, say so.`

// TranslatePrompt renders the translation instruction.
func TranslatePrompt(text string) string {
	return fmt.Sprintf(translateTemplate, text)
}

// ClassifyPrompt renders the content-type classification instruction.
func ClassifyPrompt(text string) string {
	return fmt.Sprintf(classifyTemplate, text)
}

// SentimentPrompt renders the sentiment instruction.
func SentimentPrompt(text string) string {
	return fmt.Sprintf(sentimentTemplate, text)
}

// KeywordsPrompt renders the keyword extraction instruction.
func KeywordsPrompt(text string) string {
	return fmt.Sprintf(keywordsTemplate, text)
}

// FocusPrompt renders the company-focus extraction instruction.
func FocusPrompt(company, text string) string {
	return fmt.Sprintf(focusTemplate, company, company, text)
}

// AnswerSystem returns the system prompt for the retrieval answerer.
func AnswerSystem() string {
	return answerSystem
}
