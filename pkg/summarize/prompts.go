package summarize

import "fmt"

// QueryMarker is the prefix the rephrasing prompt asks the model to put in
// front of the query.
const QueryMarker = "!g"

var rephrasePrompt = `You are an AI designed to rephrase a claim into a concise, specific, and highly searchable query.
Focus on preserving all critical details such as names, dates, locations, or key terms, but avoid unnecessary words.
Provide only the text without any additional formatting, and add ` + QueryMarker + ` at the beginning.`

func summaryPrompt(language string) string {
	return fmt.Sprintf(`You are a summarizer, be specific. Don't use lists or bullet points.
Provide only the text without stating that it is a summary.
Write the summary in %s.`, language)
}
