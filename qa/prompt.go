package qa

import (
	"strings"

	"docquery/schema"
)

const promptTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%CONTEXT%

Question: %QUESTION%
Helpful Answer:`

// BuildPrompt stuffs the retrieved passages and the question into the
// answering prompt.
func BuildPrompt(question string, docs []schema.Document) string {
	contexts := make([]string, 0, len(docs))
	for _, doc := range docs {
		content := strings.TrimSpace(doc.PageContent)
		if content == "" {
			continue
		}
		contexts = append(contexts, content)
	}
	context := strings.Join(contexts, "\n\n")
	if context == "" {
		context = "No context is available."
	}
	prompt := strings.Replace(promptTemplate, "%CONTEXT%", context, 1)
	return strings.Replace(prompt, "%QUESTION%", question, 1)
}
