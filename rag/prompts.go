package rag

import (
	"fmt"
	"strings"
)

// QuerySystemPrompt frames every grounded answer.
const QuerySystemPrompt = "You are a helpful assistant trained to answer questions using the provided context."

// FallbackAnswer replaces a generation that is empty once reasoning is stripped.
const FallbackAnswer = "I'm sorry, I couldn't process that."

const queryPromptTemplate = `Use the following pieces of information enclosed in <context> tags to provide an answer to the question enclosed in <question> tags.
<context>
%s
</context>
<question>
%s
</question>`

const summaryPromptTemplate = `Instruction:
You are a highly advanced summarizing AI. Your task is to generate a comprehensive and coherent summary of the given content while ensuring the following:

Overview:
Provide a clear and concise introduction to the main theme or subject of the content.
Ensure the summary begins with a general overview of the topic without getting into minute details.

Key Points & Headings:
Organize the summary under well-defined, unordered list headings.
Each heading should correspond to a major section or idea in the content.
For each heading, provide a detailed description explaining the key points. The description should be precise, informative, and reflect the essence of that section without being overly detailed.

Flow & Coherence:
The summary must maintain a logical flow. Each section should seamlessly transition into the next.
Avoid repeating content or adding unnecessary details.

Length:
Ensure the summary is between 300 to 600 words, summarizing all essential aspects of the content.
If the content is long, focus on maintaining brevity while retaining accuracy and completeness in each section.

Key Takeaways:
At the end of the summary, provide a list of key points.
The key points should be concise, summarizing the most important information from each section. Ensure they are easily identifiable and clear.

Clarity & Precision:
Use simple and direct language to ensure clarity.
Avoid complex jargon unless it's essential for understanding, and explain any technical terms that must be included.

Input Content: %s`

// BuildContext joins retrieved texts with newlines, keeping their rank order.
func BuildContext(texts []string) string {
	return strings.Join(texts, "\n")
}

// BuildQueryPrompt wraps context and question in the tags the system prompt expects.
func BuildQueryPrompt(context, question string) string {
	return fmt.Sprintf(queryPromptTemplate, context, question)
}

// BuildSummaryPrompt asks for a structured 300-600 word summary of text.
func BuildSummaryPrompt(text string) string {
	return fmt.Sprintf(summaryPromptTemplate, text)
}
