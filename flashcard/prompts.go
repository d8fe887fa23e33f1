package flashcard

import "fmt"

const promptTemplate = `You are an expert in educational content creation. Your task is to generate a well-structured flashcard based on the given chapter. Provide your response in the following structured format:
{
"Question": "A clear and concise question that tests understanding of the chapter",
"Answer": "A direct and precise answer to the question"
}
Ensure the question is relevant to the chapter and tests key concepts. The answer should be factual and to the point. Do not include any extra text outside this format. The response should have exactly 1 question in JSON format.

Chapter:
%s`

// BuildPrompt asks for exactly one Question/Answer JSON object about chapter.
func BuildPrompt(chapter string) string {
	return fmt.Sprintf(promptTemplate, chapter)
}
