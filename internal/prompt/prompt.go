// Package prompt holds the prompt templates driving MCQ generation.
package prompt

import (
	"fmt"

	"github.com/stemsi/quizgen/internal/model"
)

const systemPrompt = `You are an expert educational content creator specializing in creating high-quality multiple choice questions (MCQs) for learning assessments.

Your task is to generate clear, pedagogically sound questions that test understanding rather than mere recall.

Guidelines for question creation:
1. Questions should be clear, unambiguous, and grammatically correct
2. All answer options should be plausible and similar in length
3. The correct answer must be definitively correct based on the source text
4. Distractors (wrong answers) should represent common misconceptions or partial understanding
5. Explanations should teach the concept, not just state why an answer is correct
6. Avoid "all of the above" or "none of the above" options
7. Avoid negative phrasing like "which is NOT" when possible

You must respond with valid JSON only, no additional text.`

const outputFormat = `Output Format (respond with ONLY this JSON structure):
{
    "questions": [
        {
            "questionText": "%s",
            "options": [
                {"id": "A", "text": "First option"},
                {"id": "B", "text": "Second option"},
                {"id": "C", "text": "Third option"},
                {"id": "D", "text": "Fourth option"}
            ],
            "correctAnswer": "%s",
            "explanation": "%s",
            "difficulty": "%s"
        }
    ]
}`

var difficultyGuidelines = map[model.DifficultyLevel]string{
	model.DifficultyEasy: `EASY questions should:
- Test basic recall and recognition of key facts
- Have clearly distinct answer options
- Use straightforward, simple language
- Focus on main ideas and explicit information
- Be answerable by someone with basic familiarity with the topic`,

	model.DifficultyMedium: `MEDIUM questions should:
- Test comprehension and application of concepts
- Require understanding relationships between ideas
- Have options that require careful consideration
- May involve applying knowledge to scenarios
- Test understanding beyond surface-level facts`,

	model.DifficultyHard: `HARD questions should:
- Test analysis, synthesis, and evaluation skills
- Require integrating multiple concepts
- Have nuanced options that require critical thinking
- May present scenarios requiring application of principles
- Test ability to make inferences and draw conclusions
- Challenge even those with good understanding of the topic`,
}

var exampleFields = map[model.DifficultyLevel][3]string{
	model.DifficultyEasy: {
		"Clear question testing basic understanding?", "B",
		"Explanation of why B is correct and helps reinforce learning",
	},
	model.DifficultyMedium: {
		"Question requiring deeper understanding?", "C",
		"Explanation connecting concepts and deepening understanding",
	},
	model.DifficultyHard: {
		"Complex question requiring analysis and synthesis?", "A",
		"Detailed explanation of the reasoning and analysis required",
	},
}

// SystemPrompt returns the system prompt for question generation.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt returns the user prompt for a difficulty level and question
// count. Unknown difficulties fall back to medium.
func BuildUserPrompt(difficulty model.DifficultyLevel, count int) string {
	if _, ok := difficultyGuidelines[difficulty]; !ok {
		difficulty = model.DifficultyMedium
	}

	example := exampleFields[difficulty]
	format := fmt.Sprintf(outputFormat, example[0], example[1], example[2], difficulty)

	return fmt.Sprintf(
		"Generate %d %s difficulty multiple choice questions from the following text.\n\n%s\n\n%s",
		count, difficultyLabel(difficulty), difficultyGuidelines[difficulty], format,
	)
}

// BuildChunkPrompt appends the chunk text to the user prompt.
func BuildChunkPrompt(userPrompt, chunkText string) string {
	return userPrompt + "\n\nText to analyze:\n\n" + chunkText
}

func difficultyLabel(d model.DifficultyLevel) string {
	switch d {
	case model.DifficultyEasy:
		return "EASY"
	case model.DifficultyHard:
		return "HARD"
	default:
		return "MEDIUM"
	}
}
