package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TherapeuticFallback replaces the assistant reply whenever the provider
// call fails. Provider failures never surface to the chat client.
const TherapeuticFallback = "I'm sorry, I'm having trouble processing your message right now. Please try again."

// InsightFallback replaces the quiz insight text when generation fails.
const InsightFallback = "Sorry, I had trouble generating insights. Please try again later."

const therapeuticBasePrompt = `You are MindBuddy, a compassionate AI therapeutic assistant. Your role is to:

1. Provide empathetic, supportive responses
2. Help users explore their thoughts and feelings
3. Offer coping strategies and mindfulness techniques
4. Encourage self-reflection and personal growth
5. Always maintain professional boundaries
6. Suggest professional help when appropriate

Guidelines:
- Be warm, understanding, and non-judgmental
- Ask thoughtful follow-up questions
- Validate emotions while encouraging healthy perspectives
- Keep responses concise but meaningful
- Never diagnose or provide medical advice
- Focus on the user's strengths and resilience`

// BuildTherapeuticPrompt returns the chat system prompt, appending the user's
// stored profile when one exists.
func BuildTherapeuticPrompt(userProfile map[string]interface{}) string {
	if len(userProfile) == 0 {
		return therapeuticBasePrompt
	}
	profile, err := json.MarshalIndent(userProfile, "", "  ")
	if err != nil {
		return therapeuticBasePrompt
	}
	return therapeuticBasePrompt + "\n\nUser Context:\n" + string(profile)
}

// BuildQuizQuestionsPrompt asks for an MCQ quiz as a strict JSON array.
func BuildQuizQuestionsPrompt(topic string, numQuestions int) string {
	return fmt.Sprintf(`You are a wellness assistant. Create a %d-question multiple-choice quiz about "%s".
You MUST return the output as a single, valid JSON array of objects with this exact format:
[
    {
        "question": "Question text here?",
        "options": ["Option A", "Option B", "Option C", "Option D"]
    }
]
Make sure each question is thoughtful and relevant to wellness and mental health.`, numQuestions, topic)
}

// AnsweredQuestion pairs a quiz question with the user's answer.
type AnsweredQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PreviousQuizResults carries the last run of the same topic, used to build a
// comparison insight.
type PreviousQuizResults struct {
	Date    string
	Results []AnsweredQuestion
}

// BuildInsightsPrompt produces the wellness-coach system prompt for quiz
// insights. There are three variants: first time, comparison against a
// previous run, and regeneration after a disliked insight.
func BuildInsightsPrompt(topic string, current []AnsweredQuestion, previous *PreviousQuizResults, dislikedText string) string {
	currentStr := formatAnswers(current)

	var feedbackContext string
	switch {
	case dislikedText != "":
		feedbackContext = fmt.Sprintf(`The user DISLIKED the previous response: '%s'.
Please generate a NEW insight with a different tone and approach.
The user's current answers are:
%s`, dislikedText, currentStr)
	case previous != nil && len(previous.Results) > 0:
		feedbackContext = fmt.Sprintf(`The user took this quiz before on %s.
Please compare their new results to the old ones.
Previous answers:
%s

Current answers:
%s`, previous.Date, formatAnswers(previous.Results), currentStr)
	default:
		feedbackContext = "This is the user's first time taking this quiz. Their answers are:\n" + currentStr
	}

	return fmt.Sprintf(`You are an empathetic wellness coach. A user has completed a quiz about "%s".
Your tone must be warm and kind. NEVER use clinical language.

USER CONTEXT: %s

FORMATTING RULES: Structure your response using Markdown. Start with a warm opening.
Follow it with the bolded heading **Here are a few gentle suggestions:** and list each
suggestion as a separate bullet point (`+"`*`"+`).`, topic, feedbackContext)
}

func formatAnswers(answers []AnsweredQuestion) string {
	lines := make([]string, 0, len(answers))
	for _, a := range answers {
		lines = append(lines, fmt.Sprintf("- %s: %s", a.Question, a.Answer))
	}
	return strings.Join(lines, "\n")
}
