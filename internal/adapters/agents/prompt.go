package agents

import (
	"fmt"
	"strings"

	"github.com/havenlabs/haven-agent/internal/domain"
)

const baseSystemPrompt = `
You are "Haven", a supportive AI companion for people going through difficult moments.

Your role:
- You listen with empathy and without judgment.
- You validate what the user feels before suggesting anything.
- You are NOT a therapist, doctor, or emergency service and you do NOT give medical or psychiatric diagnoses.

General style guidelines:
- Answer in the SAME LANGUAGE as the user.
- Be concise: 2-6 short paragraphs max.
- Use simple, everyday language, not clinical jargon.
- Reflect back what you understood before giving suggestions.
- Ask at most 1 or 2 gentle follow-up questions.
- Suggest small, realistic steps rather than big changes.

Boundaries and safety:
- If the user mentions self-harm, suicide, or hurting someone, encourage them to contact local emergency services or a trusted person right away.
- Make it clear you cannot replace professional mental health care, especially in crisis situations.
- Never give instructions on how to self-harm or harm others.
`

const escalationInstructions = `
The safety assessment for this message activated the emergency protocol.
Priorities for your reply:
- Stay calm and warm. Do not lecture.
- Acknowledge the pain directly.
- Encourage the user to reach local emergency services or a crisis line now,
  and to involve someone they trust.
- Keep the reply short and focused on immediate support.
`

// Prompt represents the system prompt + the content to send as "user".
type Prompt struct {
	System string
	User   string
}

// BuildResponsePrompt folds the message and both assessments into a prompt
// for the response generator. Recognized Extra keys: "history" ([]string,
// prior conversation lines). Anything else is ignored.
func BuildResponsePrompt(message string, rc domain.ResponseContext) Prompt {
	system := baseSystemPrompt
	if rc.Safety.EmergencyProtocol {
		system += "\n" + escalationInstructions
	}

	var user strings.Builder

	if history, ok := rc.Extra["history"].([]string); ok && len(history) > 0 {
		user.WriteString("Conversation so far:\n")
		user.WriteString(strings.Join(history, "\n"))
		user.WriteString("\n\n")
	}

	user.WriteString("Emotional analysis of the new message:\n")
	fmt.Fprintf(&user, "- primary emotion: %s (intensity %d/10, confidence %.2f)\n",
		rc.Emotion.PrimaryEmotion, rc.Emotion.Intensity, rc.Emotion.Confidence)
	if len(rc.Emotion.SecondaryEmotions) > 0 {
		fmt.Fprintf(&user, "- secondary emotions: %s\n", strings.Join(rc.Emotion.SecondaryEmotions, ", "))
	}
	if len(rc.Emotion.Triggers) > 0 {
		fmt.Fprintf(&user, "- possible triggers: %s\n", strings.Join(rc.Emotion.Triggers, ", "))
	}

	user.WriteString("\nSafety assessment:\n")
	fmt.Fprintf(&user, "- risk level: %s (confidence %.2f)\n", rc.Safety.RiskLevel, rc.Safety.Confidence)
	if len(rc.Safety.Concerns) > 0 {
		fmt.Fprintf(&user, "- concerns: %s\n", strings.Join(rc.Safety.Concerns, ", "))
	}

	user.WriteString("\nNew user message:\n")
	user.WriteString(message)

	return Prompt{
		System: system,
		User:   user.String(),
	}
}
