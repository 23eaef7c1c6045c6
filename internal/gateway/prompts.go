package gateway

import (
	"fmt"

	"tutorloop/internal/tutor"
)

const sentimentSystem = `You score the sentiment of a learner's message.
Respond with JSON only: {"polarity": <float -1..1>, "magnitude": <float 0..1>}.
Polarity is negative for frustration or confusion, positive for confidence.`

const analysisSystem = `You are a code reviewer for a programming student.
Find concrete errors in the submitted code. Respond with JSON only:
{"summary": "<one paragraph for the student>",
 "errors": [{"type": "syntax|logic|runtime", "line": <int or 0>,
             "description": "<what is wrong>", "severity": <int 1..5>,
             "correction": "<how to fix it>"}]}
Report an empty errors array when the code is fine.`

const explainSystem = `You are a patient programming tutor. Answer the
learner's question directly. Do not include code solutions to graded work.`

// tierDirectives shape each rung of the hint ladder. The conceptual tier must
// not mention specifics; the solution tier gives the fix outright.
var tierDirectives = map[tutor.HintTier]string{
	tutor.TierConceptual: "Give a conceptual hint about the kind of mistake, without naming the line or the fix.",
	tutor.TierSyntax:     "Point at the concrete location and construct involved, citing the line number, but do not give the corrected code.",
	tutor.TierSolution:   "Give the full correction, with the exact change to make.",
}

func styleDirective(style tutor.LearningStyle) string {
	switch style {
	case tutor.StyleELI5:
		return "Explain as you would to a complete beginner, with everyday analogies."
	case tutor.StyleVisual:
		return "Structure the answer around a mental picture or diagram the learner can visualize."
	default:
		return ""
	}
}

func hintPrompt(tier tutor.HintTier, subject tutor.CodeError, code string) string {
	loc := "an unknown line"
	if subject.Line > 0 {
		loc = fmt.Sprintf("line %d", subject.Line)
	}
	return fmt.Sprintf("The student's code has a %s error at %s: %s\n\nCode:\n%s\n\n%s",
		subject.Type, loc, subject.Description, code, tierDirectives[tier])
}
