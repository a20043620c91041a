package ai

import (
	"fmt"
	"sort"
	"strings"
)

const analystSystem = "You are a careful beauty and wellness analyst. You describe what is visible in the photo, " +
	"avoid medical diagnoses, and always answer with a single JSON object using the exact keys requested."

var analysisPrompts = map[string]string{
	"skin": `Analyze the facial skin in this photo.
Return JSON with keys:
  "skin_type": one of "oily","dry","combination","normal","sensitive",
  "score": overall skin health 0-100,
  "metrics": object with 0-100 values for "moisture","oil","pores","wrinkles","pigmentation","redness",
  "concerns": array of short strings,
  "recommendations": array of 3-5 practical skincare tips.`,

	"personal-color": `Determine the personal color season of the person in this photo from skin, hair and eye tones.
Return JSON with keys:
  "season": one of "spring","summer","autumn","winter",
  "sub_type": e.g. "light spring", "deep autumn",
  "undertone": one of "warm","cool","neutral",
  "best_colors": array of 6 hex colors,
  "avoid_colors": array of 3 hex colors,
  "score": confidence 0-100,
  "recommendations": array of short styling tips.`,

	"hair": `Analyze the hair visible in this photo.
Return JSON with keys:
  "hair_type": one of "straight","wavy","curly","coily",
  "thickness": one of "fine","medium","thick",
  "scalp_condition": short description,
  "damage_level": 0-100,
  "face_shape": one of "oval","round","square","heart","oblong","diamond",
  "score": overall hair health 0-100,
  "recommended_styles": array of hairstyle names,
  "recommendations": array of care tips.`,

	"makeup": `Give makeup guidance for the face in this photo.
Return JSON with keys:
  "face_shape": one of "oval","round","square","heart","oblong","diamond",
  "undertone": one of "warm","cool","neutral",
  "score": how well the current look suits the face 0-100,
  "strengths": array of short strings,
  "improvements": array of short strings,
  "recommendations": array of product or technique suggestions.`,

	"body": `Assess body shape for styling and training purposes from this full-body photo.
Return JSON with keys:
  "body_type": one of "hourglass","pear","apple","rectangle","inverted_triangle",
  "posture": short description,
  "score": overall balance 0-100,
  "style_tips": array of clothing suggestions,
  "workout_focus": array of muscle groups or training goals.`,
}

// AnalysisPrompt returns the system and user prompt for a visual analysis
// kind. Hints are appended as user-provided context in a stable order.
func AnalysisPrompt(kind string, hints map[string]string) (system, prompt string, err error) {
	base, ok := analysisPrompts[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown analysis kind %q", kind)
	}
	if len(hints) == 0 {
		return analystSystem, base, nil
	}

	keys := make([]string, 0, len(hints))
	for k, v := range hints {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(base)
	if len(keys) > 0 {
		sb.WriteString("\n\nUser provided context:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "- %s: %s\n", k, strings.TrimSpace(hints[k]))
		}
	}
	return analystSystem, sb.String(), nil
}

// RecommendationPrompt builds the nutrition coaching prompt from a plain-text
// summary of the day's intake.
func RecommendationPrompt(summary string) string {
	return "Today's intake:\n" + summary +
		"\nSuggest 3-5 healthy, practical adjustments or additions focusing on balance, fiber, " +
		"and reduced added sugars and sodium. Return JSON {\"recommendations\": [string]}."
}
