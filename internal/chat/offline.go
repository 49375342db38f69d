package chat

import "strings"

type cannedAnswer struct {
	keywords []string
	answer   string
	exact    bool // whole-word match instead of prefix
}

var offlineAnswers = []cannedAnswer{
	{
		keywords: []string{"diabetes", "glucose", "sugar", "insulin"},
		answer:   "Diabetes risk depends mostly on glucose, BMI and age. Try the diabetes prediction tool with your latest lab values, and talk to your doctor about an HbA1c test.",
	},
	{
		keywords: []string{"heart", "chest", "cholesterol", "angina"},
		answer:   "Heart disease risk rises with blood pressure, cholesterol and chest pain during exercise. The heart disease prediction tool can give you an estimate. Seek urgent care for sudden chest pain.",
	},
	{
		keywords: []string{"stroke", "hypertension", "numb", "speech"},
		answer:   "High blood pressure, heart disease and smoking are the main stroke risk factors. Use the stroke risk tool for an estimate. Call emergency services right away if you notice face drooping, arm weakness or speech difficulty.",
	},
	{
		keywords: []string{"lung", "cough", "smok", "breath"},
		answer:   "Smoking history, a persistent cough and shortness of breath are the strongest lung cancer signals. The lung cancer tool can assess your risk; a specialist can advise on low-dose CT screening.",
	},
	{
		keywords: []string{"hello", "hi", "hey"},
		answer:   "Hello! I can help you understand our diabetes, heart disease, lung cancer and stroke risk tools. What would you like to know?",
		exact:    true,
	},
}

const defaultOfflineAnswer = "I understand your concern about medical conditions. Our prediction models can help assess various health risks. Would you like to try one of our prediction tools?"

// OfflineAnswer picks a canned reply for when the bot service is unreachable.
func OfflineAnswer(question string) string {
	words := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	for _, c := range offlineAnswers {
		for _, kw := range c.keywords {
			for _, w := range words {
				if w == kw || (!c.exact && strings.HasPrefix(w, kw)) {
					return c.answer
				}
			}
		}
	}
	return defaultOfflineAnswer
}
