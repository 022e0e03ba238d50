package service

// Phase is the conversational stage of a session. It is derived from the
// message count on every turn and never stored.
type Phase string

const (
	// PhaseProbing asks one clarifying question per turn.
	PhaseProbing Phase = "probing"
	// PhaseRecommending gives concrete recommendations.
	PhaseRecommending Phase = "recommending"
)

// RecommendationThreshold is the history length, counting the incoming user
// message, at which a session starts receiving recommendations.
const RecommendationThreshold = 6

// PhaseFor returns the phase for a history of n messages.
func PhaseFor(n int) Phase {
	if n >= RecommendationThreshold {
		return PhaseRecommending
	}
	return PhaseProbing
}

func (p Phase) directive() string {
	if p == PhaseRecommending {
		return "Based on the conversation, you now have enough information to provide specific recommendations. " +
			"Provide 3-5 personalized recommendations with detailed explanations of why each recommendation fits the user's preferences. " +
			"Be specific and actionable."
	}
	return "Continue the conversation by asking a thoughtful follow-up question to better understand the user's preferences. " +
		"Ask only one focused question at a time. Be conversational and engaging."
}
