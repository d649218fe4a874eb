package domain

import "context"

// ChatMessage is one prior turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is a chat answer ready for display.
type ChatResponse struct {
	// Message is the answer text with any recognized confidence tag removed
	Message string `json:"message"`

	// ConfidenceLevel is omitted when the engine gave no recognized level
	ConfidenceLevel ConfidenceLevel `json:"confidence_level,omitempty"`

	Badge   Badge              `json:"badge"`
	Sources []*RetrievedSource `json:"sources"`

	// Rating is the traffic-light summary of the level, with the
	// explanation and next steps shown alongside it
	Rating            RAGRating `json:"rag_rating"`
	RatingExplanation string    `json:"rag_explanation"`
	NextSteps         []string  `json:"next_steps,omitempty"`
}

// NewChatResponse builds the display form of an answer whose tag has
// already been removed.
func NewChatResponse(message string, level ConfidenceLevel, sources []*RetrievedSource) *ChatResponse {
	rating := level.RAGRating()
	return &ChatResponse{
		Message:           message,
		ConfidenceLevel:   level,
		Badge:             level.Badge(),
		Sources:           sources,
		Rating:            rating,
		RatingExplanation: rating.Explanation(),
		NextSteps:         rating.NextSteps(),
	}
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`

	// Token is the bearer token the caller presented, forwarded upstream
	Token string `json:"-"`
}

type identityKey struct{}

// WithIdentity returns a context carrying the caller identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller identity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// UserIDFromContext returns the caller's user id, or "" when anonymous.
func UserIDFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.UserID
	}
	return ""
}
