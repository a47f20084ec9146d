// Package models defines the core data types shared across the service.
package models

import "time"

// Category classifies a confession. The set is fixed; unknown values
// normalize to CategoryOther.
type Category string

const (
	CategoryLoveRelationships     Category = "LOVE_RELATIONSHIPS"
	CategoryFamilyFriends         Category = "FAMILY_FRIENDS"
	CategoryWorkSchool            Category = "WORK_SCHOOL"
	CategorySecretsLies           Category = "SECRETS_LIES"
	CategoryRegretsMistakes       Category = "REGRETS_MISTAKES"
	CategoryDreamsAspirations     Category = "DREAMS_ASPIRATIONS"
	CategoryFearsAnxieties        Category = "FEARS_ANXIETIES"
	CategoryGuiltShame            Category = "GUILT_SHAME"
	CategoryAngerFrustration      Category = "ANGER_FRUSTRATION"
	CategoryGratitudeThanks       Category = "GRATITUDE_THANKS"
	CategoryConfusionDoubt        Category = "CONFUSION_DOUBT"
	CategoryLonelinessIsolation   Category = "LONELINESS_ISOLATION"
	CategorySuccessAchievement    Category = "SUCCESS_ACHIEVEMENT"
	CategoryFailureDisappointment Category = "FAILURE_DISAPPOINTMENT"
	CategoryOther                 Category = "OTHER"
)

// AllCategories returns every valid category.
func AllCategories() []Category {
	return []Category{
		CategoryLoveRelationships,
		CategoryFamilyFriends,
		CategoryWorkSchool,
		CategorySecretsLies,
		CategoryRegretsMistakes,
		CategoryDreamsAspirations,
		CategoryFearsAnxieties,
		CategoryGuiltShame,
		CategoryAngerFrustration,
		CategoryGratitudeThanks,
		CategoryConfusionDoubt,
		CategoryLonelinessIsolation,
		CategorySuccessAchievement,
		CategoryFailureDisappointment,
		CategoryOther,
	}
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// NormalizeCategory maps an input string to a valid category, defaulting
// to CategoryOther for empty or unknown values.
func NormalizeCategory(s string) Category {
	if s == "" {
		return CategoryOther
	}
	c := Category(s)
	if !c.Valid() {
		return CategoryOther
	}
	return c
}

// ModerationStatus is the publication state of a post.
type ModerationStatus string

const (
	StatusApproved ModerationStatus = "approved"
	StatusPending  ModerationStatus = "pending"
)

// Post is a single anonymous confession.
type Post struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Category  Category  `json:"category"`
	Sentiment *float64  `json:"sentiment"`
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
	IsDeleted bool      `json:"-"`
	AuthorID  string    `json:"-"`
	Alias     string    `json:"anonId"`
	CreatedAt time.Time `json:"createdAt"`

	// Pending reports whether an unresolved moderation record exists.
	// Populated on admin read paths only.
	Pending bool `json:"isPending,omitempty"`
}

// ModerationRecord holds the review state for a flagged post. A post has
// at most one active record; a resolved record means the post is public.
type ModerationRecord struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Reason    string    `json:"reason"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"createdAt"`
}

// Vote is a single +1/-1 vote. (VoterID, PostID) is unique; a revote
// updates the existing row.
type Vote struct {
	ID        string    `json:"id"`
	VoterID   string    `json:"-"`
	PostID    string    `json:"postId"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is a pseudonymous author. The alias is the only public name;
// the session token that keys it never leaves the server logs.
type Identity struct {
	ID        string    `json:"-"`
	Alias     string    `json:"alias"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// EventPost is the wire payload broadcast to live subscribers when a post
// becomes public.
type EventPost struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Category  Category `json:"category"`
	Sentiment *float64 `json:"sentiment"`
	AnonID    string   `json:"anonId"`
	CreatedAt string   `json:"createdAt"`
}

// EventFromPost builds the broadcast payload for a post.
func EventFromPost(p *Post) EventPost {
	return EventPost{
		ID:        p.ID,
		Content:   p.Content,
		Category:  p.Category,
		Sentiment: p.Sentiment,
		AnonID:    p.Alias,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
