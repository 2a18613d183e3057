package models

import "time"

// User represents an account and channel on the TubeWorks platform.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	AvatarURL    string
	CoverURL     string
	Password     string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicProfile strips a user down to the fields safe to embed in read views.
func (u User) PublicProfile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}
}

// Profile is the public projection of a user embedded in composed views.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// Video represents an uploaded video. Media URLs are opaque references into
// the external object store; the row carries only metadata.
type Video struct {
	ID           string
	OwnerID      string
	VideoURL     string
	ThumbnailURL string
	Title        string
	Description  string
	Duration     int64
	Views        int64
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment is a user comment on a video.
type Comment struct {
	ID        string
	VideoID   string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaxCommentLength bounds comment content.
const MaxCommentLength = 500

// LikeTargetKind discriminates the entity a like points at.
type LikeTargetKind string

const (
	LikeTargetVideo   LikeTargetKind = "video"
	LikeTargetComment LikeTargetKind = "comment"
)

// LikeTarget is a tagged union: exactly one of video or comment, fixed at
// construction. The zero value is invalid.
type LikeTarget struct {
	kind LikeTargetKind
	id   string
}

// VideoTarget builds a like target pointing at a video.
func VideoTarget(videoID string) LikeTarget {
	return LikeTarget{kind: LikeTargetVideo, id: videoID}
}

// CommentTarget builds a like target pointing at a comment.
func CommentTarget(commentID string) LikeTarget {
	return LikeTarget{kind: LikeTargetComment, id: commentID}
}

// Kind reports which entity kind the target references.
func (t LikeTarget) Kind() LikeTargetKind { return t.kind }

// ID returns the referenced entity id.
func (t LikeTarget) ID() string { return t.id }

// IsZero reports whether the target was never populated.
func (t LikeTarget) IsZero() bool { return t.kind == "" || t.id == "" }

// Like is a directed edge from an actor to exactly one target entity.
// At most one edge exists per (actor, target); the storage layer enforces
// this with partial unique indexes rather than a check-then-act lookup.
type Like struct {
	ID        string
	LikedBy   string
	Target    LikeTarget
	CreatedAt time.Time
}

// Subscription is a directed edge from a subscriber to a channel (user).
// subscriber != channel; at most one edge per pair.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Playlist is an ordered set of unique video references owned by a user.
type Playlist struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	IsPublic    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	MaxPlaylistNameLength        = 100
	MaxPlaylistDescriptionLength = 500
)

// WatchEntry records that a user played a video. One entry per
// (user, video); repeat plays refresh WatchedAt instead of duplicating.
type WatchEntry struct {
	UserID    string
	VideoID   string
	WatchedAt time.Time
}
