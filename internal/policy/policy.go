// Package policy holds the visibility and mutation predicates. All functions
// are pure: they look only at the entities and actor ids handed to them.
package policy

import "github.com/tubeworks/backend/internal/models"

// CanViewVideo reports whether the viewer may read the video. Unpublished
// videos are visible only to their owner.
func CanViewVideo(video models.Video, viewerID string) bool {
	return video.IsPublished || viewerID == video.OwnerID
}

// CanCommentOnVideo follows the same rule as viewing.
func CanCommentOnVideo(video models.Video, actorID string) bool {
	return CanViewVideo(video, actorID)
}

// CanViewPlaylist reports whether the viewer may read the playlist. Private
// playlists are visible only to their owner.
func CanViewPlaylist(playlist models.Playlist, viewerID string) bool {
	return playlist.IsPublic || viewerID == playlist.OwnerID
}

// CanMutateVideo restricts edits, publish toggles, and deletion to the owner.
func CanMutateVideo(video models.Video, actorID string) bool {
	return actorID != "" && actorID == video.OwnerID
}

// CanMutatePlaylist restricts playlist edits and membership changes to the
// owner.
func CanMutatePlaylist(playlist models.Playlist, actorID string) bool {
	return actorID != "" && actorID == playlist.OwnerID
}

// CanEditComment restricts content edits to the comment owner.
func CanEditComment(comment models.Comment, actorID string) bool {
	return actorID != "" && actorID == comment.OwnerID
}

// CanDeleteComment permits deletion by the comment owner or the owner of the
// video the comment sits on.
func CanDeleteComment(comment models.Comment, video models.Video, actorID string) bool {
	if actorID == "" {
		return false
	}
	return actorID == comment.OwnerID || actorID == video.OwnerID
}
