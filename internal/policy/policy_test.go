package policy

import (
	"testing"

	"github.com/tubeworks/backend/internal/models"
)

func TestCanViewVideo(t *testing.T) {
	published := models.Video{OwnerID: "owner", IsPublished: true}
	draft := models.Video{OwnerID: "owner", IsPublished: false}

	if !CanViewVideo(published, "") {
		t.Error("published video must be visible to anonymous viewers")
	}
	if !CanViewVideo(draft, "owner") {
		t.Error("draft must be visible to its owner")
	}
	if CanViewVideo(draft, "stranger") {
		t.Error("draft must not be visible to other users")
	}
	if CanViewVideo(draft, "") {
		t.Error("draft must not be visible anonymously")
	}
}

func TestCanViewPlaylist(t *testing.T) {
	private := models.Playlist{OwnerID: "owner", IsPublic: false}

	if !CanViewPlaylist(models.Playlist{IsPublic: true}, "") {
		t.Error("public playlist must be visible to everyone")
	}
	if !CanViewPlaylist(private, "owner") {
		t.Error("private playlist must be visible to its owner")
	}
	if CanViewPlaylist(private, "stranger") {
		t.Error("private playlist must not be visible to others")
	}
}

func TestCanMutateVideo(t *testing.T) {
	video := models.Video{OwnerID: "owner"}

	if !CanMutateVideo(video, "owner") {
		t.Error("owner must be able to mutate")
	}
	if CanMutateVideo(video, "stranger") || CanMutateVideo(video, "") {
		t.Error("non-owners must not mutate")
	}
	// A video with no owner must not become mutable by anonymous actors.
	if CanMutateVideo(models.Video{}, "") {
		t.Error("empty actor must never pass the owner check")
	}
}

func TestCanDeleteComment(t *testing.T) {
	comment := models.Comment{OwnerID: "author"}
	video := models.Video{OwnerID: "channel"}

	if !CanDeleteComment(comment, video, "author") {
		t.Error("comment author may delete")
	}
	if !CanDeleteComment(comment, video, "channel") {
		t.Error("video owner may moderate comments on their video")
	}
	if CanDeleteComment(comment, video, "stranger") {
		t.Error("strangers may not delete")
	}
	if CanDeleteComment(comment, video, "") {
		t.Error("anonymous actors may not delete")
	}
}

func TestCanEditComment(t *testing.T) {
	comment := models.Comment{OwnerID: "author"}
	if !CanEditComment(comment, "author") {
		t.Error("author may edit")
	}
	// Unlike deletion, editing is never extended to the video owner.
	if CanEditComment(comment, "channel") {
		t.Error("only the author may edit")
	}
}
