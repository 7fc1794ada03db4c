package model

import (
	"testing"
	"time"
)

func TestLikes_IndexOfUser(t *testing.T) {
	likes := Likes{{ID: "l1", UserID: "u1"}, {ID: "l2", UserID: "u2"}}

	if got := likes.IndexOfUser("u2"); got != 1 {
		t.Errorf("IndexOfUser(u2) = %d, want 1", got)
	}
	if got := likes.IndexOfUser("u3"); got != -1 {
		t.Errorf("IndexOfUser(u3) = %d, want -1", got)
	}
}

func TestLikes_PrependAndRemoveAt_DoNotAliasReceiver(t *testing.T) {
	orig := Likes{{ID: "l1", UserID: "u1"}}

	added := orig.Prepend(Like{ID: "l0", UserID: "u0"})
	if len(added) != 2 || added[0].UserID != "u0" {
		t.Fatalf("Prepend result = %+v", added)
	}

	removed := added.RemoveAt(0)
	if len(removed) != 1 || removed[0].ID != "l1" {
		t.Fatalf("RemoveAt result = %+v", removed)
	}
	if len(orig) != 1 || orig[0].ID != "l1" {
		t.Errorf("receiver modified: %+v", orig)
	}
}

func TestLikes_WithoutUser(t *testing.T) {
	likes := Likes{{ID: "a", UserID: "u1"}, {ID: "b", UserID: "u2"}, {ID: "c", UserID: "u1"}}

	got, n := likes.WithoutUser("u1")
	if n != 2 {
		t.Errorf("removed = %d, want 2", n)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("WithoutUser = %+v", got)
	}
}

func TestComments_CountIndexRemove(t *testing.T) {
	now := time.Now()
	comments := Comments{
		{ID: "c1", UserID: "u1", Body: "a", Date: now},
		{ID: "c2", UserID: "u2", Body: "b", Date: now},
		{ID: "c3", UserID: "u1", Body: "c", Date: now},
	}

	if got := comments.CountByUser("u1"); got != 2 {
		t.Errorf("CountByUser(u1) = %d, want 2", got)
	}
	if got := comments.IndexOf("c3"); got != 2 {
		t.Errorf("IndexOf(c3) = %d, want 2", got)
	}
	if got := comments.IndexOf("missing"); got != -1 {
		t.Errorf("IndexOf(missing) = %d, want -1", got)
	}

	rest := comments.RemoveAt(1)
	if len(rest) != 2 || rest[0].ID != "c1" || rest[1].ID != "c3" {
		t.Errorf("RemoveAt(1) = %+v", rest)
	}

	scrubbed, n := comments.WithoutUser("u1")
	if n != 2 || len(scrubbed) != 1 || scrubbed[0].ID != "c2" {
		t.Errorf("WithoutUser(u1) = %+v, %d", scrubbed, n)
	}
}

func TestComments_AuthorIDs_Deduplicates(t *testing.T) {
	comments := Comments{{UserID: "u1"}, {UserID: "u2"}, {UserID: "u1"}}

	ids := comments.AuthorIDs()
	if len(ids) != 2 || ids[0] != "u1" || ids[1] != "u2" {
		t.Errorf("AuthorIDs = %v", ids)
	}
}
