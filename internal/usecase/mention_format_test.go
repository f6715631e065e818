package usecase

import (
	"testing"

	"everyone-bot/internal/domain/model"
)

func TestRenderMentionEscapesName(t *testing.T) {
	m := model.NewMember(42, "<Tom>", "& Jerry", "", false)
	got := RenderMention(m)
	want := `<a href="tg://user?id=42">&lt;Tom&gt; &amp; Jerry</a>`
	if got != want {
		t.Fatalf("RenderMention = %q, want %q", got, want)
	}
}

func TestRenderChunk(t *testing.T) {
	chunk := model.ReplyChunk{Mentions: []string{"a", "b", "c"}}
	got := RenderChunk("Attention, everyone!", chunk)
	want := "<code>Attention, everyone!</code>\na | b | c"
	if got != want {
		t.Fatalf("RenderChunk = %q, want %q", got, want)
	}
}

func TestOrderMembersIsStable(t *testing.T) {
	members := []model.Member{
		{UserID: 1, DisplayName: "Sam"},
		{UserID: 2, DisplayName: "sam"},
		{UserID: 3, DisplayName: "Ann", IsAdmin: true},
	}
	orderMembers(members)
	if members[0].UserID != 3 || members[1].UserID != 1 || members[2].UserID != 2 {
		t.Fatalf("unexpected order: %+v", members)
	}
}
