package formatter

import (
	"strings"
	"testing"

	"github.com/nao1215/pushrelay/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormat は通知のタイトルの組み立てを検証する。
func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		typ       event.OpportunityType
		wantTitle string
	}{
		{name: "インターンシップ", typ: event.TypeInternship, wantTitle: "🚀 New Internship Opportunity"},
		{name: "ハッカソン", typ: event.TypeHackathon, wantTitle: "🏆 New Hackathon Opportunity"},
		{name: "イベント", typ: event.TypeEvent, wantTitle: "📅 New Event Opportunity"},
		{name: "ミートアップ", typ: event.TypeMeetup, wantTitle: "🤝 New Meetup Opportunity"},
		{name: "コンペティション", typ: event.TypeCompetition, wantTitle: "🎯 New Competition Opportunity"},
		{name: "未知の種類は既定の絵文字と先頭のみ大文字", typ: "workshop", wantTitle: "📢 New Workshop Opportunity"},
		{name: "残りの文字は変更しないこと", typ: "game-jam", wantTitle: "📢 New Game-jam Opportunity"},
		{name: "大文字を含む種類はそのまま", typ: "openSource", wantTitle: "📢 New OpenSource Opportunity"},
		{name: "非ASCIIの先頭文字も大文字にすること", typ: "élan", wantTitle: "📢 New Élan Opportunity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			title, _ := Format(event.Opportunity{Type: tt.typ})
			assert.Equal(t, tt.wantTitle, title)
		})
	}
}

// TestFormat_Body はハッカソンの例で本文の4行を検証する。
func TestFormat_Body(t *testing.T) {
	t.Parallel()

	title, body := Format(event.Opportunity{
		Type:         event.TypeHackathon,
		Title:        "HackX",
		Organization: "ACM",
		Location:     "Campus A",
		Deadline:     "2025-05-01",
	})

	assert.Equal(t, "🏆 New Hackathon Opportunity", title)
	lines := strings.Split(body, "\n")
	require.Len(t, lines, 4, body)
	assert.Equal(t, []string{"HackX", "ACM • Campus A", "Deadline: 2025-05-01", "Tap to view details"}, lines)
}

// TestEmoji は既知の種類すべてに専用の絵文字があることを検証する。
func TestEmoji(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, typ := range event.KnownTypes {
		e := Emoji(typ)
		assert.NotEqual(t, defaultEmoji, e, "%s に既定の絵文字が使われている", typ)
		assert.False(t, seen[e], "絵文字 %s が重複している", e)
		seen[e] = true
	}
}

// TestLabel は先頭の1文字だけを大文字にすることを検証する。
func TestLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hackathon", Label(event.TypeHackathon))
	assert.Equal(t, "", Label(""))
}
