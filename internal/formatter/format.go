package formatter

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/pushrelay/pkg/event"
)

// defaultEmoji は未知の種類に使う絵文字。
const defaultEmoji = "📢"

// callToAction は本文の最終行。
const callToAction = "Tap to view details"

// emojis は機会の種類ごとの絵文字。
var emojis = map[event.OpportunityType]string{
	event.TypeInternship:  "🚀",
	event.TypeHackathon:   "🏆",
	event.TypeEvent:       "📅",
	event.TypeMeetup:      "🤝",
	event.TypeCompetition: "🎯",
}

// Emoji は機会の種類に対応する絵文字を返す。
func Emoji(t event.OpportunityType) string {
	if e, ok := emojis[t]; ok {
		return e
	}
	return defaultEmoji
}

// Label は種類の先頭の1文字だけを大文字にしたラベルを返す。残りはそのまま。
func Label(t event.OpportunityType) string {
	s := string(t)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Format は機会のレコードから通知のタイトルと本文を組み立てる。
func Format(op event.Opportunity) (title, body string) {
	title = fmt.Sprintf("%s New %s Opportunity", Emoji(op.Type), Label(op.Type))
	body = fmt.Sprintf("%s\n%s • %s\nDeadline: %s\n%s",
		op.Title, op.Organization, op.Location, op.Deadline, callToAction)
	return title, body
}
