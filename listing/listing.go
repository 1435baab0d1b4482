// Package listing parses book submission captions and renders the canonical
// channel post text.
package listing

import (
	"fmt"
	"strings"

	"github.com/aziz-turgunoff/kitob-tg-bot/models"
)

// MinLines is the number of caption lines a submission must carry:
// title, author, pages, condition, cover, year, notes, price.
const MinLines = 8

// ErrTooFewLines is returned when a caption has fewer than MinLines
// non-empty-trimmed lines.
var ErrTooFewLines = fmt.Errorf("listing caption needs at least %d lines", MinLines)

// Parse splits a submission caption into structured listing fields.
// Lines beyond the first eight are folded into the notes field untouched.
func Parse(caption string) (models.Listing, error) {
	lines := strings.Split(caption, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	if len(lines) < MinLines {
		return models.Listing{}, ErrTooFewLines
	}
	return models.Listing{
		Title:     lines[0],
		Author:    lines[1],
		Pages:     lines[2],
		Condition: lines[3],
		Cover:     lines[4],
		Year:      lines[5],
		Notes:     lines[6],
		Price:     lines[7],
	}, nil
}

// Format renders the canonical channel post. The contact handle comes from
// configuration so the text carries no ambient state.
func Format(l models.Listing, contact string) string {
	return fmt.Sprintf(
		"*#kitob*\n"+
			"📜 *Nomi:* %s\n"+
			"👥 *Muallifi:* %s\n"+
			"📖 *Beti:* %s\n"+
			"🕵‍♂ *Holati:* %s\n"+
			"📚 *Muqovasi:* %s\n"+
			"🗓 *Nashr etilgan yili:* %s\n"+
			"📝 *Qo'shimcha ma'lumot:* %s\n"+
			"🎭 *Murojaat uchun:* %s\n"+
			"💰 *Narxi:* *%s 000 soʻm*",
		l.Title, l.Author, l.Pages, l.Condition, l.Cover, l.Year, l.Notes, contact, l.Price,
	)
}

// FormatCaption parses a raw caption and renders the channel post in one
// step; used on the repost path where only the raw text is persisted.
func FormatCaption(caption, contact string) (string, error) {
	l, err := Parse(caption)
	if err != nil {
		return "", err
	}
	return Format(l, contact), nil
}
