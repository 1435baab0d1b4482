package listing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aziz-turgunoff/kitob-tg-bot/models"
)

const sampleCaption = "Atomic Habits\n" +
	"James Clear\n" +
	"320\n" +
	"Yangi\n" +
	"Qattiq\n" +
	"2018\n" +
	"Yo'q\n" +
	"45"

func TestParseCaption(t *testing.T) {
	l, err := Parse(sampleCaption)

	require.NoError(t, err)
	assert.Equal(t, models.Listing{
		Title:     "Atomic Habits",
		Author:    "James Clear",
		Pages:     "320",
		Condition: "Yangi",
		Cover:     "Qattiq",
		Year:      "2018",
		Notes:     "Yo'q",
		Price:     "45",
	}, l)
}

func TestParseTrimsWhitespace(t *testing.T) {
	caption := "  Atomic Habits  \n James Clear\t\n320\nYangi\nQattiq\n2018\nYo'q\n 45 "

	l, err := Parse(caption)

	require.NoError(t, err)
	assert.Equal(t, "Atomic Habits", l.Title)
	assert.Equal(t, "James Clear", l.Author)
	assert.Equal(t, "45", l.Price)
}

func TestParseRejectsShortCaptions(t *testing.T) {
	for _, caption := range []string{
		"",
		"Atomic Habits",
		"Atomic Habits\nJames Clear\n320\nYangi\nQattiq\n2018\nYo'q",
	} {
		_, err := Parse(caption)
		assert.ErrorIs(t, err, ErrTooFewLines)
	}
}

func TestFormatRendersChannelPost(t *testing.T) {
	l, err := Parse(sampleCaption)
	require.NoError(t, err)

	text := Format(l, "@Yollovchi")

	assert.True(t, strings.HasPrefix(text, "*#kitob*\n"))
	assert.Contains(t, text, "📜 *Nomi:* Atomic Habits")
	assert.Contains(t, text, "👥 *Muallifi:* James Clear")
	assert.Contains(t, text, "🎭 *Murojaat uchun:* @Yollovchi")
	assert.True(t, strings.HasSuffix(text, "💰 *Narxi:* *45 000 soʻm*"))
}

func TestFormatCaption(t *testing.T) {
	text, err := FormatCaption(sampleCaption, "@Yollovchi")

	require.NoError(t, err)
	assert.Contains(t, text, "*#kitob*")

	_, err = FormatCaption("too short", "@Yollovchi")
	assert.ErrorIs(t, err, ErrTooFewLines)
}
