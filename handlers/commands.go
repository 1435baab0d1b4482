package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aziz-turgunoff/kitob-tg-bot/repost"
	"github.com/aziz-turgunoff/kitob-tg-bot/utils"
)

const welcomeText = `📚 *BookBot ga xush kelibsiz!*

Bu bot orqali siz kitob rasmlarini yuborib, ularni kanalga avtomatik tarzda joylashtirishingiz mumkin.

*Qanday ishlatish:*
1. Kitob rasmini yuboring
2. Rasm bilan birga matnni ham yuboring
3. Bot avtomatik ravishda kanalga joylashtiradi

*Matn formati:*
Har bir qator alohida bo'lishi kerak:
- Kitob nomi
- Muallif
- Betlar soni
- Holati
- Muqova
- Nashr yili
- Qo'shimcha ma'lumot
- Narx

/help - yordam olish uchun`

const helpText = `📖 *Yordam*

*Buyruqlar:*
/start - Botni ishga tushirish
/help - Yordam olish
/status - Botning statusini ko'rish (adminlar uchun)
/repost - Eski postlarni qayta joylash (adminlar uchun)
/repost KK.OO.YYYY - Shu kunda yaratilgan postlarni qayta joylash
/addadmin <user_id> - Admin qo'shish (adminlar uchun)

*Avtomatik qayta joylashtirish:*
- Agar kitob 1 hafta ichida qayta joylashtirilmagan bo'lsa, avtomatik ravishda qayta joylashtiriladi
- Eski post o'chiriladi va yangisi yuboriladi

*Matn formati:*
Har bir qator alohida bo'lishi kerak:
` + "```" + `
Kitob nomi
Muallif
Betlar soni
Holati
Muqova
Nashr yili
Qo'shimcha ma'lumot
Narx
` + "```"

func (h *Handler) handleStart(m *tgbotapi.Message) {
	h.reply(m, welcomeText)
}

func (h *Handler) handleHelp(m *tgbotapi.Message) {
	h.reply(m, helpText)
}

func (h *Handler) handleStatus(ctx context.Context, m *tgbotapi.Message) {
	threshold := time.Now().UTC().AddDate(0, 0, -h.intervalDays)
	stats, err := h.store.Stats(ctx, threshold)
	if err != nil {
		utils.Error("handlers", "status", err.Error())
		h.reply(m, "❌ Statusni olishda xatolik.")
		return
	}

	h.reply(m, fmt.Sprintf(`📊 *Bot Status*

📚 Jami postlar: %d
🔄 Faol postlar: %d
⏰ Qayta joylash kutayotgan postlar: %d

🤖 Bot normal ishlamoqda
📅 Qayta joylash: har %d kunda`,
		stats.Total, stats.Active, stats.NeedingRepost, h.intervalDays))
}

// handleRepost triggers a reconciliation pass: without arguments over posts
// staler than the configured interval, with a DD.MM.YYYY argument over posts
// created on that calendar day (interpreted in the configured timezone).
func (h *Handler) handleRepost(ctx context.Context, m *tgbotapi.Message) {
	arg := strings.TrimSpace(m.CommandArguments())

	var (
		pass  func(context.Context) (repost.Summary, error)
		label string
	)
	if arg == "" {
		threshold := time.Now().UTC().AddDate(0, 0, -h.intervalDays)
		pass = func(ctx context.Context) (repost.Summary, error) {
			return h.reconciler.ReconcileOlderThan(ctx, threshold)
		}
		label = fmt.Sprintf("%d kundan eski postlar", h.intervalDays)
	} else {
		start, end, err := repost.DayWindowUTC(arg, h.timezone)
		if err != nil {
			h.reply(m, "❌ Sana noto'g'ri. Format: KK.OO.YYYY, masalan 11.12.2025")
			return
		}
		pass = func(ctx context.Context) (repost.Summary, error) {
			return h.reconciler.ReconcileRange(ctx, start, end)
		}
		label = arg
	}

	h.reply(m, fmt.Sprintf("🔄 Qayta joylash boshlandi (%s)...", label))

	// The pass is long-latency channel and store I/O; run it off the update
	// loop so other users are not blocked. The runner serializes it against
	// the cron-triggered pass and registers it before spawning so a
	// concurrent shutdown waits for it.
	h.runner.Go(func() {
		sum, err := pass(ctx)
		if err != nil {
			utils.Error("handlers", "repost", err.Error())
			h.reply(m, fmt.Sprintf("⚠️ Qayta joylash to'xtatildi: %s\nNatija: %s", err, summaryText(sum)))
			return
		}
		h.reply(m, "✅ Qayta joylash tugadi.\n"+summaryText(sum))
	})
}

func summaryText(sum repost.Summary) string {
	return fmt.Sprintf("Qayta joylandi: %d\nQo'lda o'chirilgan: %d\nXatolik: %d",
		sum.Processed, sum.Skipped, sum.Failed)
}

func (h *Handler) handleAddAdmin(ctx context.Context, m *tgbotapi.Message) {
	arg := strings.TrimSpace(m.CommandArguments())
	if arg == "" {
		h.reply(m, "Foydalanish: /addadmin <user_id>")
		return
	}
	userID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		h.reply(m, "❌ user_id raqam bo'lishi kerak.")
		return
	}

	if err := h.admins.Add(ctx, userID, ""); err != nil {
		utils.Error("handlers", "addadmin", err.Error())
		h.reply(m, "❌ Admin qo'shishda xatolik.")
		return
	}
	h.reply(m, fmt.Sprintf("✅ %d admin sifatida qo'shildi!", userID))
}
