package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sharebyte/internal/service"
)

func startKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Help 📜", "help"),
			tgbotapi.NewInlineKeyboardButtonData("About ℹ️", "about"),
		),
	)
}

func helpKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Home 🏠", "home"),
			tgbotapi.NewInlineKeyboardButtonData("About ℹ️", "about"),
		),
	)
}

func aboutKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Home 🏠", "home"),
			tgbotapi.NewInlineKeyboardButtonData("Help 📜", "help"),
		),
	)
}

// forceSubKeyboard renders one join button per missing channel plus the
// refresh button. arg is the original /start payload so the refresh can
// complete the delivery once the user has joined.
func forceSubKeyboard(missing []service.Channel, arg string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range missing {
		if ch.Link == "" {
			continue
		}
		name := ch.Name
		if name == "" {
			name = "Channel"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(fmt.Sprintf("Join %s 📢", name), ch.Link),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 I've Joined", "check_sub:"+arg),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func shareKeyboard(link string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 Share Link", link),
		),
	)
}

func batchKeyboard(link, token string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 Access Files", link),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete Batch", "delete_batch_"+token),
		),
	)
}
