package bot

import "fmt"

// Message templates. Rendered with Markdown parse mode.
const (
	startText = `🎉 *Welcome to %s!* 🎉

I'm your secure file sharing assistant.

🔐 *Key Features:*
• Secure file sharing
• Unique download links
• Multiple file types
• Auto-delete timers

Use /help to see available commands!`

	helpText = `📚 *Available Commands*

👤 *User Commands:*
• /start - Start the bot
• /help - Show this help
• /about - About the bot

👑 *Admin Commands:*
• /upload - Upload a file (reply to a file)
• /batch\_upload - Start a batch upload
• /done\_batch - Finish the batch and get a link
• /cancel\_batch - Cancel the current batch
• /my\_batches - List your batches
• /auto\_del - Set auto-delete for a file
• /stats - View statistics
• /broadcast - Send a broadcast (reply to a message)

Files with auto-delete enabled are removed from your chat after the configured time.`

	aboutText = `ℹ️ *About %s*

*Version:* %s

*Features:*
• Secure file sharing
• Force subscribe
• Batch uploads
• Auto-delete timers
• Admin controls`

	forceSubText = `🔒 *Access Locked*

You need to join the channel(s) below before I can send you files.

Join them, then tap *I've Joined* to continue.`

	notFoundText    = "❌ File not found or has been deleted!"
	batchGoneText   = "❌ Batch not found or has been deleted!"
	adminOnlyText   = "⚠️ This command is only for admins!"
	tryLaterText    = "❌ Something went wrong, please try again later."
	sendFailedText  = "❌ Failed to send the file. Please try again later."
	unsupportedText = "❌ Unsupported media type."
)

const botVersion = "1.0.0"

// formatSize converts a byte count to a human-readable form.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
