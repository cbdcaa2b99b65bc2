package bot

// UI texts. Reminder and re-engagement texts live next to the jobs that
// send them, in internal/scheduler.
const (
	welcomeFmt = "Welcome to Valen! I'll remind you to write in your journal each day at %s and %s.\n\n" +
		"Use /setmorning and /setevening to pick your own times."

	goodbyeText = "You've been unsubscribed from Valen reminders. Send /start to re-enable."

	notSubscribedText = "You're not subscribed yet. Send /start first."

	timeUsageFmt = "Please send a time. Example: /set%s %s"

	timeFormatHelp = "Couldn't understand the time format. Try '8:30 AM' or '20:15'."

	timeSetFmt = "Your %s reminder is set to %s."

	statusFmt = "Your settings:\n" +
		"• Morning reminder: %s\n" +
		"• Evening reminder: %s\n" +
		"• Last check-in: %s"

	helpText = `Commands:

/start — subscribe to daily reminders
/stop — unsubscribe
/setmorning 8:30 AM — set the morning reminder time
/setevening 9 PM — set the evening reminder time
/status — show your current settings
/export — get your schedule as an iCalendar file
/help — this message

Just reply to any reminder (text or emoji) to log a check-in.`

	unknownCommandText = "Unknown command. /help for the list."

	errorText = "Something went wrong, please try again."
)
