// Package bot is the chat boundary: it routes Telegram updates to command and
// callback handlers that drive clinic/doctor selection and subscriptions.
package bot
