package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"smart-todo/internal/model"
	"smart-todo/internal/repository"
	"smart-todo/internal/service"
)

const cbCompletePrefix = "complete:"

const (
	iconPending    = "🕒"
	iconInProgress = "▶️"
	iconCompleted  = "✅"
	menuLabelTasks = "📋 Tasks"
	menuLabelHelp  = "ℹ️ Help"
)

// Bot aggregates Telegram API with services.
type Bot struct {
	api      *tgbotapi.BotAPI
	userRepo *repository.UserRepository
	taskSvc  *service.TaskService
	notifier service.Notifier
	loc      *time.Location
	log      *logrus.Entry
}

func New(token string, userRepo *repository.UserRepository, taskSvc *service.TaskService, notifier service.Notifier,
	loc *time.Location, log *logrus.Entry) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log = log.WithField("component", "telegram")
	log.WithField("account", api.Self.UserName).Info("bot authorized")

	return &Bot{
		api:      api,
		userRepo: userRepo,
		taskSvc:  taskSvc,
		notifier: notifier,
		loc:      loc,
		log:      log,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.WithError(err).Warn("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.WithError(err).Warn("handle message")
			}
		}
	}

	return nil
}

// SendText delivers an HTML message to chatID. It lets the reminder service use the bot
// as a delivery channel.
func (b *Bot) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		b.log.WithFields(logrus.Fields{"chat_id": msg.Chat.ID, "command": msg.Command()}).Info("command received")
		return b.handleCommand(ctx, msg)
	}

	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuLabelTasks):
		return b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return b.handleHelp(msg)
	}
	return b.sendText(msg.Chat.ID, "I did not get that. Send /tasks to see your tasks or /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

// handleStart links the chat to the account whose telegram username matches the sender.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	username := strings.TrimPrefix(strings.TrimSpace(msg.From.UserName), "@")
	if username == "" {
		return b.sendText(chatID, fmt.Sprintf(
			"👋 Your chat id is <code>%d</code>.\nSet a Telegram username and save it in your Smart To-Do profile, then send /start again.", chatID))
	}

	user, err := b.userRepo.LinkTelegram(ctx, username, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return b.sendText(chatID, fmt.Sprintf(
			"👋 Your chat id is <code>%d</code>.\nNo Smart To-Do account uses the Telegram username @%s yet. Add it to your profile and send /start again.",
			chatID, escape(username)))
	}
	if err != nil {
		return err
	}

	b.log.WithFields(logrus.Fields{"user_id": user.ID, "chat_id": chatID}).Info("telegram chat linked")
	if _, err := b.notifier.Add(ctx, user.ID, "Telegram linked",
		"Task reminders will now also be sent to your Telegram chat.", model.NotificationSystem); err != nil {
		b.log.WithError(err).Warn("add link notification")
	}
	return b.sendText(chatID, fmt.Sprintf(
		"👋 Hi, %s!\nThis chat (id <code>%d</code>) now receives your task reminders.\n\n%s",
		escape(user.Username), chatID, helpText))
}

const helpText = "Commands:\n" +
	"• /tasks — list your tasks\n" +
	"• /done &lt;id&gt; [rate] — mark a started task completed, rate 0-100 (default 100)\n" +
	"• /help — this message"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Smart To-Do</b>\n"+helpText)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID)
	if err != nil || !ok {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, rate, err := parseDoneArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID)
	if err != nil || !ok {
		return err
	}
	return b.completeTask(ctx, msg.Chat.ID, user, taskID, rate)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Debug("callback ack")
	}
	if !strings.HasPrefix(cb.Data, cbCompletePrefix) {
		return nil
	}

	taskID, err := parseTaskID(cb.Data, cbCompletePrefix)
	if err != nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	user, ok, err := b.linkedUser(ctx, chatID)
	if err != nil || !ok {
		return err
	}
	return b.completeTask(ctx, chatID, user, taskID, 100)
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, user *model.User, taskID uint, rate float64) error {
	task, err := b.taskSvc.CompleteTask(ctx, user.ID, taskID, rate)
	switch {
	case service.IsNotFound(err):
		return b.sendText(chatID, "Task not found.")
	case errors.Is(err, service.ErrInvalidInput):
		return b.sendText(chatID, "Only a task that has started can be completed.")
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Could not complete the task: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("%s Task \"%s\" completed at %s%%.",
		iconCompleted, escape(task.Name), strconv.FormatFloat(task.CompletionRate, 'f', -1, 64)))
}

// linkedUser resolves the account linked to chatID. When none is linked the user is told
// how to link and ok is false.
func (b *Bot) linkedUser(ctx context.Context, chatID int64) (*model.User, bool, error) {
	user, err := b.userRepo.FindByTelegramChatID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, b.sendText(chatID, "This chat is not linked to a Smart To-Do account yet. Send /start first.")
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.taskSvc.ListTasks(ctx, user.ID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "You have no tasks yet.")
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Your tasks</b>\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(formatTask(task, b.loc))
		if task.Status == model.StatusInProgress {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%s #%d · %s", iconCompleted, task.ID, shortTitle(task.Name, 24)),
					fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
			))
		}
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

// parseDoneArgs reads "<id> [rate]" from a /done command.
func parseDoneArgs(args string) (uint, float64, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0, errors.New("Usage: /done <id> [rate]")
	}
	id, err := parseTaskID(strings.TrimPrefix(fields[0], "#"), "")
	if err != nil || id == 0 {
		return 0, 0, errors.New("Task id must be a positive number.")
	}
	rate := 100.0
	if len(fields) == 2 {
		rate, err = strconv.ParseFloat(strings.TrimSuffix(fields[1], "%"), 64)
		if err != nil || rate < 0 || rate > 100 {
			return 0, 0, errors.New("Rate must be a number between 0 and 100.")
		}
	}
	return id, rate, nil
}

func shortTitle(title string, maxLen int) string {
	clean := strings.Join(strings.Fields(title), " ")
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func statusIcon(s model.TaskStatus) string {
	switch s {
	case model.StatusInProgress:
		return iconInProgress
	case model.StatusCompleted:
		return iconCompleted
	default:
		return iconPending
	}
}

func formatTask(task model.Task, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", statusIcon(task.Status), task.ID, escape(shortTitle(task.Name, 64))))
	b.WriteString(fmt.Sprintf("   Status: %s", strings.ReplaceAll(string(task.Status), "_", " ")))
	if task.Status == model.StatusCompleted {
		b.WriteString(fmt.Sprintf(" (%s%%)", strconv.FormatFloat(task.CompletionRate, 'f', -1, 64)))
	}
	b.WriteByte('\n')
	if start, err := service.ParseStartTime(task.StartTime, loc); err == nil {
		b.WriteString(fmt.Sprintf("   ⏰ %s\n", start.Format("2006-01-02 15:04")))
	}
	if task.Location != "" {
		b.WriteString(fmt.Sprintf("   📍 %s\n", escape(task.Location)))
	}
	b.WriteByte('\n')
	return b.String()
}
