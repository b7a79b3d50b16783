package service

import (
	"fmt"
	"html"
	"strings"

	"smart-todo/internal/model"
)

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func reminderEmail(task model.Task, offset int) (string, string) {
	subject := fmt.Sprintf("Smart To-Do reminder: %s", task.Name)
	body := fmt.Sprintf("Your task %q starts in %d minutes.\nStart time: %s\nLocation: %s\nNotes: %s\nGet ready!\n",
		task.Name, offset, task.StartTime, orDefault(task.Location, "not set"), orDefault(task.Notes, "none"))
	return subject, body
}

func testEmail(task model.Task) (string, string) {
	subject := fmt.Sprintf("Smart To-Do test reminder: %s", task.Name)
	body := fmt.Sprintf("A test reminder for task %q has been sent.\nStart time: %s\nLocation: %s\nNotes: %s\n"+
		"This email checks that reminders reach you.\n",
		task.Name, orDefault(task.StartTime, "not set"), orDefault(task.Location, "not set"), orDefault(task.Notes, "none"))
	return subject, body
}

func reminderChatText(task model.Task, offset int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏰ <b>%s</b> starts in %d min.", html.EscapeString(task.Name), offset))
	if task.Location != "" {
		sb.WriteString(fmt.Sprintf("\n📍 %s", html.EscapeString(task.Location)))
	}
	return sb.String()
}
