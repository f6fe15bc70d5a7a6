package conversation

import (
	"regexp"
	"strconv"
	"strings"
)

type commandKind int

const (
	cmdNone commandKind = iota
	cmdHelp
	cmdLogin
	cmdLogout
	cmdShowTasks
	cmdStartTask
	cmdSwitchTask
)

type command struct {
	kind   commandKind
	taskID int64
	args   []string
	// valid=false: команда узнана по префиксу, но аргументы не разобраны
	valid bool
}

var (
	startTaskRegexp  = regexp.MustCompile(`(?i)^start\s+task\s+#?(\d+)$`)
	switchTaskRegexp = regexp.MustCompile(`(?i)^switch\s+to\s+task\s+#?(\d+)$`)
	spacesRegexp     = regexp.MustCompile(`\s+`)
)

func parseCommand(body string) command {
	body = strings.TrimSpace(body)
	normalized := strings.ToLower(spacesRegexp.ReplaceAllString(body, " "))
	switch {
	case normalized == "help":
		return command{kind: cmdHelp, valid: true}
	case normalized == "logout":
		return command{kind: cmdLogout, valid: true}
	case normalized == "show tasks":
		return command{kind: cmdShowTasks, valid: true}
	case normalized == "login" || strings.HasPrefix(normalized, "login "):
		args := strings.Fields(body)[1:]
		return command{kind: cmdLogin, args: args, valid: len(args) == 2}
	case strings.HasPrefix(normalized, "start task"):
		return taskCommand(cmdStartTask, startTaskRegexp, body)
	case strings.HasPrefix(normalized, "switch to task"):
		return taskCommand(cmdSwitchTask, switchTaskRegexp, body)
	}
	return command{kind: cmdNone}
}

func taskCommand(kind commandKind, re *regexp.Regexp, body string) command {
	match := re.FindStringSubmatch(body)
	if match == nil {
		return command{kind: kind}
	}
	taskID, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return command{kind: kind}
	}
	return command{kind: kind, taskID: taskID, valid: true}
}

const (
	ReplyInvalidInput       = "invalid input, send Help"
	ReplyInvalidCredentials = "Invalid credentials"
	ReplyTaskNotFound       = "Task not found or already started"
	ReplyTaskNotActive      = "Task not found or not active"
	ReplyLoginUsage         = "To log in send: login <email> <password>"
	ReplyLoginRequired      = "Please log in first. " + ReplyLoginUsage
	ReplyTaskUsage          = "Send the task number, for example: start task 55"
	ReplyLoggedOut          = "You are logged out"
	ReplyInternalError      = "Something went wrong, please try again"
	ReplyConfirmChoice      = "Reply 1, 2 or 3"
	ReplyNoActiveTasks      = "You have no active tasks"
	ReplyMediaDownload      = "Could not download the attachment, please send it again"
	ReplySubmitFailed       = "Could not save the task, please send your last answer again"
)

const helpText = `Commands:
login <email> <password> - log in
show tasks - list your active tasks
start task <id> - start filling a task from the beginning
switch to task <id> - continue a task where you left off
logout - end the session
help - this message`
