package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its pattern and middleware.
// It encapsulates all information needed to register and document a command.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot commands.
// It configures each command with appropriate handlers and middleware.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	command := func(pattern string, handler tgbot.HandlerFunc, mw ...tgbot.Middleware) RegisteredHandler {
		return RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Handler:     handler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  mw,
		}
	}

	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = command("start", NewStartHandler(deps))
	handlers["/help"] = command("help", NewHelpHandler(deps))

	handlers["/addtask"] = command("addtask", NewAddTaskHandler(deps))
	handlers["/listtasks"] = command("listtasks", NewListTasksHandler(deps))
	handlers["/edittask"] = command("edittask", NewEditTaskHandler(deps))
	handlers["/deletetask"] = command("deletetask", NewDeleteTaskHandler(deps))
	handlers["/complete"] = command("complete", NewSetDoneHandler(deps, true))
	handlers["/pending"] = command("pending", NewSetDoneHandler(deps, false))

	handlers["/addreminder"] = command("addreminder", NewAddReminderHandler(deps))
	handlers["/listreminders"] = command("listreminders", NewListRemindersHandler(deps))
	handlers["/deletereminder"] = command("deletereminder", NewDeleteReminderHandler(deps))

	handlers["/menu"] = command("menu", NewMenuHandler(deps))
	handlers["menu_callback"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     menuCallbackPrefix,
		Handler:     NewMenuCallbackHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}

	handlers["/stats"] = command("stats", NewStatsHandler(deps), AdminOnly(deps))

	return handlers
}
