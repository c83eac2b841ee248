package bot

import (
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/conversation"
	"github.com/Proton-105/parfum-bot/internal/i18n"
)

// Command constants for Telegram bot commands.
const (
	CommandStart        = "/start"
	CommandFastSale     = "/jual_cepat"
	CommandFastPurchase = "/beli_cepat"
	CommandSearch       = "/cari"
	CommandReload       = "/reload"
	CommandCancel       = "/batal"
	CommandCancelAlias  = "/cancel"
	CommandHelp         = "/help"
)

// commandTable maps slash commands to conversation commands.
var commandTable = map[string]conversation.Command{
	CommandStart:        conversation.CommandStart,
	CommandFastSale:     conversation.CommandFastSale,
	CommandFastPurchase: conversation.CommandFastPurchase,
	CommandSearch:       conversation.CommandSearch,
	CommandReload:       conversation.CommandReload,
	CommandCancel:       conversation.CommandCancel,
	CommandCancelAlias:  conversation.CommandCancel,
	CommandHelp:         conversation.CommandHelp,
}

// menuOrder lists the commands advertised in the Telegram command menu.
var menuOrder = []string{
	CommandStart,
	CommandFastSale,
	CommandFastPurchase,
	CommandSearch,
	CommandReload,
	CommandCancel,
	CommandHelp,
}

// NormalizeCommand reduces "/Start@parfum_bot extra" to "/start".
func NormalizeCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd)
}

// MenuCommands describes the command menu shown by Telegram clients.
func MenuCommands(t i18n.Translator) []telebot.Command {
	out := make([]telebot.Command, 0, len(menuOrder))
	for _, cmd := range menuOrder {
		out = append(out, telebot.Command{
			Text:        strings.TrimPrefix(cmd, "/"),
			Description: t.T("commands." + string(commandTable[cmd])),
		})
	}
	return out
}
