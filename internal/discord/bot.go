// Package discord connects the checklist commands to a Discord bot
// session: slash commands, task buttons, the coin flip trigger and
// reminder DMs.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/nibzard/checklist-go/internal/commands"
	"github.com/nibzard/checklist-go/internal/reminder"
	"github.com/nibzard/checklist-go/internal/utils"
)

// ErrNoToken is returned by New when the token is empty.
var ErrNoToken = errors.New("discord token is empty")

// Options configures a Bot.
type Options struct {
	Token string
	// GuildID registers commands in one guild instead of globally.
	GuildID string
	Logger  *log.Logger
}

// Bot is a Discord gateway session serving the checklist commands.
type Bot struct {
	session *discordgo.Session
	service *commands.Service
	guildID string
	logger  *log.Logger
}

// New creates a bot session. The connection is opened by Run.
func New(service *commands.Service, opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, ErrNoToken
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	session, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent
	discordgo.Logger = sessionLogger(logger)

	b := &Bot{
		session: session,
		service: service,
		guildID: opts.GuildID,
		logger:  logger,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	session.AddHandler(b.onMessage)
	return b, nil
}

// Notifier returns a reminder notifier that sends direct messages through
// this bot's session.
func (b *Bot) Notifier() *DMNotifier {
	return &DMNotifier{sender: b.session}
}

// Run opens the gateway connection, registers the slash commands and
// blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer b.session.Close()

	appID := b.session.State.User.ID
	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, Commands())
	if err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}
	b.logger.Info("slash commands registered", "count", len(registered), "guild", b.guildID)

	<-ctx.Done()
	b.logger.Info("discord session closing")
	return ctx.Err()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("logged in", "user", r.User.String(), "guilds", len(r.Guilds))
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	resp, ok := b.dispatch(i.Interaction)
	if !ok {
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: responseData(resp),
	})
	if err != nil {
		b.logger.Error("interaction response failed", "user", callerID(i.Interaction), "err", err)
	}
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	resp, ok := b.service.Message(m.Content)
	if !ok {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, utils.Truncate(resp.Text, maxContentLength)); err != nil {
		b.logger.Error("message send failed", "channel", m.ChannelID, "err", err)
	}
}

// dispatch routes an interaction to the command service. It reports false
// for interactions the bot does not handle.
func (b *Bot) dispatch(i *discordgo.Interaction) (commands.Response, bool) {
	caller := callerID(i)
	if caller == "" {
		return commands.Response{}, false
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		opts := optionMap(data.Options)
		switch data.Name {
		case cmdChecklist:
			return b.service.View(caller), true
		case cmdAdd:
			return b.service.Add(caller, commands.AddRequest{
				Task:     opts.str("task"),
				Priority: opts.str("priority"),
				DueDate:  opts.str("due_date"),
				DueTime:  opts.str("due_time"),
			}), true
		case cmdEdit:
			return b.service.Edit(caller, commands.EditRequest{
				Position: opts.int("index"),
				Task:     opts.str("new_task"),
				Priority: opts.str("priority"),
				DueDate:  opts.str("due_date"),
				DueTime:  opts.str("due_time"),
			}), true
		case cmdRepair:
			return b.service.Repair(caller), true
		}
		b.logger.Warn("unknown slash command", "name", data.Name)
		return commands.Response{}, false

	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		action, err := commands.ParseAction(data.CustomID)
		if err != nil {
			b.logger.Warn("unknown component", "custom_id", data.CustomID, "err", err)
			return commands.Response{Text: commands.MsgStaleAction, Ephemeral: true}, true
		}
		return b.service.Execute(caller, action), true
	}
	return commands.Response{}, false
}

// callerID returns the id of the user who triggered the interaction.
// Guild interactions carry a member, direct messages a user.
func callerID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func (o options) str(name string) string {
	if opt, ok := o[name]; ok && opt.Type == discordgo.ApplicationCommandOptionString {
		return opt.StringValue()
	}
	return ""
}

func (o options) int(name string) int {
	if opt, ok := o[name]; ok && opt.Type == discordgo.ApplicationCommandOptionInteger {
		return int(opt.IntValue())
	}
	return 0
}

// dmSender is the part of a discordgo session used to deliver DMs.
type dmSender interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DMNotifier delivers reminders as direct messages.
type DMNotifier struct {
	sender dmSender
}

// Notify implements reminder.Notifier.
func (n *DMNotifier) Notify(ctx context.Context, r reminder.Reminder) error {
	ch, err := n.sender.UserChannelCreate(r.UserID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open DM channel for %s: %w", r.UserID, err)
	}
	if _, err := n.sender.ChannelMessageSend(ch.ID, utils.Truncate(r.Message(), maxContentLength), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send DM to %s: %w", r.UserID, err)
	}
	return nil
}

// sessionLogger routes discordgo's internal logging to logger.
func sessionLogger(logger *log.Logger) func(msgL, caller int, format string, a ...interface{}) {
	l := logger.With("component", "discordgo")
	return func(msgL, _ int, format string, a ...interface{}) {
		level := log.DebugLevel
		switch msgL {
		case discordgo.LogError:
			level = log.ErrorLevel
		case discordgo.LogWarning:
			level = log.WarnLevel
		}
		l.Log(level, fmt.Sprintf(format, a...))
	}
}
