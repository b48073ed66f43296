package discord

import "github.com/bwmarrin/discordgo"

// Slash command names.
const (
	cmdChecklist = "checklist"
	cmdAdd       = "add"
	cmdEdit      = "edit"
	cmdRepair    = "repair_data"
)

func dueOptions(prefix string) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "due_date",
			Description: prefix + "due date in YYYY-MM-DD format",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "due_time",
			Description: prefix + "due time in HH:MM AM/PM format",
		},
	}
}

// Commands returns the slash commands the bot registers.
func Commands() []*discordgo.ApplicationCommand {
	add := &discordgo.ApplicationCommand{
		Name:        cmdAdd,
		Description: "Add a new task with optional priority and due date",
		Options: append([]*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "task",
				Description: "What needs doing",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "priority",
				Description: "High, Medium, Low or any other label (others sort last)",
				Required:    true,
			},
		}, dueOptions("Optional ")...),
	}

	edit := &discordgo.ApplicationCommand{
		Name:        cmdEdit,
		Description: "Edit an existing task",
		Options: append([]*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "index",
				Description: "Task number as shown by /checklist",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "new_task",
				Description: "New task text",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "priority",
				Description: "High, Medium, Low or any other label (others sort last)",
				Required:    true,
			},
		}, dueOptions("Optional new ")...),
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        cmdChecklist,
			Description: "View your checklist sorted by priority and due date",
		},
		add,
		edit,
		{
			Name:        cmdRepair,
			Description: "Repair your task list by removing corrupted entries",
		},
	}
}
