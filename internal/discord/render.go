package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/nibzard/checklist-go/internal/commands"
	"github.com/nibzard/checklist-go/internal/utils"
)

// maxContentLength is Discord's limit for message content.
const maxContentLength = 2000

// maxRows is the number of action rows a message may carry.
const maxRows = 5

// responseData converts a command response into interaction data.
func responseData(resp commands.Response) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{
		Content:    utils.Truncate(resp.Text, maxContentLength),
		Components: components(resp.Actions),
	}
	if resp.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return data
}

// components lays out action buttons. Actions come in toggle/delete pairs
// for consecutive tasks; the n-th task goes to row n%5 so ten tasks fill
// five rows of four buttons.
func components(actions []commands.Action) []discordgo.MessageComponent {
	if len(actions) == 0 {
		return nil
	}

	rows := make([][]discordgo.MessageComponent, maxRows)
	for i, a := range actions {
		row := (i / 2) % maxRows
		rows[row] = append(rows[row], button(a))
	}

	var out []discordgo.MessageComponent
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		out = append(out, discordgo.ActionsRow{Components: row})
	}
	return out
}

func button(a commands.Action) discordgo.Button {
	style := discordgo.PrimaryButton
	if a.Kind == commands.ActionDelete {
		style = discordgo.DangerButton
	}
	return discordgo.Button{
		Label:    a.Label(),
		Style:    style,
		CustomID: a.Encode(),
	}
}
