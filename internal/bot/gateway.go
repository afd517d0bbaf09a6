package bot

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Gateway adapts the Slack Web API client to the narrow surface the bot
// needs. It implements Messenger and the service's ChannelResolver.
type Gateway struct {
	api *slack.Client
}

// NewGateway creates a new gateway instance.
func NewGateway(api *slack.Client) *Gateway {
	return &Gateway{api: api}
}

// PostChannelMessage posts a plain text message to a channel.
func (g *Gateway) PostChannelMessage(ctx context.Context, channelID, text string) error {
	_, _, err := g.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("failed to post message to %s: %w", channelID, err)
	}
	return nil
}

// RespondToCommand delivers a slash command response through the
// command's response URL.
func (g *Gateway) RespondToCommand(ctx context.Context, responseURL, text string) error {
	err := slack.PostWebhookContext(ctx, responseURL, &slack.WebhookMessage{Text: text})
	if err != nil {
		return fmt.Errorf("failed to post command response: %w", err)
	}
	return nil
}

// ResolveChannelName looks up the channel name through conversations.info.
func (g *Gateway) ResolveChannelName(ctx context.Context, channelID string) (string, error) {
	channel, err := g.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get channel info for %s: %w", channelID, err)
	}
	return channel.Name, nil
}
