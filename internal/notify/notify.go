package notify

import (
	"context"
	"fmt"
	"league-tracker/internal/config"
	"league-tracker/internal/service"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// DiscordSender is the slice of *discordgo.Session the notifier uses.
type DiscordSender interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier DMs the tracker owner when a scrape finishes.
type DiscordNotifier struct {
	session DiscordSender
	logger  zerolog.Logger
}

func NewDiscordNotifier(session DiscordSender, logger zerolog.Logger) *DiscordNotifier {
	return &DiscordNotifier{session: session, logger: logger}
}

func (n *DiscordNotifier) NotifyScrapeComplete(ctx context.Context, trackerID, userID string, seasonsScraped, seasonsFailed int) error {
	msg := fmt.Sprintf("Tracker %s refreshed: %d season(s) stored", trackerID, seasonsScraped)
	if seasonsFailed > 0 {
		msg += fmt.Sprintf(", %d failed", seasonsFailed)
	}
	return n.send(ctx, userID, msg)
}

func (n *DiscordNotifier) NotifyScrapeFailed(ctx context.Context, trackerID, userID, errorMessage string) error {
	return n.send(ctx, userID, fmt.Sprintf("Tracker %s could not be refreshed: %s", trackerID, errorMessage))
}

func (n *DiscordNotifier) send(ctx context.Context, userID, content string) error {
	channel, err := n.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}
	if _, err := n.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}
	n.logger.Debug().Str("user_id", userID).Str("channel_id", channel.ID).Msg("discord notification sent")
	return nil
}

// LogNotifier records notifications in the log only. Used when no bot token is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyScrapeComplete(_ context.Context, trackerID, userID string, seasonsScraped, seasonsFailed int) error {
	n.logger.Info().
		Str("tracker_id", trackerID).
		Str("user_id", userID).
		Int("seasons_scraped", seasonsScraped).
		Int("seasons_failed", seasonsFailed).
		Msg("scrape complete notification")
	return nil
}

func (n *LogNotifier) NotifyScrapeFailed(_ context.Context, trackerID, userID, errorMessage string) error {
	n.logger.Info().
		Str("tracker_id", trackerID).
		Str("user_id", userID).
		Str("error", errorMessage).
		Msg("scrape failed notification")
	return nil
}

// LogRecomputer stands in for the MMR service, which lives outside this repository.
type LogRecomputer struct {
	logger zerolog.Logger
}

func NewLogRecomputer(logger zerolog.Logger) *LogRecomputer {
	return &LogRecomputer{logger: logger}
}

func (r *LogRecomputer) RecomputeDerivedScore(_ context.Context, userID, trackerID string) error {
	r.logger.Info().
		Str("user_id", userID).
		Str("tracker_id", trackerID).
		Msg("derived score recomputation requested")
	return nil
}

// New picks the Discord notifier when a bot token is configured.
func New(cfg *config.Config, logger zerolog.Logger) (service.Notifier, error) {
	logger = logger.With().Str("component", "notifier").Logger()
	if cfg.DiscordBotToken == "" {
		logger.Info().Msg("DISCORD_BOT_TOKEN not set, notifications go to the log")
		return NewLogNotifier(logger), nil
	}

	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return NewDiscordNotifier(session, logger), nil
}
