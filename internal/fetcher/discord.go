package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/crawler"
)

type discordChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type discordMessage struct {
	ID      string  `json:"id"`
	Content *string `json:"content"`
}

// Discord authenticates as a bot, resolves the channel and reads its recent history.
// The gateway login happens once per process; later fetches only use REST.
type Discord struct {
	client *crawler.Client
	cfg    configs.DiscordConfig
	logger logrus.FieldLogger

	mu    sync.Mutex
	ready *readyData
}

func NewDiscord(client *crawler.Client, cfg configs.DiscordConfig, logger logrus.FieldLogger) *Discord {
	if cfg.APIURL == "" {
		cfg.APIURL = configs.DefaultDiscordAPIURL
	}
	return &Discord{client: client, cfg: cfg, logger: logger.WithField("transport", "discord")}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Fetch(ctx context.Context) ([]string, error) {
	if d.cfg.BotToken == "" || d.cfg.ChannelID == "" {
		return nil, fmt.Errorf("%w: DISCORD_BOT_TOKEN or DISCORD_CHANNEL_ID is missing", ErrMissingConfig)
	}
	if _, err := strconv.ParseUint(d.cfg.ChannelID, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: channel ID %q is not numeric", ErrChannelNotFound, d.cfg.ChannelID)
	}

	if err := d.login(ctx); err != nil {
		return nil, err
	}

	channel, err := d.resolveChannel(ctx)
	if err != nil {
		return nil, err
	}

	var messages []discordMessage
	endpoint := fmt.Sprintf("%s/channels/%s/messages?limit=%d", d.baseURL(), channel.ID, PageSize)
	if err := d.get(ctx, endpoint, &messages); err != nil {
		return nil, fmt.Errorf("failed to read channel history: %w", err)
	}

	texts := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.Content == nil || *m.Content == "" {
			continue
		}
		texts = append(texts, *m.Content)
	}
	return limit(texts), nil
}

// login identifies on the gateway unless an earlier fetch already did.
// A failed login is retried on the next fetch.
func (d *Discord) login(ctx context.Context) error {
	if d.cfg.GatewayURL == "" {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ready != nil {
		return nil
	}

	ready, err := identify(ctx, d.cfg.GatewayURL, d.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("bot login failed: %w", err)
	}
	d.ready = ready
	d.logger.WithField("bot", ready.User.Username).Debug("Logged in to gateway")
	return nil
}

func (d *Discord) resolveChannel(ctx context.Context) (*discordChannel, error) {
	var channel discordChannel
	err := d.get(ctx, fmt.Sprintf("%s/channels/%s", d.baseURL(), d.cfg.ChannelID), &channel)
	if err == nil {
		return &channel, nil
	}

	var statusErr *crawler.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusNotFound, http.StatusForbidden, http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, d.cfg.ChannelID)
		}
	}
	return nil, fmt.Errorf("failed to resolve channel: %w", err)
}

func (d *Discord) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+d.cfg.BotToken)
	return d.client.DoJSON(ctx, req, out)
}

func (d *Discord) baseURL() string {
	return strings.TrimRight(d.cfg.APIURL, "/")
}
