package loretta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

const (
	feedSummaryMaxLength = 200

	// embedColorDarkBlue is used for feed announcement embeds
	embedColorDarkBlue = 0x206694
)

// FeedWatcher polls the configured RSS feeds and announces new entries
// to each guild's news channel. News feeds are filtered against the
// configured keywords, software feeds are posted as-is.
type FeedWatcher struct {
	lo      *Loretta
	config  *FeedConfig
	logger  *slog.Logger
	parser  *gofeed.Parser
	limiter *rate.Limiter

	// keywordPatterns are compiled once from config.Keywords
	keywordPatterns []*regexp.Regexp
}

func newFeedWatcher(lo *Loretta, config *FeedConfig) *FeedWatcher {
	logger := lo.logger.With(loggerNameKey, "feed_watcher")

	parser := gofeed.NewParser()
	parser.Client = lo.config.HTTPClient

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultHTTPRequestsPerSecond
	}

	fw := &FeedWatcher{
		lo:      lo,
		config:  config,
		logger:  logger,
		parser:  parser,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
	for _, keyword := range config.Keywords {
		pattern, err := regexp.Compile(
			`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`,
		)
		if err != nil {
			logger.Warn(
				"skipping unusable keyword",
				"keyword", keyword,
				tint.Err(err),
			)
			continue
		}
		fw.keywordPatterns = append(fw.keywordPatterns, pattern)
	}
	return fw
}

// Run polls all feeds on the configured interval until the context is
// canceled. Interval changes via the runtime config take effect on the
// next tick.
func (fw *FeedWatcher) Run(ctx context.Context) error {
	if fw.config == nil || !fw.config.Enabled {
		fw.logger.Info("feed watcher disabled")
		return nil
	}

	interval := fw.pollInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fw.logger.Info("feed watcher started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("feed watcher stopped")
			return nil
		case <-ticker.C:
			if fw.lo.paused.Load() {
				continue
			}
			fw.checkAll(ctx)

			if next := fw.pollInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
				fw.logger.Info("feed poll interval changed", "interval", interval)
			}
		}
	}
}

func (fw *FeedWatcher) pollInterval() time.Duration {
	interval := fw.lo.RuntimeConfig().FeedPollInterval.Duration
	if interval <= 0 {
		interval = DefaultFeedPollInterval
	}
	return interval
}

func (fw *FeedWatcher) checkAll(ctx context.Context) {
	channelIDs := fw.newsChannelIDs()
	if len(channelIDs) == 0 {
		fw.logger.Debug("no news channels configured")
		return
	}

	for _, feedURL := range fw.config.NewsFeeds {
		if err := fw.checkFeed(ctx, feedURL, channelIDs, true); err != nil {
			fw.logger.Error(
				"news feed check failed",
				"feed_url", feedURL,
				tint.Err(err),
			)
		}
	}
	for _, feedURL := range fw.config.SoftwareFeeds {
		if err := fw.checkFeed(ctx, feedURL, channelIDs, false); err != nil {
			fw.logger.Error(
				"software feed check failed",
				"feed_url", feedURL,
				tint.Err(err),
			)
		}
	}
}

// newsChannelIDs returns the news channel of every guild that has one
// configured.
func (fw *FeedWatcher) newsChannelIDs() []string {
	var channelIDs []string
	for _, cfg := range fw.lo.guildConfigs.all() {
		if cfg.NewsChannelID != "" {
			channelIDs = append(channelIDs, cfg.NewsChannelID)
		}
	}
	return channelIDs
}

func (fw *FeedWatcher) checkFeed(
	ctx context.Context,
	feedURL string,
	channelIDs []string,
	filterKeywords bool,
) error {
	if err := fw.limiter.Wait(ctx); err != nil {
		return err
	}

	feed, err := fw.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return fmt.Errorf("error fetching feed %s: %w", feedURL, err)
	}
	if len(feed.Items) == 0 {
		fw.logger.Warn("feed has no entries", "feed_url", feedURL)
		return nil
	}

	// Feeds list newest first. Walk backwards so announcements land in
	// chronological order.
	var errs []error
	for idx := len(feed.Items) - 1; idx >= 0; idx-- {
		item := feed.Items[idx]
		if err = fw.processItem(
			ctx, feed, item, channelIDs, filterKeywords,
		); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (fw *FeedWatcher) processItem(
	ctx context.Context,
	feed *gofeed.Feed,
	item *gofeed.Item,
	channelIDs []string,
	filterKeywords bool,
) error {
	guid := item.GUID
	if guid == "" {
		guid = item.Link
	}
	if guid == "" {
		return nil
	}
	entryGUID := feed.Title + "_" + guid

	if filterKeywords && !fw.matchesKeywords(item.Title+" "+item.Description) {
		// Skipped entries are not recorded, only announced ones
		return nil
	}

	var existing PostedFeedEntry
	err := fw.lo.db.WithContext(ctx).Where(
		"entry_guid = ?", entryGUID,
	).Last(&existing).Error
	if err == nil {
		return nil
	}

	entry := PostedFeedEntry{
		EntryGUID: entryGUID,
		FeedName:  feed.Title,
		Title:     item.Title,
		Link:      item.Link,
	}
	// Insert before posting. A unique constraint error means another
	// instance already announced this entry.
	if _, err = fw.lo.writeDB.Create(ctx, &entry); err != nil {
		fw.logger.Debug(
			"feed entry already recorded",
			"entry_guid", entryGUID,
			tint.Err(err),
		)
		return nil
	}

	embed := fw.newsEmbed(feed, item)

	var errs []error
	for _, channelID := range channelIDs {
		if sendErr := fw.lo.discord.channelMessageSendEmbed(
			channelID, embed,
		); sendErr != nil {
			errs = append(
				errs,
				fmt.Errorf(
					"error announcing %s to channel %s: %w",
					entryGUID,
					channelID,
					sendErr,
				),
			)
			continue
		}
		fw.logger.Info(
			"feed entry announced",
			"feed_name", feed.Title,
			"title", item.Title,
			"channel_id", channelID,
		)
	}
	return errors.Join(errs...)
}

func (fw *FeedWatcher) matchesKeywords(text string) bool {
	for _, pattern := range fw.keywordPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func (fw *FeedWatcher) newsEmbed(
	feed *gofeed.Feed,
	item *gofeed.Item,
) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     truncate(item.Title, discordMaxEmbedTitleLength),
		URL:       item.Link,
		Color:     embedColorDarkBlue,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: feed.Title},
	}

	if imageURL := feedImageURL(item); imageURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: imageURL}
	}

	if summary := strings.TrimSpace(stripHTML(item.Description)); summary != "" {
		embed.Fields = append(
			embed.Fields,
			&discordgo.MessageEmbedField{
				Name:  "Beschreibung",
				Value: truncateEllipsis(summary, feedSummaryMaxLength),
			},
		)
	}
	if item.PublishedParsed != nil {
		embed.Fields = append(
			embed.Fields,
			&discordgo.MessageEmbedField{
				Name:   "Veröffentlicht",
				Value:  fmt.Sprintf("<t:%d:R>", item.PublishedParsed.Unix()),
				Inline: true,
			},
		)
	}
	return embed
}

// feedImageURL finds a thumbnail for a feed entry, preferring image
// enclosures over images embedded in the summary HTML.
func feedImageURL(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		if strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	return firstImageURL(item.Description)
}
