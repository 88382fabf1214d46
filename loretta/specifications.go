package loretta

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"gorm.io/gorm"
)

const (
	specsSearchPageSize = 5

	// Custom ID prefix for the search pagination buttons.
	specsSearchComponentPrefix = "specs_search"

	// Terms are embedded in component custom IDs, which Discord caps
	// at 100 characters.
	specsSearchTermMaxLength = 60
)

// specCache caches /specs search results per guild and term so paging
// through results doesn't hit the database once per button click.
type specCache struct {
	mu      sync.Mutex
	entries map[string]specCacheEntry
}

type specCacheEntry struct {
	results   []Specification
	fetchedAt time.Time
}

func newSpecCache() *specCache {
	return &specCache{entries: map[string]specCacheEntry{}}
}

func specCacheKey(guildID string, term string) string {
	return guildID + "\x00" + strings.ToLower(strings.TrimSpace(term))
}

func (c *specCache) get(guildID string, term string, ttl time.Duration) ([]Specification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[specCacheKey(guildID, term)]
	if !ok || time.Since(entry.fetchedAt) > ttl {
		return nil, false
	}
	return entry.results, true
}

func (c *specCache) set(guildID string, term string, results []Specification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[specCacheKey(guildID, term)] = specCacheEntry{
		results:   results,
		fetchedAt: time.Now(),
	}
	if len(c.entries) > 100 {
		c.cleanupLocked()
	}
}

func (c *specCache) cleanupLocked() {
	cutoff := time.Now().Add(-DefaultSpecCacheTTL)
	for key, entry := range c.entries {
		if entry.fetchedAt.Before(cutoff) {
			delete(c.entries, key)
		}
	}
}

// invalidateGuild drops all cached search results for a guild, after
// a spec was created or updated.
func (c *specCache) invalidateGuild(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := guildID + "\x00"
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func (lo *Loretta) commandSpecs(ctx context.Context, i *discordgo.InteractionCreate) error {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		return errors.New("missing subcommand")
	}
	sub := opts[0]

	switch sub.Name {
	case "set":
		return lo.specsSet(ctx, i, sub)
	case "show":
		return lo.specsShow(ctx, i, sub)
	case "search":
		return lo.specsSearch(ctx, i, sub)
	default:
		return fmt.Errorf("unknown subcommand: %s", sub.Name)
	}
}

func (lo *Loretta) specsSet(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	sub *discordgo.ApplicationCommandInteractionDataOption,
) error {
	user := getDiscordUser(i)
	opts := subcommandOptions(sub)

	text := ""
	if opt, ok := opts["text"]; ok {
		text = strings.TrimSpace(opt.StringValue())
	}
	if text == "" {
		return lo.respondEmbed(
			i,
			errorEmbed("Fehler", "Bitte gib deine Spezifikationen an.", user),
			true,
		)
	}
	if len([]rune(text)) > specificationMaxLength {
		return lo.respondEmbed(
			i,
			errorEmbed(
				"Fehler",
				fmt.Sprintf(
					"Die Spezifikationen dürfen maximal %d Zeichen lang sein.",
					specificationMaxLength,
				),
				user,
			),
			true,
		)
	}

	var existing Specification
	err := lo.db.WithContext(ctx).Where(
		"guild_id = ? AND user_id = ?", i.GuildID, user.ID,
	).Last(&existing).Error

	switch {
	case err == nil:
		existing.SpecsText = text
		if _, updErr := lo.writeDB.Update(
			ctx, &existing, "specs_text", text,
		); updErr != nil {
			return fmt.Errorf("error updating specification: %w", updErr)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		spec := Specification{
			GuildID:   i.GuildID,
			UserID:    user.ID,
			SpecsText: text,
		}
		if _, createErr := lo.writeDB.Create(ctx, &spec); createErr != nil {
			return fmt.Errorf("error creating specification: %w", createErr)
		}
	default:
		return fmt.Errorf("error loading specification: %w", err)
	}

	lo.specCache.invalidateGuild(i.GuildID)

	return lo.respondText(i, "Deine Spezifikationen wurden gespeichert!", true)
}

func (lo *Loretta) specsShow(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	sub *discordgo.ApplicationCommandInteractionDataOption,
) error {
	requester := getDiscordUser(i)
	target := requester
	opts := subcommandOptions(sub)
	if opt, ok := opts["benutzer"]; ok {
		target = opt.UserValue(nil)
		if resolved := i.ApplicationCommandData().Resolved; resolved != nil {
			if u, found := resolved.Users[target.ID]; found {
				target = u
			}
		}
	}

	var spec Specification
	err := lo.db.WithContext(ctx).Where(
		"guild_id = ? AND user_id = ?", i.GuildID, target.ID,
	).Last(&spec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lo.respondText(
			i,
			fmt.Sprintf("<@%s> hat keine Specs hinterlegt.", target.ID),
			true,
		)
	}
	if err != nil {
		return fmt.Errorf("error loading specification: %w", err)
	}

	displayName := target.GlobalName
	if displayName == "" {
		displayName = target.Username
	}

	embed := botEmbed(fmt.Sprintf("Specs von %s", displayName), requester)
	embed.Description = spec.SpecsText
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: target.AvatarURL("256")}
	return lo.respondEmbed(i, embed, false)
}

func (lo *Loretta) specsSearch(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	sub *discordgo.ApplicationCommandInteractionDataOption,
) error {
	opts := subcommandOptions(sub)
	term := ""
	if opt, ok := opts["begriff"]; ok {
		term = strings.TrimSpace(opt.StringValue())
	}
	if term == "" {
		return lo.respondEmbed(
			i,
			errorEmbed("Fehler", "Bitte gib einen Suchbegriff an.", getDiscordUser(i)),
			true,
		)
	}
	term = truncate(term, specsSearchTermMaxLength)

	results, err := lo.searchSpecifications(ctx, i.GuildID, term)
	if err != nil {
		return err
	}

	embed, components := lo.specsSearchPage(term, results, 0, getDiscordUser(i))
	data := &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}
	return lo.discord.session.InteractionRespond(
		i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		},
	)
}

// searchSpecifications returns the guild's specs matching the term,
// from cache when fresh.
func (lo *Loretta) searchSpecifications(
	ctx context.Context,
	guildID string,
	term string,
) ([]Specification, error) {
	ttl := lo.RuntimeConfig().SpecCacheTTL.Duration
	if cached, ok := lo.specCache.get(guildID, term, ttl); ok {
		return cached, nil
	}

	var results []Specification
	pattern := "%" + strings.ToLower(term) + "%"
	err := lo.db.WithContext(ctx).Where(
		"guild_id = ? AND lower(specs_text) LIKE ?", guildID, pattern,
	).Order("user_id").Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error searching specifications: %w", err)
	}

	lo.specCache.set(guildID, term, results)
	return results, nil
}

// specsSearchPage renders one page of search results plus the
// pagination buttons.
func (lo *Loretta) specsSearchPage(
	term string,
	results []Specification,
	page int,
	requester *discordgo.User,
) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	totalPages := (len(results) + specsSearchPageSize - 1) / specsSearchPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	embed := botEmbed(fmt.Sprintf("Specs-Suche: %s", term), requester)
	if len(results) == 0 {
		embed.Description = fmt.Sprintf("Keine Specs mit '%s' gefunden.", term)
		return embed, nil
	}

	start := page * specsSearchPageSize
	end := min(start+specsSearchPageSize, len(results))
	for _, spec := range results[start:end] {
		embed.Fields = append(
			embed.Fields, &discordgo.MessageEmbedField{
				Name:  fmt.Sprintf("Benutzer %s", spec.UserID),
				Value: truncateEllipsis(spec.SpecsText, 200),
			},
		)
	}
	embed.Description = fmt.Sprintf(
		"%d Treffer - Seite %d/%d", len(results), page+1, totalPages,
	)

	if totalPages <= 1 {
		return embed, nil
	}

	prev := discordgo.Button{
		Label:    "Zurück",
		Style:    discordgo.SecondaryButton,
		CustomID: specsSearchCustomID(page-1, term),
		Disabled: page == 0,
	}
	next := discordgo.Button{
		Label:    "Weiter",
		Style:    discordgo.SecondaryButton,
		CustomID: specsSearchCustomID(page+1, term),
		Disabled: page >= totalPages-1,
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{prev, next}},
	}
	return embed, components
}

func specsSearchCustomID(page int, term string) string {
	return fmt.Sprintf("%s:%d:%s", specsSearchComponentPrefix, page, term)
}

// parseSpecsSearchCustomID splits a pagination button custom ID back
// into page number and search term.
func parseSpecsSearchCustomID(customID string) (page int, term string, ok bool) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] != specsSearchComponentPrefix {
		return 0, "", false
	}
	page, err := strconv.Atoi(parts[1])
	if err != nil || page < 0 {
		return 0, "", false
	}
	return page, parts[2], true
}

// handleSpecsSearchPage updates the search message in place when a
// pagination button is clicked.
func (lo *Loretta) handleSpecsSearchPage(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	term string,
	page int,
) error {
	results, err := lo.searchSpecifications(ctx, i.GuildID, term)
	if err != nil {
		return err
	}

	embed, components := lo.specsSearchPage(term, results, page, getDiscordUser(i))
	return lo.discord.session.InteractionRespond(
		i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{embed},
				Components: components,
			},
		},
	)
}
