package loretta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"gorm.io/gorm"
)

// All announcements run on German local time.
const birthdayTimezone = "Europe/Berlin"

// birthdayGreetings are the greeting templates, one chosen at random
// per birthday. `{user}` is replaced with the member mention.
var birthdayGreetings = []string{
	"🎉 Herzlichen Glückwunsch zum Geburtstag, {user}! 🎂",
	"🎂 Alles Gute zum Geburtstag, {user}! 🎉",
	"🎈 Happy Birthday, {user}! Hab einen wunderschönen Tag! 🎁",
	"🎉 Ein wundervoller Geburtstag für {user}! 🎂 Feier schön!",
	"🎂 {user} hat heute Geburtstag! Herzlichen Glückwunsch! 🎈",
}

// BirthdayWorker announces the day's birthdays once per day at the
// configured hour.
type BirthdayWorker struct {
	lo     *Loretta
	logger *slog.Logger

	// date (YYYY-MM-DD) of the last completed announcement, so a
	// restart within the announce hour doesn't repeat it
	lastAnnounced string
}

func newBirthdayWorker(lo *Loretta) *BirthdayWorker {
	return &BirthdayWorker{
		lo:     lo,
		logger: lo.logger.With(loggerNameKey, "birthday"),
	}
}

// Run ticks once a minute and fires the announcement when the local
// hour matches the runtime config. Blocks until ctx is canceled.
func (w *BirthdayWorker) Run(ctx context.Context) error {
	loc, err := time.LoadLocation(birthdayTimezone)
	if err != nil {
		return fmt.Errorf("error loading timezone %s: %w", birthdayTimezone, err)
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "birthday worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "birthday worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if w.lo.paused.Load() {
				continue
			}
			now := time.Now().In(loc)
			if now.Hour() != w.lo.RuntimeConfig().BirthdayAnnounceHour {
				continue
			}
			today := now.Format(time.DateOnly)
			if w.lastAnnounced == today {
				continue
			}
			if announceErr := w.announce(ctx, now); announceErr != nil {
				w.logger.ErrorContext(ctx, "error announcing birthdays", tint.Err(announceErr))
				continue
			}
			w.lastAnnounced = today
		}
	}
}

// announce posts greetings for every birthday matching today's date,
// per guild, into the configured birthday channel.
func (w *BirthdayWorker) announce(ctx context.Context, now time.Time) error {
	var birthdays []Birthday
	err := w.lo.db.WithContext(ctx).Where(
		"birth_day = ? AND birth_month = ?", now.Day(), int(now.Month()),
	).Find(&birthdays).Error
	if err != nil {
		return fmt.Errorf("error loading birthdays: %w", err)
	}
	if len(birthdays) == 0 {
		w.logger.InfoContext(ctx, "no birthdays today")
		return nil
	}

	byGuild := map[string][]Birthday{}
	for _, b := range birthdays {
		byGuild[b.GuildID] = append(byGuild[b.GuildID], b)
	}

	var errs []error
	for guildID, guildBirthdays := range byGuild {
		guildConfig, cfgErr := w.lo.GetOrCreateGuildConfig(ctx, guildID)
		if cfgErr != nil {
			errs = append(errs, cfgErr)
			continue
		}
		if guildConfig.BirthdayChannelID == "" {
			w.logger.InfoContext(
				ctx,
				"no birthday channel configured",
				"guild_id", guildID,
			)
			continue
		}
		for _, b := range guildBirthdays {
			greeting := birthdayGreetings[rand.IntN(len(birthdayGreetings))]
			message := strings.ReplaceAll(
				greeting, "{user}", fmt.Sprintf("<@%s>", b.UserID),
			)
			if sendErr := w.lo.discord.channelMessageSend(
				guildConfig.BirthdayChannelID, message,
			); sendErr != nil {
				errs = append(errs, sendErr)
				continue
			}
			w.logger.InfoContext(
				ctx,
				"announced birthday",
				"guild_id", guildID,
				"user_id", b.UserID,
			)
		}
	}
	return errors.Join(errs...)
}

func (lo *Loretta) commandBirthday(ctx context.Context, i *discordgo.InteractionCreate) error {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		return errors.New("missing subcommand")
	}
	sub := opts[0]

	switch sub.Name {
	case "set":
		return lo.birthdaySet(ctx, i, sub)
	case "remove":
		return lo.birthdayRemove(ctx, i)
	case "next":
		return lo.birthdayNext(ctx, i)
	default:
		return fmt.Errorf("unknown subcommand: %s", sub.Name)
	}
}

func (lo *Loretta) birthdaySet(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	sub *discordgo.ApplicationCommandInteractionDataOption,
) error {
	user := getDiscordUser(i)
	opts := subcommandOptions(sub)

	datum := ""
	if opt, ok := opts["datum"]; ok {
		datum = opt.StringValue()
	}

	day, month, err := ParseBirthdayDate(datum)
	if err != nil {
		return lo.respondEmbed(
			i,
			errorEmbed(
				"Ungültiges Datum",
				"Bitte gib dein Geburtsdatum im Format `DD.MM.` an (z.B. `25.12.`).",
				user,
			),
			true,
		)
	}

	var existing Birthday
	getErr := lo.db.WithContext(ctx).Where(
		"guild_id = ? AND user_id = ?", i.GuildID, user.ID,
	).Last(&existing).Error

	switch {
	case getErr == nil:
		if _, updErr := lo.writeDB.Updates(
			ctx,
			&existing,
			map[string]any{"birth_day": day, "birth_month": month},
		); updErr != nil {
			return fmt.Errorf("error updating birthday: %w", updErr)
		}
	case errors.Is(getErr, gorm.ErrRecordNotFound):
		birthday := Birthday{
			GuildID:    i.GuildID,
			UserID:     user.ID,
			BirthDay:   day,
			BirthMonth: month,
		}
		if _, createErr := lo.writeDB.Create(ctx, &birthday); createErr != nil {
			return fmt.Errorf("error creating birthday: %w", createErr)
		}
	default:
		return fmt.Errorf("error loading birthday: %w", getErr)
	}

	return lo.respondText(
		i,
		fmt.Sprintf("Dein Geburtstag wurde auf den %02d.%02d. gesetzt!", day, month),
		true,
	)
}

func (lo *Loretta) birthdayRemove(ctx context.Context, i *discordgo.InteractionCreate) error {
	user := getDiscordUser(i)

	rowsAffected, err := lo.writeDB.Delete(
		&Birthday{}, "guild_id = ? AND user_id = ?", i.GuildID, user.ID,
	)
	if err != nil {
		return fmt.Errorf("error deleting birthday: %w", err)
	}
	_, logger := lo.getLogger(ctx)
	logger.InfoContext(ctx, "removed birthday", "rows_affected", rowsAffected)

	if rowsAffected == 0 {
		return lo.respondText(i, "Du hattest keinen Geburtstag eingetragen.", true)
	}
	return lo.respondText(i, "Dein Geburtstag wurde entfernt.", true)
}

func (lo *Loretta) birthdayNext(ctx context.Context, i *discordgo.InteractionCreate) error {
	loc, err := time.LoadLocation(birthdayTimezone)
	if err != nil {
		return fmt.Errorf("error loading timezone: %w", err)
	}

	var birthdays []Birthday
	if dbErr := lo.db.WithContext(ctx).Where(
		"guild_id = ?", i.GuildID,
	).Find(&birthdays).Error; dbErr != nil {
		return fmt.Errorf("error loading birthdays: %w", dbErr)
	}

	embed := botEmbed("Nächste Geburtstage", getDiscordUser(i))
	if len(birthdays) == 0 {
		embed.Description = "Es sind noch keine Geburtstage eingetragen."
		return lo.respondEmbed(i, embed, false)
	}

	now := time.Now().In(loc)
	sort.Slice(
		birthdays, func(a, b int) bool {
			return birthdays[a].NextOccurrence(now, loc).Before(
				birthdays[b].NextOccurrence(now, loc),
			)
		},
	)

	count := min(len(birthdays), 5)
	var sb strings.Builder
	for _, b := range birthdays[:count] {
		fmt.Fprintf(
			&sb,
			"<@%s> - %s (<t:%d:R>)\n",
			b.UserID,
			b.String(),
			b.NextOccurrence(now, loc).Unix(),
		)
	}
	embed.Description = sb.String()
	return lo.respondEmbed(i, embed, false)
}
