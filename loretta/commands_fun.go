package loretta

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	sgehdnGifURL  = "https://tenor.com/view/sgehdn-hi-hello-wave-greet-gif-17067641"
	schmutzGifURL = "https://tenor.com/view/schmutz-dirt-filth-write-word-gif-16247714"
	tenorSearch   = "https://tenor.com/search/"
)

// magicBallAnswers are the canonical twenty Magic 8 Ball answers.
var magicBallAnswers = []string{
	"Das ist sicher.",
	"Es ist entschieden.",
	"Ohne Zweifel.",
	"Ja - definitiv.",
	"Du kannst dich darauf verlassen.",
	"So wie ich das sehe, ja.",
	"Höchstwahrscheinlich.",
	"Die Aussichten sind gut.",
	"Ja.",
	"Die Anzeichen deuten auf ein Ja.",
	"Antwort verschwommen - Versuch es noch einmal.",
	"Frage später noch einmal.",
	"Sage es dir besser nicht jetzt.",
	"Vorhersage jetzt nicht möglich.",
	"Konzentriere dich und frag noch einmal.",
	"Verlass dich nicht darauf.",
	"Meine Antwort ist nein.",
	"Meine Quellen sagen nein.",
	"Die Aussichten sind nicht so gut.",
	"Sehr zweifelhaft.",
}

var leetMap = map[rune]rune{
	'a': '4', 'A': '4',
	'b': '8', 'B': '8',
	'e': '3', 'E': '3',
	'g': '6', 'G': '6',
	'i': '1', 'I': '1',
	'l': '1', 'L': '1',
	'o': '0', 'O': '0',
	's': '5', 'S': '5',
	't': '7', 'T': '7',
	'z': '2', 'Z': '2',
}

func (lo *Loretta) commandPing(_ context.Context, i *discordgo.InteractionCreate) error {
	embed := botEmbed("Pong!", getDiscordUser(i))
	embed.Description = "Der Bot ist wach."
	return lo.respondEmbed(i, embed, false)
}

func (lo *Loretta) commandRoll(_ context.Context, i *discordgo.InteractionCreate) error {
	maximum := int64(lo.RuntimeConfig().RollMax)
	opts := discordInteractionOptions(i)
	if opt, ok := opts["maximum"]; ok {
		maximum = opt.IntValue()
	}

	user := getDiscordUser(i)
	if maximum < 1 {
		return lo.respondEmbed(
			i,
			errorEmbed("Fehler", "Das Maximum muss mindestens 1 sein.", user),
			true,
		)
	}
	if maximum > rollMaxLimit {
		return lo.respondEmbed(
			i,
			errorEmbed(
				"Fehler",
				"Das Maximum darf nicht größer als 1.000.000 sein.",
				user,
			),
			true,
		)
	}

	result := rand.Int64N(maximum) + 1
	embed := botEmbed("Würfel", user)
	embed.Description = fmt.Sprintf(
		"Du hast eine **%d** gewürfelt! (1-%d)", result, maximum,
	)
	return lo.respondEmbed(i, embed, false)
}

func (lo *Loretta) commandMagicBall(_ context.Context, i *discordgo.InteractionCreate) error {
	opts := discordInteractionOptions(i)
	question := ""
	if opt, ok := opts["frage"]; ok {
		question = opt.StringValue()
	}

	answer := magicBallAnswers[rand.IntN(len(magicBallAnswers))]

	embed := botEmbed("Magic 8 Ball", getDiscordUser(i))
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Frage", Value: question},
		{Name: "Antwort", Value: answer},
	}
	return lo.respondEmbed(i, embed, false)
}

func (lo *Loretta) commandLeetspeak(_ context.Context, i *discordgo.InteractionCreate) error {
	opts := discordInteractionOptions(i)
	text := ""
	if opt, ok := opts["text"]; ok {
		text = opt.StringValue()
	}

	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if leet, ok := leetMap[r]; ok {
			sb.WriteRune(leet)
		} else {
			sb.WriteRune(r)
		}
	}

	return lo.respondText(i, truncate(sb.String(), discordMaxMessageLength), false)
}

func (lo *Loretta) commandSgehdn(_ context.Context, i *discordgo.InteractionCreate) error {
	return lo.respondText(i, sgehdnGifURL, false)
}

func (lo *Loretta) commandSchmutz(_ context.Context, i *discordgo.InteractionCreate) error {
	return lo.respondText(i, schmutzGifURL, false)
}

func (lo *Loretta) commandGif(_ context.Context, i *discordgo.InteractionCreate) error {
	opts := discordInteractionOptions(i)
	term := ""
	if opt, ok := opts["suchbegriff"]; ok {
		term = opt.StringValue()
	}
	if strings.TrimSpace(term) == "" {
		return lo.respondEmbed(
			i,
			errorEmbed("Fehler", "Bitte gib einen Suchbegriff an.", getDiscordUser(i)),
			true,
		)
	}
	return lo.respondText(i, tenorSearch+url.PathEscape(term)+"-gifs", false)
}

func (lo *Loretta) commandWhy(_ context.Context, i *discordgo.InteractionCreate) error {
	embed := botEmbed("Das Leben des Brian", getDiscordUser(i))
	embed.URL = "https://www.youtube.com/watch?v=GryQiamGxpY"
	embed.Description = "Das Leben des Brian ist eine beißende Persiflage auf die " +
		"schwülstigen Hollywood-Verfilmungen von Bibelthemen vorangegangener Jahre " +
		"und karikiert auch viele gesellschaftliche Phänomene wie beispielsweise " +
		"religiösen oder politischen Fanatismus."
	embed.Author = &discordgo.MessageEmbedAuthor{
		Name: "Monty Python",
		URL:  "https://de.wikipedia.org/wiki/Monty_Python",
	}
	return lo.respondEmbed(i, embed, false)
}

func (lo *Loretta) commandHwbot(_ context.Context, i *discordgo.InteractionCreate) error {
	embed := botEmbed("HWBOT Team CUP", getDiscordUser(i))
	embed.URL = "https://hwbot.org/"
	embed.Description = "[**Regeln**](https://hwbot.org/benchmarkRules)\n\n" +
		"[**AMD CPU**](https://hwbot.org/competition/TC2023AMD/)\n" +
		"[**Intel CPU**](https://hwbot.org/competition/TC2023INTEL/)\n" +
		"[**nVIDIA GPU**](https://hwbot.org/competition/TC2023nVIDIA/)\n" +
		"[**AMD GPU**](https://hwbot.org/competition/TC2023AMDGPU/)\n" +
		"[**iGPU**](https://hwbot.org/competition/TC2023iGPU/)\n\n" +
		"Macht mit und sammelt Punkte für das Team!"
	return lo.respondEmbed(i, embed, false)
}
