package loretta

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
)

const screenshotGifURL = "https://i.imgur.com/7wIUPkf.gif"

// Embed authors for the guide links, the community members who maintain
// the linked threads.
var (
	guideAuthorReous = &discordgo.MessageEmbedAuthor{
		Name:    "Reous (Mr. AMD)",
		URL:     "https://www.hardwareluxx.de/community/members/reous.55847/",
		IconURL: "https://i.imgur.com/ArBeYmq.png",
	}
	guideAuthorVerangry = &discordgo.MessageEmbedAuthor{
		Name:    "Verangry",
		URL:     "https://www.computerbase.de/forum/members/verangry.798158/",
		IconURL: "https://i.imgur.com/mu0em6U.png",
	}
	guideAuthorEmissary = &discordgo.MessageEmbedAuthor{
		Name:    "emissary42",
		URL:     "https://www.hardwareluxx.de/community/members/emissary42.38573/",
		IconURL: "https://i.imgur.com/DcfAykw.png",
	}
	guideAuthorCM87 = &discordgo.MessageEmbedAuthor{
		Name:    "cm87",
		URL:     "https://www.computerbase.de/forum/members/cm87.771841/",
		IconURL: "https://i.imgur.com/Fci12gO.png",
	}
	guideAuthorShaav = &discordgo.MessageEmbedAuthor{
		Name:    "shaav - Philipp",
		URL:     "https://www.hardwareluxx.de/community/members/shaav.25323/",
		IconURL: "https://i.imgur.com/DB4ei4M.png",
	}
	guideAuthorSV3N = &discordgo.MessageEmbedAuthor{
		Name:    "SV3N",
		URL:     "https://www.computerbase.de/forum/members/sv3n.774722/",
		IconURL: "https://i.imgur.com/cjo3SMD.png",
	}
)

// staticGuide is one of the fixed hardware guide embeds.
type staticGuide struct {
	title       string
	url         string
	description string
	image       string
	thumbnail   string
	author      *discordgo.MessageEmbedAuthor
	fields      []*discordgo.MessageEmbedField
}

// staticGuides holds the community guide links, keyed by command name.
var staticGuides = map[string]staticGuide{
	DiscordSlashCommandBios: {
		title: "Ultimative AM4 & AM5 UEFI/BIOS/AGESA Übersicht",
		description: "Anbei findet ihr eine UEFI/BIOS Übersicht mit den jeweils " +
			"aktuellsten Versionen, sortiert nach aktuellem AGESA Stand. Sollte " +
			"mal eine Version fehlen oder ihr einen Fehler findet, dann dürft " +
			"ihr das hier gerne mitteilen.\n" +
			"[AM4](https://www.hardwareluxx.de/community/threads/ultimative-am4-uefi-bios-agesa-%C3%9Cbersicht-17-02-19.1228903/)\n" +
			"[AM5](https://www.hardwareluxx.de/community/threads/am5-agesa-uefi-bios-info-laberthread.1323294/)",
		image:     "https://i.imgur.com/ytFxJ9B.png",
		thumbnail: "https://i.imgur.com/6wqgd4K.png",
		author:    guideAuthorReous,
	},
	DiscordSlashCommandCPU: {
		title: "CPU und BIOS Guide für Ryzen 3000 (und älter)",
		url:   "https://www.computerbase.de/forum/threads/cpu-und-bios-guide-fuer-ryzen-3000-und-aelter.1911429/",
		description: "Erklärungen und Tipps um das beste aus einer AMD Ryzen " +
			"CPU rauszuholen.",
		image:     "https://i.imgur.com/jC0K8W8.png",
		thumbnail: "https://i.imgur.com/vVeSNQS.png",
		author:    guideAuthorVerangry,
	},
	DiscordSlashCommandCurve: {
		title:       "Curve Optimizer Guide Ryzen 5000",
		url:         "https://www.computerbase.de/forum/threads/curve-optimizer-guide-ryzen-5000.2015251/",
		description: "Anleitung und Erklärungen für den Curve Optimizer bei Zen 3.",
		image:       "https://i.imgur.com/jC0K8W8.png",
		thumbnail:   "https://i.imgur.com/D5bEWL2.png",
		author:      guideAuthorVerangry,
		fields: []*discordgo.MessageEmbedField{
			{
				Name:  "PDF Download",
				Value: "[Link zur Curve Optimizer PDF Anleitung](https://drive.google.com/file/d/1EiVoPjuyaVKlzsL4sUsXwwVUVnch8QdR/view)",
			},
		},
	},
	DiscordSlashCommandLimit: {
		title: "Ryzen RAM OC Thread + Mögliche Limitierungen",
		url:   "https://www.hardwareluxx.de/community/threads/ryzen-ram-oc-thread-m%C3%B6gliche-limitierungen.1216557/",
		description: "In diesem Thread werde ich Informationen zum Thema RAM OC " +
			"Allgemein sammeln, sowie nennenswerte Anleitungen oder Threads " +
			"verlinken. Habt ihr Fragen zum Thema RAM OC oder braucht Hilfe " +
			"euren RAM zu übertakten, dann seid ihr hier im richtigen Thread. " +
			"Zögert nicht zu fragen, wir helfen gerne weiter.",
		image:     "https://i.imgur.com/isFPomg.png",
		thumbnail: "https://i.imgur.com/RZVRV7K.png",
		author:    guideAuthorReous,
	},
	DiscordSlashCommandListe: {
		title: "RAM OC Ergebnisse - Google Sheet",
		url:   "https://docs.google.com/spreadsheets/d/1HKPVfDcFO-aieAOXHFQZp15rwWadbPTVDNgO8vtyDCM",
		description: "Eine Sammlung an RAM OC Ergebnissen übersichtlich in " +
			"einem Google Sheet dargestellt.",
		image:     "https://i.imgur.com/14yKUIi.png",
		thumbnail: "https://i.imgur.com/OE94LR0.png",
		author:    guideAuthorShaav,
	},
	DiscordSlashCommandAnleitung: {
		title: "RAM OC Anleitung",
		url:   "https://www.computerbase.de/forum/threads/amd-ryzen-ram-oc-community.1829356/",
		description: "Wir versuchen nicht nur höhere RAM-Taktstufen zu " +
			"erreichen, sondern auch die dazugehörigen Haupt- & Subtimings auf " +
			"das System abgestimmt zu optimieren.",
		image:     "https://i.imgur.com/4hCP34S.png",
		thumbnail: "https://i.imgur.com/W83EAab.png",
		author:    guideAuthorCM87,
		fields: []*discordgo.MessageEmbedField{
			{
				Name: "Download",
				Value: "[Link zur Zen2 PDF Anleitung - Version 2.20 (18.11.2020)](https://cdn.discordapp.com/attachments/506901533821239317/778530872700960778/RAM_OC_Anleitung_Vers_2_2.pdf)\n\n" +
					"[Link zur Zen1/Zen+ PDF Anleitung - Version 1.30 (11.04.2019)](https://drive.google.com/open?id=1NQcR5ZiBnI-vENU-XSnQvvB3JzmGn2Ze)",
			},
			{
				Name:  "Wichtige RAM Timings von Reous",
				Value: "[RAM Timings und deren Einfluss auf Spiele und Anwendungen](https://www.hardwareluxx.de/community/threads/ram-timings-und-deren-einfluss-auf-spiele-und-anwendungen-amd.1269156/#5.0)",
			},
		},
	},
	DiscordSlashCommandSPD: {
		title: "Hardwareluxx SPD Datenbank",
		url:   "https://www.hardwareluxx.de/community/threads/hardwareluxx-spd-datenbank-anleitung-zum-ic-auslesen-v3-update-14-02-20.1073628/",
		description: "Sammelthread auf Hardwareluxx für SPD Daten von DDR1 bis " +
			"DDR4 inkl. Anleitung zum Auslesen der Daten.",
		image:     "https://i.imgur.com/OgacaAo.png",
		thumbnail: "https://i.imgur.com/yYBXwTP.png",
		author:    guideAuthorEmissary,
		fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Siehe auch",
				Value: "[Hersteller IC Versionsnummern](https://i.imgur.com/sCc4l7l.png)",
			},
		},
	},
	DiscordSlashCommandRamkit: {
		title: "Aus der Community: RAM-Empfehlungen für AMD Ryzen und Intel Core",
		url:   "https://www.computerbase.de/thema/ram/rangliste/",
		description: "In der Prozessor- und der Grafikkarten-Rangliste spricht " +
			"ComputerBase bereits seit vier Jahren monatlich CPU- und " +
			"GPU-Kaufempfehlungen aus. Ab sofort gibt es auch eine Kaufberatung " +
			"für Arbeitsspeicher. Deren Pflege verantwortet die Community.",
		image:     "https://i.imgur.com/pOsPkxk.png",
		thumbnail: "https://i.imgur.com/Iml7Mgn.png",
		author:    guideAuthorSV3N,
	},
	DiscordSlashCommandMainboard: {
		title: "AMD 3rd Gen AM4 Mainboards & VRM Liste (X570, P560, B550, A520, A420)",
		url:   "https://www.hardwareluxx.de/community/threads/amd-3rd-gen-am4-mainboards-vrm-liste-x570-p560-b550-a520-a420.1228904/",
		description: "Hier dürfen News und Produkte diskutiert, Informationen " +
			"erfragt und zusammengetragen, technische Fragen gestellt und " +
			"schließlich auch Erfahrungen mit dem eigenen System ausgetauscht " +
			"werden. Der Umfang des Threads hängt von eurer Beteiligung ab und " +
			"eure Unterstützung beim Sammeln von Informationen zur " +
			"Vervollständigung der Übersicht ist ausdrücklich erbeten.",
		image:     "https://i.imgur.com/owYHwzW.jpg",
		thumbnail: "https://i.imgur.com/Motc8J6.png",
		author:    guideAuthorEmissary,
	},
}

// commandGuide sends the static guide embed registered for the invoked
// command name.
func (lo *Loretta) commandGuide(_ context.Context, i *discordgo.InteractionCreate) error {
	commandName := i.ApplicationCommandData().Name
	guide, ok := staticGuides[commandName]
	if !ok {
		return fmt.Errorf("no guide registered for command: %s", commandName)
	}

	embed := botEmbed(guide.title, getDiscordUser(i))
	embed.URL = guide.url
	embed.Description = guide.description
	embed.Author = guide.author
	embed.Fields = guide.fields
	if guide.image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: guide.image}
	}
	if guide.thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: guide.thumbnail}
	}
	return lo.respondEmbed(i, embed, false)
}

func (lo *Loretta) commandScreenshot(_ context.Context, i *discordgo.InteractionCreate) error {
	return lo.respondText(i, screenshotGifURL, false)
}

func (lo *Loretta) commandRandom(_ context.Context, i *discordgo.InteractionCreate) error {
	opts := discordInteractionOptions(i)
	text := ""
	if opt, ok := opts["text"]; ok {
		text = opt.StringValue()
	}

	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if rand.IntN(2) == 0 {
			sb.WriteRune(unicode.ToUpper(r))
		} else {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return lo.respondText(i, truncate(sb.String(), discordMaxMessageLength), false)
}

// helpSections orders the help embed fields and maps module names to
// their German headings.
var helpSections = []struct {
	module string
	title  string
}{
	{commandModuleFun, "Unterhaltung"},
	{commandModuleGuides, "Hardware-Guides"},
	{commandModuleInfo, "System & Info"},
	{commandModuleSpecs, "Hardware-Spezifikationen"},
	{commandModuleBirthday, "Geburtstage"},
	{commandModuleTimings, "RAM-Timings"},
	{commandModuleWeather, "Wetter"},
	{commandModuleModeration, "Moderation"},
}

func (lo *Loretta) commandHelp(_ context.Context, i *discordgo.InteractionCreate) error {
	byModule := map[string][]string{}
	for _, def := range commandDefinitions(lo.RuntimeConfig()) {
		module := commandModule(def.Name)
		byModule[module] = append(
			byModule[module],
			fmt.Sprintf("`/%s` - %s", def.Name, def.Description),
		)
	}

	embed := botEmbed("Bot-Hilfe", getDiscordUser(i))
	embed.Description = "Hier sind alle verfügbaren Befehle:"
	for _, section := range helpSections {
		lines, ok := byModule[section.module]
		if !ok {
			continue
		}
		embed.Fields = append(
			embed.Fields, &discordgo.MessageEmbedField{
				Name:  section.title,
				Value: strings.Join(lines, "\n"),
			},
		)
	}
	return lo.respondEmbed(i, embed, true)
}
