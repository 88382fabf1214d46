package loretta

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"gorm.io/gorm"
)

// seedMemoryTimings loads the built-in DRAM timing presets on first
// startup. Runs are idempotent: once any rows exist, nothing is
// touched, so presets edited via the database survive restarts.
func seedMemoryTimings(ctx context.Context, db *gorm.DB, writeDB DBI) error {
	var count int64
	if err := db.WithContext(ctx).Model(&MemoryTiming{}).Count(&count).Error; err != nil {
		return fmt.Errorf("error counting memory timings: %w", err)
	}
	if count > 0 {
		return nil
	}

	for idx := range defaultMemoryTimings {
		if _, err := writeDB.Create(ctx, &defaultMemoryTimings[idx]); err != nil {
			return fmt.Errorf(
				"error seeding timing %q: %w", defaultMemoryTimings[idx].Name, err,
			)
		}
	}
	return nil
}

// defaultMemoryTimings are the community's baseline daily presets.
var defaultMemoryTimings = []MemoryTiming{
	{
		Generation: "zen2",
		Name:       "3733 CL16 B-Die",
		Vendor:     "Samsung",
		ICs:        "B-Die",
		MemClk:     1866, FClk: 1866,
		TCL: 16, TRCDRD: 16, TRCDWR: 16, TRP: 16, TRAS: 32,
		TRC: 48, TRFC: 280, TRRDS: 4, TRRDL: 6, TFAW: 16,
		TWR: 12, TWTRS: 4, TWTRL: 10, TRTP: 6, TCWL: 14,
		TRDWR: 8, TWRRD: 3, TREFI: 65535, TCKE: 1, SCL: 3,
		GearDown: true,
		VDIMM:    1.42, VSOC: 1.08, VDDG: 0.95,
	},
	{
		Generation: "zen3",
		Name:       "3800 CL16 B-Die",
		Vendor:     "Samsung",
		ICs:        "B-Die",
		MemClk:     1900, FClk: 1900,
		TCL: 16, TRCDRD: 16, TRCDWR: 16, TRP: 16, TRAS: 32,
		TRC: 48, TRFC: 288, TRRDS: 4, TRRDL: 6, TFAW: 16,
		TWR: 12, TWTRS: 4, TWTRL: 10, TRTP: 6, TCWL: 14,
		TRDWR: 8, TWRRD: 3, TREFI: 65535, TCKE: 1, SCL: 3,
		GearDown: true,
		VDIMM:    1.45, VSOC: 1.1, VDDG: 0.95,
	},
	{
		Generation: "zen3",
		Name:       "3800 CL16 Rev.E",
		Vendor:     "Micron",
		ICs:        "Rev.E",
		MemClk:     1900, FClk: 1900,
		TCL: 16, TRCDRD: 20, TRCDWR: 18, TRP: 20, TRAS: 38,
		TRC: 58, TRFC: 550, TRRDS: 4, TRRDL: 6, TFAW: 16,
		TWR: 16, TWTRS: 4, TWTRL: 12, TRTP: 8, TCWL: 16,
		TRDWR: 8, TWRRD: 4, TREFI: 65535, TCKE: 1, SCL: 4,
		GearDown: true,
		VDIMM:    1.45, VSOC: 1.1, VDDG: 0.95,
	},
	{
		Generation: "zen4",
		Name:       "6000 CL30 M-Die",
		Vendor:     "Hynix",
		ICs:        "M-Die",
		MemClk:     3000, FClk: 2000,
		TCL: 30, TRCDRD: 38, TRCDWR: 38, TRP: 38, TRAS: 64,
		TRC: 102, TRFC: 480, TRRDS: 8, TRRDL: 12, TFAW: 32,
		TWR: 48, TWTRS: 4, TWTRL: 24, TRTP: 14, TCWL: 30,
		TRDWR: 16, TWRRD: 4, TREFI: 65535, TCKE: 1, SCL: 5,
		VDIMM: 1.4, VSOC: 1.25,
	},
	{
		Generation: "zen4",
		Name:       "6200 CL28 A-Die",
		Vendor:     "Hynix",
		ICs:        "A-Die",
		MemClk:     3100, FClk: 2066,
		TCL: 28, TRCDRD: 36, TRCDWR: 36, TRP: 36, TRAS: 60,
		TRC: 96, TRFC: 440, TRRDS: 8, TRRDL: 12, TFAW: 32,
		TWR: 48, TWTRS: 4, TWTRL: 24, TRTP: 14, TCWL: 28,
		TRDWR: 16, TWRRD: 4, TREFI: 65535, TCKE: 1, SCL: 5,
		VDIMM: 1.43, VSOC: 1.25,
	},
	{
		Generation: "zen5",
		Name:       "6400 CL30 A-Die",
		Vendor:     "Hynix",
		ICs:        "A-Die",
		MemClk:     3200, FClk: 2133,
		TCL: 30, TRCDRD: 38, TRCDWR: 38, TRP: 38, TRAS: 64,
		TRC: 102, TRFC: 450, TRRDS: 8, TRRDL: 12, TFAW: 32,
		TWR: 48, TWTRS: 4, TWTRL: 24, TRTP: 14, TCWL: 30,
		TRDWR: 16, TWRRD: 4, TREFI: 65535, TCKE: 1, SCL: 5,
		VDIMM: 1.4, VSOC: 1.2,
	},
}

func (lo *Loretta) commandTimings(ctx context.Context, i *discordgo.InteractionCreate) error {
	opts := discordInteractionOptions(i)
	generation := ""
	if opt, ok := opts["generation"]; ok {
		generation = opt.StringValue()
	}
	name := ""
	if opt, ok := opts["name"]; ok {
		name = strings.TrimSpace(opt.StringValue())
	}

	query := lo.db.WithContext(ctx).Where("generation = ?", generation)
	if name != "" {
		query = query.Where("lower(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	var timings []MemoryTiming
	if err := query.Order("name").Find(&timings).Error; err != nil {
		return fmt.Errorf("error loading memory timings: %w", err)
	}

	user := getDiscordUser(i)
	if len(timings) == 0 {
		return lo.respondEmbed(
			i,
			errorEmbed(
				"Keine Presets gefunden",
				fmt.Sprintf(
					"Keine Timing-Presets für Generation %s verfügbar.",
					strings.ToUpper(generation),
				),
				user,
			),
			true,
		)
	}

	// multiple matches get a summary list, a single match the full
	// timing table
	if len(timings) > 1 {
		embed := botEmbed(
			fmt.Sprintf("Timing-Presets für %s", strings.ToUpper(generation)),
			user,
		)
		var sb strings.Builder
		for _, t := range timings {
			fmt.Fprintf(
				&sb, "**%s** (%s %s, %dMHz)\n", t.Name, t.Vendor, t.ICs, t.MemClk,
			)
		}
		embed.Description = sb.String() +
			"\nNutze `/timings` mit dem `name` Parameter für Details."
		return lo.respondEmbed(i, embed, false)
	}

	return lo.respondEmbed(i, memoryTimingEmbed(timings[0], user), false)
}

func memoryTimingEmbed(t MemoryTiming, requester *discordgo.User) *discordgo.MessageEmbed {
	embed := botEmbed(t.Name, requester)
	embed.Description = fmt.Sprintf(
		"%s %s - %s", t.Vendor, t.ICs, strings.ToUpper(t.Generation),
	)

	gdm := "aus"
	if t.GearDown {
		gdm = "an"
	}

	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name: "Takt",
			Value: fmt.Sprintf(
				"**MEMCLK:** %d MHz\n**FCLK:** %d MHz", t.MemClk, t.FClk,
			),
			Inline: true,
		},
		{
			Name: "Primär",
			Value: fmt.Sprintf(
				"**tCL:** %d\n**tRCDRD:** %d\n**tRCDWR:** %d\n**tRP:** %d\n**tRAS:** %d",
				t.TCL, t.TRCDRD, t.TRCDWR, t.TRP, t.TRAS,
			),
			Inline: true,
		},
		{
			Name: "Sekundär",
			Value: fmt.Sprintf(
				"**tRC:** %d\n**tRFC:** %d\n**tRRDS/L:** %d/%d\n"+
					"**tFAW:** %d\n**tWR:** %d\n**tWTRS/L:** %d/%d\n"+
					"**tRTP:** %d\n**tCWL:** %d\n**tREFI:** %d\n"+
					"**SCL:** %d\n**GDM:** %s",
				t.TRC, t.TRFC, t.TRRDS, t.TRRDL,
				t.TFAW, t.TWR, t.TWTRS, t.TWTRL,
				t.TRTP, t.TCWL, t.TREFI,
				t.SCL, gdm,
			),
			Inline: true,
		},
		{
			Name:   "Spannungen",
			Value:  formatVoltages(t),
			Inline: true,
		},
	}
	return embed
}

func formatVoltages(t MemoryTiming) string {
	var parts []string
	if t.VDIMM > 0 {
		parts = append(parts, fmt.Sprintf("**VDIMM:** %.2fV", t.VDIMM))
	}
	if t.VSOC > 0 {
		parts = append(parts, fmt.Sprintf("**VSOC:** %.2fV", t.VSOC))
	}
	if t.VDDG > 0 {
		parts = append(parts, fmt.Sprintf("**VDDG:** %.2fV", t.VDDG))
	}
	if len(parts) == 0 {
		return "keine Angaben"
	}
	return strings.Join(parts, "\n")
}
