package loretta

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

const specificationMaxLength = 2000

// Birthday stores one member's day and month of birth. The year is
// deliberately never recorded.
//
//nolint:lll // struct tags can't be split
type Birthday struct {
	ModelUintID
	GuildID    string `json:"guild_id" gorm:"uniqueIndex:idx_birthday_guild_user;not null"`
	UserID     string `json:"user_id" gorm:"uniqueIndex:idx_birthday_guild_user;not null"`
	BirthDay   int    `json:"birth_day" gorm:"not null;check:birth_day >= 1 AND birth_day <= 31"`
	BirthMonth int    `json:"birth_month" gorm:"not null;check:birth_month >= 1 AND birth_month <= 12"`
	ModelUnixTime
}

func (b Birthday) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("guild_id", b.GuildID),
		slog.String("user_id", b.UserID),
		slog.Int("birth_day", b.BirthDay),
		slog.Int("birth_month", b.BirthMonth),
	)
}

// String renders the birthday in the German DD.MM. format.
func (b Birthday) String() string {
	return fmt.Sprintf("%02d.%02d.", b.BirthDay, b.BirthMonth)
}

// NextOccurrence returns the next calendar date on which this birthday
// falls, at midnight in the given location.
func (b Birthday) NextOccurrence(now time.Time, loc *time.Location) time.Time {
	next := time.Date(now.Year(), time.Month(b.BirthMonth), b.BirthDay, 0, 0, 0, 0, loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if next.Before(today) {
		next = time.Date(now.Year()+1, time.Month(b.BirthMonth), b.BirthDay, 0, 0, 0, 0, loc)
	}
	return next
}

// daysInMonth ignores leap years, so 29.02. is accepted.
var daysInMonth = map[int]int{
	1: 31, 2: 29, 3: 31, 4: 30, 5: 31, 6: 30,
	7: 31, 8: 31, 9: 30, 10: 31, 11: 30, 12: 31,
}

var (
	errInvalidBirthdayFormat = errors.New("invalid birthday format")
	birthdayDatePattern      = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.$`)
)

// ParseBirthdayDate parses the strict German `DD.MM.` format and
// validates that the day exists in the given month.
func ParseBirthdayDate(s string) (day int, month int, err error) {
	m := birthdayDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, errInvalidBirthdayFormat
	}
	day, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return 0, 0, errInvalidBirthdayFormat
	}
	if day < 1 || day > daysInMonth[month] {
		return 0, 0, errInvalidBirthdayFormat
	}
	return day, month, nil
}

// Specification stores one member's hardware description ("Specs").
//
//nolint:lll // struct tags can't be split
type Specification struct {
	ModelUintID
	GuildID   string `json:"guild_id" gorm:"uniqueIndex:idx_spec_guild_user;not null"`
	UserID    string `json:"user_id" gorm:"uniqueIndex:idx_spec_guild_user;not null"`
	SpecsText string `json:"specs_text" gorm:"type:string;not null"`
	ModelUnixTime
}

func (s Specification) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("guild_id", s.GuildID),
		slog.String("user_id", s.UserID),
		slog.Int("specs_length", len(s.SpecsText)),
	)
}

// PostedFeedEntry records an RSS entry that was already announced, so
// restarts don't repost old news.
//
//nolint:lll // struct tags can't be split
type PostedFeedEntry struct {
	ModelUintID
	EntryGUID string `json:"entry_guid" gorm:"uniqueIndex;not null"`
	FeedName  string `json:"feed_name" gorm:"type:string"`
	Title     string `json:"title" gorm:"type:string"`
	Link      string `json:"link" gorm:"type:string"`
	ModelUnixTime
}

// CommandStatistic records a single slash command execution.
//
//nolint:lll // struct tags can't be split
type CommandStatistic struct {
	ModelUintID
	CommandName  string `json:"command_name" gorm:"index;not null"`
	ModuleName   string `json:"module_name" gorm:"type:string"`
	UserID       string `json:"user_id" gorm:"type:string"`
	GuildID      string `json:"guild_id" gorm:"type:string"`
	Success      bool   `json:"success" gorm:"type:bool"`
	ErrorMessage string `json:"error_message" gorm:"type:string"`
	DurationMS   int64  `json:"duration_ms" gorm:"column:duration_ms"`
	ModelUnixTime
}

func (c CommandStatistic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("command_name", c.CommandName),
		slog.String("module_name", c.ModuleName),
		slog.String("user_id", c.UserID),
		slog.Bool("success", c.Success),
	)
}

// commandCount is a grouped aggregation row for the /statistics command
// and the admin API stats endpoint.
type commandCount struct {
	CommandName string `json:"command_name"`
	Total       int64  `json:"total"`
	Errors      int64  `json:"errors"`
}

// commandStatisticCounts returns per-command totals, most used first.
func commandStatisticCounts(ctx context.Context, db *gorm.DB) ([]commandCount, error) {
	var counts []commandCount
	err := db.WithContext(ctx).Model(&CommandStatistic{}).Select(
		"command_name, count(*) as total, sum(case when success then 0 else 1 end) as errors",
	).Group("command_name").Order("total desc").Find(&counts).Error
	return counts, err
}

// MemoryTiming is one stored DRAM timing profile.
//
//nolint:lll // struct tags can't be split
type MemoryTiming struct {
	ModelUintID
	Generation string `json:"generation" gorm:"index;not null"`
	Name       string `json:"name" gorm:"not null"`
	Vendor     string `json:"vendor" gorm:"type:string"`
	ICs        string `json:"ics" gorm:"column:ics;type:string"`

	// Frequencies, in MHz
	MemClk int `json:"memclk" gorm:"column:memclk"`
	FClk   int `json:"fclk" gorm:"column:fclk"`

	// Primary timings
	TCL    int `json:"tcl" gorm:"column:tcl"`
	TRCDRD int `json:"trcd_rd" gorm:"column:trcd_rd"`
	TRCDWR int `json:"trcd_wr" gorm:"column:trcd_wr"`
	TRP    int `json:"trp" gorm:"column:trp"`
	TRAS   int `json:"tras" gorm:"column:tras"`

	// Secondary timings
	TRC      int  `json:"trc" gorm:"column:trc"`
	TRFC     int  `json:"trfc" gorm:"column:trfc"`
	TRRDS    int  `json:"trrd_s" gorm:"column:trrd_s"`
	TRRDL    int  `json:"trrd_l" gorm:"column:trrd_l"`
	TFAW     int  `json:"tfaw" gorm:"column:tfaw"`
	TWR      int  `json:"twr" gorm:"column:twr"`
	TWTRS    int  `json:"twtr_s" gorm:"column:twtr_s"`
	TWTRL    int  `json:"twtr_l" gorm:"column:twtr_l"`
	TRTP     int  `json:"trtp" gorm:"column:trtp"`
	TCWL     int  `json:"tcwl" gorm:"column:tcwl"`
	TRDWR    int  `json:"trdwr" gorm:"column:trdwr"`
	TWRRD    int  `json:"twrrd" gorm:"column:twrrd"`
	TREFI    int  `json:"trefi" gorm:"column:trefi"`
	TCKE     int  `json:"tcke" gorm:"column:tcke"`
	SCL      int  `json:"scl" gorm:"column:scl"`
	GearDown bool `json:"gear_down" gorm:"column:gear_down"`

	// Voltages
	VDIMM float64 `json:"vdimm" gorm:"column:vdimm"`
	VSOC  float64 `json:"vsoc" gorm:"column:vsoc"`
	VDDG  float64 `json:"vddg" gorm:"column:vddg"`

	ModelUnixTime
}

func (m MemoryTiming) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("generation", m.Generation),
		slog.String("name", m.Name),
		slog.Int("memclk", m.MemClk),
		slog.Int("fclk", m.FClk),
	)
}

// StringSlice stores a []string as a JSON column, used for the
// picture-only channel list.
type StringSlice []string

// Scan implements the sql.Scanner interface.
func (s *StringSlice) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		*s = nil
		return nil
	default:
		return fmt.Errorf("unexpected type for StringSlice: %T", value)
	}
}

// Value implements the driver.Valuer interface.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// GormDataType is used by GORM to determine the default data type for a field.
func (StringSlice) GormDataType() string {
	return "string"
}

// Contains reports whether the slice contains the given element.
func (s StringSlice) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}
