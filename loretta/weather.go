package loretta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// wmoWeather maps WMO weather interpretation codes to a German
// description and a fitting emoji.
type wmoWeather struct {
	description string
	emoji       string
}

var wmoWeatherCodes = map[int]wmoWeather{
	0:  {"Klarer Himmel", "☀️"},
	1:  {"Überwiegend klar", "🌤️"},
	2:  {"Teilweise bewölkt", "⛅"},
	3:  {"Bedeckt", "☁️"},
	45: {"Nebel", "🌫️"},
	48: {"Reif Nebel", "🌫️"},
	51: {"Leichter Nieselregen", "🌦️"},
	53: {"Mäßiger Nieselregen", "🌦️"},
	55: {"Starker Nieselregen", "🌧️"},
	56: {"Leichter gefrierender Nieselregen", "🌧️"},
	57: {"Starker gefrierender Nieselregen", "🌧️"},
	61: {"Leichter Regen", "🌧️"},
	63: {"Mäßiger Regen", "🌧️"},
	65: {"Starker Regen", "🌧️"},
	66: {"Leichter gefrierender Regen", "🌧️"},
	67: {"Starker gefrierender Regen", "🌧️"},
	71: {"Leichter Schneefall", "🌨️"},
	73: {"Mäßiger Schneefall", "🌨️"},
	75: {"Starker Schneefall", "❄️"},
	77: {"Schneekörner", "❄️"},
	80: {"Leichte Regenschauer", "🌦️"},
	81: {"Mäßige Regenschauer", "🌧️"},
	82: {"Starke Regenschauer", "⛈️"},
	85: {"Leichte Schneeschauer", "🌨️"},
	86: {"Starke Schneeschauer", "❄️"},
	95: {"Gewitter", "⛈️"},
	96: {"Gewitter mit leichtem Hagel", "⛈️"},
	99: {"Gewitter mit starkem Hagel", "⛈️"},
}

func wmoWeatherFor(code int) wmoWeather {
	if w, ok := wmoWeatherCodes[code]; ok {
		return w
	}
	return wmoWeather{"Unbekannt", "❓"}
}

// windDirections are the sixteen compass points, German notation
// (O for Ost).
var windDirections = []string{
	"N", "NNO", "NO", "ONO", "O", "OSO", "SO", "SSO",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

func formatWindDirection(degrees float64) string {
	idx := int(degrees/22.5+0.5) % 16
	return windDirections[idx]
}

// WeatherClient resolves place names and fetches current conditions
// from the open-meteo APIs.
type WeatherClient struct {
	config     *WeatherConfig
	httpClient *http.Client
}

func newWeatherClient(config *WeatherConfig, httpClient *http.Client) *WeatherClient {
	return &WeatherClient{config: config, httpClient: httpClient}
}

type geocodeResult struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
}

type currentWeather struct {
	Time                string  `json:"time"`
	Temperature         float64 `json:"temperature_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	RelativeHumidity    int     `json:"relative_humidity_2m"`
	WeatherCode         int     `json:"weather_code"`
	WindSpeed           float64 `json:"wind_speed_10m"`
	WindDirection       float64 `json:"wind_direction_10m"`
}

type forecastResponse struct {
	Current currentWeather `json:"current"`
}

func (w *WeatherClient) getJSON(ctx context.Context, rawURL string, target any) error {
	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// Geocode resolves a German place name to coordinates. Returns nil
// when no place matched.
func (w *WeatherClient) Geocode(ctx context.Context, place string) (*geocodeResult, error) {
	params := url.Values{}
	params.Set("name", place)
	params.Set("count", "1")
	params.Set("language", "de")
	params.Set("format", "json")

	var decoded geocodeResponse
	if err := w.getJSON(
		ctx, w.config.GeocodingURL+"?"+params.Encode(), &decoded,
	); err != nil {
		return nil, fmt.Errorf("error geocoding %q: %w", place, err)
	}
	if len(decoded.Results) == 0 {
		return nil, nil
	}
	return &decoded.Results[0], nil
}

// CurrentWeather fetches the current conditions for the coordinates.
func (w *WeatherClient) CurrentWeather(
	ctx context.Context,
	latitude float64,
	longitude float64,
) (*currentWeather, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set(
		"current",
		"temperature_2m,apparent_temperature,relative_humidity_2m,"+
			"weather_code,wind_speed_10m,wind_direction_10m",
	)
	params.Set("timezone", birthdayTimezone)

	var decoded forecastResponse
	if err := w.getJSON(
		ctx, w.config.ForecastURL+"?"+params.Encode(), &decoded,
	); err != nil {
		return nil, fmt.Errorf("error fetching weather: %w", err)
	}
	return &decoded.Current, nil
}

// germanDecimal renders a float with a comma decimal separator.
func germanDecimal(v float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', 1, 64), ".", ",")
}

func (lo *Loretta) commandWeather(ctx context.Context, i *discordgo.InteractionCreate) error {
	opts := discordInteractionOptions(i)
	place := ""
	if opt, ok := opts["ort"]; ok {
		place = strings.TrimSpace(opt.StringValue())
	}

	if err := lo.deferResponse(i); err != nil {
		return err
	}

	user := getDiscordUser(i)
	geo, err := lo.weather.Geocode(ctx, place)
	if err != nil {
		return err
	}
	if geo == nil {
		return lo.editResponseEmbed(
			i,
			errorEmbed(
				"Ort nicht gefunden",
				fmt.Sprintf("Der Ort '%s' konnte nicht gefunden werden.", place),
				user,
			),
		)
	}

	current, err := lo.weather.CurrentWeather(ctx, geo.Latitude, geo.Longitude)
	if err != nil {
		return err
	}

	weather := wmoWeatherFor(current.WeatherCode)

	title := fmt.Sprintf("Wetter für %s", geo.Name)
	if geo.Country != "" {
		title += ", " + geo.Country
	}
	embed := botEmbed(title, user)
	embed.Description = fmt.Sprintf("%s %s", weather.emoji, weather.description)
	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name: "Temperatur",
			Value: fmt.Sprintf(
				"%s°C (Gefühlt %s°C)",
				germanDecimal(current.Temperature),
				germanDecimal(current.ApparentTemperature),
			),
			Inline: true,
		},
		{
			Name:   "Luftfeuchtigkeit",
			Value:  fmt.Sprintf("%d%%", current.RelativeHumidity),
			Inline: true,
		},
		{
			Name: "Wind",
			Value: fmt.Sprintf(
				"%s km/h - %s",
				germanDecimal(current.WindSpeed),
				formatWindDirection(current.WindDirection),
			),
			Inline: true,
		},
	}
	return lo.editResponseEmbed(i, embed)
}

// commandWeatherShort is the compact variant: description and
// temperatures only, no humidity or wind.
func (lo *Loretta) commandWeatherShort(ctx context.Context, i *discordgo.InteractionCreate) error {
	opts := discordInteractionOptions(i)
	place := ""
	if opt, ok := opts["ort"]; ok {
		place = strings.TrimSpace(opt.StringValue())
	}

	if err := lo.deferResponse(i); err != nil {
		return err
	}

	user := getDiscordUser(i)
	geo, err := lo.weather.Geocode(ctx, place)
	if err != nil {
		return err
	}
	if geo == nil {
		return lo.editResponseEmbed(
			i,
			errorEmbed(
				"Ort nicht gefunden",
				fmt.Sprintf("Der Ort '%s' konnte nicht gefunden werden.", place),
				user,
			),
		)
	}

	current, err := lo.weather.CurrentWeather(ctx, geo.Latitude, geo.Longitude)
	if err != nil {
		return err
	}

	weather := wmoWeatherFor(current.WeatherCode)

	title := geo.Name
	if geo.Country != "" {
		title += ", " + geo.Country
	}
	embed := botEmbed(title, user)
	embed.Description = fmt.Sprintf(
		"**%s %s**\n%s°C (Gefühlt %s°C)",
		weather.emoji,
		weather.description,
		germanDecimal(current.Temperature),
		germanDecimal(current.ApparentTemperature),
	)
	return lo.editResponseEmbed(i, embed)
}
