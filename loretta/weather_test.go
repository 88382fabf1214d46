package loretta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newWeatherTestServers stands up fake geocoding and forecast endpoints
// and points the bot's weather client at them.
func newWeatherTestServers(
	t testing.TB,
	bot *Loretta,
	geocode http.HandlerFunc,
	forecast http.HandlerFunc,
) {
	t.Helper()
	geoServer := httptest.NewServer(geocode)
	t.Cleanup(geoServer.Close)
	forecastServer := httptest.NewServer(forecast)
	t.Cleanup(forecastServer.Close)

	cfg := &WeatherConfig{
		GeocodingURL: geoServer.URL,
		ForecastURL:  forecastServer.URL,
		LogLevel:     bot.config.Weather.LogLevel,
		Timeout:      5 * time.Second,
	}
	bot.weather = newWeatherClient(cfg, geoServer.Client())
}

func geocodeHit(name, country string, lat, lon float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(
			map[string]any{
				"results": []map[string]any{
					{
						"name":      name,
						"country":   country,
						"latitude":  lat,
						"longitude": lon,
					},
				},
			},
		)
	}
}

func geocodeMiss(w http.ResponseWriter, _ *http.Request) {
	_, _ = fmt.Fprint(w, `{"results":[]}`)
}

func forecastFixed(current map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"current": current})
	}
}

func TestWMOWeatherFor(t *testing.T) {
	assert.Equal(t, wmoWeather{"Klarer Himmel", "☀️"}, wmoWeatherFor(0))
	assert.Equal(t, wmoWeather{"Gewitter", "⛈️"}, wmoWeatherFor(95))
	assert.Equal(t, wmoWeather{"Unbekannt", "❓"}, wmoWeatherFor(1234))
}

func TestFormatWindDirection(t *testing.T) {
	cases := map[float64]string{
		0:     "N",
		45:    "NO",
		90:    "O",
		135:   "SO",
		180:   "S",
		225:   "SW",
		270:   "W",
		315:   "NW",
		359.9: "N",
		22.5:  "NNO",
	}
	for degrees, want := range cases {
		assert.Equal(t, want, formatWindDirection(degrees), "degrees: %v", degrees)
	}
}

func TestGermanDecimal(t *testing.T) {
	assert.Equal(t, "21,5", germanDecimal(21.5))
	assert.Equal(t, "-3,0", germanDecimal(-3))
	assert.Equal(t, "0,0", germanDecimal(0))
}

func TestWeatherClientGeocode(t *testing.T) {
	bot := newTestLoretta(t)
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		var query string
		newWeatherTestServers(
			t, bot,
			func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.Query().Get("name")
				geocodeHit("Berlin", "Deutschland", 52.52, 13.41)(w, r)
			},
			forecastFixed(nil),
		)

		geo, err := bot.weather.Geocode(ctx, "Berlin")
		require.NoError(t, err)
		require.NotNil(t, geo)
		assert.Equal(t, "Berlin", query)
		assert.Equal(t, "Berlin", geo.Name)
		assert.Equal(t, 52.52, geo.Latitude)
	})

	t.Run("miss returns nil", func(t *testing.T) {
		newWeatherTestServers(t, bot, geocodeMiss, forecastFixed(nil))
		geo, err := bot.weather.Geocode(ctx, "Atlantis")
		require.NoError(t, err)
		assert.Nil(t, geo)
	})

	t.Run("server error", func(t *testing.T) {
		newWeatherTestServers(
			t, bot,
			func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			forecastFixed(nil),
		)
		_, err := bot.weather.Geocode(ctx, "Berlin")
		assert.Error(t, err)
	})
}

func TestWeatherClientCurrentWeather(t *testing.T) {
	bot := newTestLoretta(t)
	ctx := context.Background()

	newWeatherTestServers(
		t, bot,
		geocodeMiss,
		forecastFixed(
			map[string]any{
				"temperature_2m":       21.5,
				"apparent_temperature": 20.1,
				"relative_humidity_2m": 64,
				"weather_code":         3,
				"wind_speed_10m":       12.3,
				"wind_direction_10m":   270.0,
			},
		),
	)

	current, err := bot.weather.CurrentWeather(ctx, 52.52, 13.41)
	require.NoError(t, err)
	assert.Equal(t, 21.5, current.Temperature)
	assert.Equal(t, 64, current.RelativeHumidity)
	assert.Equal(t, 3, current.WeatherCode)
	assert.Equal(t, 270.0, current.WindDirection)
}

func TestCommandWeather(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)
	ctx := context.Background()

	t.Run("place found", func(t *testing.T) {
		newWeatherTestServers(
			t, bot,
			geocodeHit("Hamburg", "Deutschland", 53.55, 9.99),
			forecastFixed(
				map[string]any{
					"temperature_2m":       8.4,
					"apparent_temperature": 5.2,
					"relative_humidity_2m": 81,
					"weather_code":         61,
					"wind_speed_10m":       24.7,
					"wind_direction_10m":   292.5,
				},
			),
		)

		i := newSlashCommandInteraction(
			ids, user, DiscordSlashCommandWeather,
			stringCommandOption("ort", "Hamburg"),
		)
		require.NoError(t, bot.commandWeather(ctx, i))

		waitForPayload(t, rec.responses)
		edit := waitForPayload(t, rec.edits)
		require.NotNil(t, edit.Embeds)
		embed := (*edit.Embeds)[0]
		assert.Equal(t, "Wetter für Hamburg, Deutschland", embed.Title)
		assert.Equal(t, "🌧️ Leichter Regen", embed.Description)
		require.Len(t, embed.Fields, 3)
		assert.Equal(t, "8,4°C (Gefühlt 5,2°C)", embed.Fields[0].Value)
		assert.Equal(t, "81%", embed.Fields[1].Value)
		assert.Equal(t, "24,7 km/h - WNW", embed.Fields[2].Value)
	})

	t.Run("short variant", func(t *testing.T) {
		newWeatherTestServers(
			t, bot,
			geocodeHit("Köln", "Deutschland", 50.94, 6.96),
			forecastFixed(
				map[string]any{
					"temperature_2m":       14.2,
					"apparent_temperature": 12.8,
					"weather_code":         2,
				},
			),
		)

		i := newSlashCommandInteraction(
			ids, user, DiscordSlashCommandWeatherShort,
			stringCommandOption("ort", "Köln"),
		)
		require.NoError(t, bot.commandWeatherShort(ctx, i))

		waitForPayload(t, rec.responses)
		edit := waitForPayload(t, rec.edits)
		require.NotNil(t, edit.Embeds)
		embed := (*edit.Embeds)[0]
		assert.Equal(t, "Köln, Deutschland", embed.Title)
		assert.Equal(
			t,
			"**⛅ Teilweise bewölkt**\n14,2°C (Gefühlt 12,8°C)",
			embed.Description,
		)
		assert.Empty(t, embed.Fields)
	})

	t.Run("place not found", func(t *testing.T) {
		newWeatherTestServers(t, bot, geocodeMiss, forecastFixed(nil))

		i := newSlashCommandInteraction(
			ids, user, DiscordSlashCommandWeather,
			stringCommandOption("ort", "Nirgendwo"),
		)
		require.NoError(t, bot.commandWeather(ctx, i))

		waitForPayload(t, rec.responses)
		edit := waitForPayload(t, rec.edits)
		require.NotNil(t, edit.Embeds)
		embed := (*edit.Embeds)[0]
		assert.Equal(t, "Ort nicht gefunden", embed.Title)
		assert.Contains(t, embed.Description, "'Nirgendwo'")
	})
}
