// Package loretta implements a Discord bot for a German hardware and
// overclocking community.
//
// Loretta serves slash commands for fun (dice rolls, magic 8-ball,
// leetspeak, GIFs), community hardware guide links, server information,
// user hardware specifications, birthdays, memory timing presets,
// weather reports and moderation.
// Alongside the commands it runs background workers that watch RSS
// feeds for hardware news and software releases, announce birthdays
// once a day, log member joins and leaves, and enforce picture-only
// channels.
//
// KeyFile components of the package include:
//
//   - Loretta: The main struct that encapsulates the bot's core functionality.
//   - Discord: Handles Discord integration and message processing.
//   - FeedWatcher: Polls RSS feeds and announces new entries.
//   - BirthdayWorker: Sends the daily birthday greetings.
//   - WeatherClient: Fetches current conditions from open-meteo.
//   - API: Provides a backend API for bot management and monitoring.
//
// State is persisted via GORM, with SQLite as the default backend and
// PostgreSQL (with LISTEN/NOTIFY based config propagation) as an
// alternative. Runtime settings such as the pause state, feed poll
// interval and command limits live in the database and can be changed
// through the admin API without a restart.
package loretta
