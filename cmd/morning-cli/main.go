package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/robertmeta/morning-cli/catalog"
	"github.com/robertmeta/morning-cli/config"
	"github.com/robertmeta/morning-cli/model"
	"github.com/robertmeta/morning-cli/recommend"
	"github.com/robertmeta/morning-cli/server"
	"github.com/robertmeta/morning-cli/store"
	"github.com/robertmeta/morning-cli/weather"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

func main() {
	app := &cli.App{
		Name:    "morning-cli",
		Usage:   "A personalized breakfast menu recommender",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Value:   getDefaultDBPath(),
				Usage:   "Database file path",
				EnvVars: []string{"MORNING_DB"},
			},
			&cli.StringFlag{
				Name:    "catalog",
				Aliases: []string{"c"},
				Value:   "morning_menu.csv",
				Usage:   "Menu catalog CSV path",
				EnvVars: []string{"MORNING_CATALOG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "recommend",
				Usage: "Recommend a breakfast menu item",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "User ID (empty for a random, non-personalized pick)",
					},
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Value:   string(model.ModeCommute),
						Usage:   "Situational mode: commute or holiday",
					},
					&cli.StringFlag{
						Name:  "condition",
						Usage: "Weather condition override (skips the weather fetch)",
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "Random seed for the tie-breaking pick (0 = time-seeded)",
					},
				},
				Action: recommendMenu,
			},
			{
				Name:      "feedback",
				Usage:     "Record like/dislike feedback for a menu item",
				ArgsUsage: "<like|dislike> <menu-name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Password",
						Required: true,
					},
				},
				Action: recordFeedback,
			},
			{
				Name:      "register",
				Usage:     "Provision a user account",
				ArgsUsage: "<user-id> <password>",
				Action:    registerUser,
			},
			{
				Name:  "history",
				Usage: "List a user's feedback history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID",
						Required: true,
					},
				},
				Action: listHistory,
			},
			{
				Name:   "menu",
				Usage:  "List the menu catalog",
				Action: listMenu,
			},
			{
				Name:   "weather",
				Usage:  "Show the current weather observation",
				Action: showWeather,
			},
			{
				Name:  "serve",
				Usage: "Start the HTTP presentation server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "listen",
						Aliases: []string{"l"},
						Usage:   "Listen address (overrides MORNING_LISTEN)",
					},
				},
				Action: serve,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "morning.db"
	}
	return filepath.Join(home, ".config", "morning-cli", "morning.db")
}

func getStore(c *cli.Context) (*store.Store, error) {
	dbPath := c.String("db")

	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	s, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return s, nil
}

func getWeatherClient() (*weather.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return weather.NewClient(cfg.WeatherLatitude, cfg.WeatherLongitude, cfg.WeatherTimeout), nil
}

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func recommendMenu(c *cli.Context) error {
	items, err := catalog.Load(c.String("catalog"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to load catalog: %v", err), ExitDataError)
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	// Weather is optional personalization: an override skips the fetch,
	// and a fetch failure degrades to the sentinel rather than aborting.
	obs := weather.Observation{Condition: c.String("condition")}
	if obs.Condition == "" {
		wc, err := getWeatherClient()
		if err != nil {
			return cli.Exit(err.Error(), ExitGeneralError)
		}
		obs = wc.Current(context.Background())
	}

	req, err := recommend.BuildRequest(c.String("user"), obs.Condition, c.String("mode"))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	var rng *rand.Rand
	if seed := c.Int64("seed"); seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}

	engine := recommend.New(s, rng)
	rec, err := engine.Recommend(req, items)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to recommend: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"mode":           req.Mode,
		"weather":        obs,
		"recommendation": rec,
	})
}

func recordFeedback(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("Usage: morning-cli feedback <like|dislike> <menu-name>", ExitUsageError)
	}

	ft, err := model.ParseFeedbackType(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}
	menuName := c.Args().Get(1)

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	// Feedback requires an authenticated identity; the store itself
	// does not re-validate it.
	ok, err := s.Authenticate(c.String("user"), c.String("password"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to authenticate: %v", err), ExitDataError)
	}
	if !ok {
		return cli.Exit("Authentication failed", ExitUsageError)
	}

	if err := s.RecordFeedback(c.String("user"), menuName, ft); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to record feedback: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"success":   true,
		"menu_name": menuName,
		"feedback":  ft,
	})
}

func registerUser(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("Usage: morning-cli register <user-id> <password>", ExitUsageError)
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	userID := c.Args().Get(0)
	if err := s.EnsureUser(userID, c.Args().Get(1)); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to register user: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"success": true,
		"user_id": userID,
	})
}

func listHistory(c *cli.Context) error {
	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	events, err := s.FeedbackHistory(c.String("user"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to get feedback history: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"count":  len(events),
		"events": events,
	})
}

func listMenu(c *cli.Context) error {
	items, err := catalog.Load(c.String("catalog"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to load catalog: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"count": len(items),
		"items": items,
	})
}

func showWeather(c *cli.Context) error {
	wc, err := getWeatherClient()
	if err != nil {
		return cli.Exit(err.Error(), ExitGeneralError)
	}
	return outputJSON(wc.Current(context.Background()))
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(err.Error(), ExitGeneralError)
	}

	listen := c.String("listen")
	if listen == "" {
		listen = cfg.ListenAddr
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	log := zerolog.New(os.Stderr).With().
		Str("service", "morning-cli").
		Timestamp().
		Logger()

	wc := weather.NewClient(cfg.WeatherLatitude, cfg.WeatherLongitude, cfg.WeatherTimeout)
	engine := recommend.New(s, nil)
	srv := server.New(s, engine, wc, c.String("catalog"), log)

	log.Info().Str("listen", listen).Msg("server starting")
	if err := http.ListenAndServe(listen, srv.Router()); err != nil {
		return cli.Exit(fmt.Sprintf("Server failed: %v", err), ExitGeneralError)
	}
	return nil
}
