// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

// greenroom is the command-line front end for a Greenroom stage
// server: it joins a session and streams scene, dialogue, approval
// and generation activity to the terminal.
//
// Connection parameters resolve in order: defaults, saved
// preferences, config file, flags. The last successful connection is
// saved back to the preference file, so a bare "greenroom --user me"
// returns to yesterday's table.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/greenroom-live/greenroom/config"
	"github.com/greenroom-live/greenroom/lib/version"
	"github.com/greenroom-live/greenroom/prefs"
	"github.com/greenroom-live/greenroom/session"
	"github.com/greenroom-live/greenroom/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("greenroom", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to greenroom.yaml (default: $GREENROOM_CONFIG)")
	server := flagSet.String("server", "", "server endpoint, e.g. ws://host:3000/ws (overrides config)")
	user := flagSet.String("user", "", "user ID to join as (required)")
	roleFlag := flagSet.String("role", "", "session role: director, player or spectator")
	world := flagSet.String("world", "", "world ID to join")
	prefsPath := flagSet.String("prefs", "", "path to the preference file")
	verbose := flagSet.BoolP("verbose", "v", false, "debug logging")
	showVersion := flagSet.Bool("version", false, "print version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		if *verbose {
			fmt.Printf("greenroom %s\n", version.Full())
		} else {
			version.Print("greenroom")
		}
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	store, err := openPrefs(*prefsPath)
	if err != nil {
		// Preferences are a convenience; never fatal.
		fmt.Fprintf(os.Stderr, "warning: %v (continuing without preferences)\n", err)
	}

	endpoint := cfg.Server.URL
	roleName := string(wire.RolePlayer)
	worldID := *world
	if store != nil {
		if v, ok := store.Get(prefs.KeyServerURL); ok && *configPath == "" {
			endpoint = v
		}
		if v, ok := store.Get(prefs.KeyRole); ok {
			roleName = v
		}
		if worldID == "" {
			if v, ok := store.Get(prefs.KeyWorld); ok {
				worldID = v
			}
		}
	}
	if *server != "" {
		endpoint = *server
	}
	if *roleFlag != "" {
		roleName = *roleFlag
	}
	role, err := wire.ParseRole(roleName)
	if err != nil {
		return err
	}
	if *user == "" {
		return errors.New("--user is required")
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	timings, err := cfg.Timings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := session.New(session.Config{
		Endpoint:             endpoint,
		UserID:               *user,
		Role:                 role,
		WorldID:              worldID,
		ConnectTimeout:       timings.ConnectTimeout,
		HeartbeatInterval:    timings.HeartbeatInterval,
		HeartbeatMissLimit:   cfg.Heartbeat.MissLimit,
		ReconnectBase:        timings.ReconnectBase,
		ReconnectCap:         timings.ReconnectCap,
		ReconnectMaxAttempts: cfg.Reconnect.MaxAttempts,
		Logger:               logger,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	return watch(ctx, client, store, endpoint, role, worldID)
}

func loadConfig(path string) (*config.Config, error) {
	switch {
	case path != "":
		return config.LoadFile(path)
	case os.Getenv("GREENROOM_CONFIG") != "":
		return config.Load()
	}
	return config.Default(), nil
}

func openPrefs(path string) (*prefs.Store, error) {
	if path == "" {
		var err error
		path, err = prefs.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return prefs.Open(path)
}

// watch runs the interactive loop: connect, print whatever the stage
// produces, exit on signal or when the connection gives up.
func watch(ctx context.Context, client *session.Client, store *prefs.Store, endpoint string, role wire.Role, worldID string) error {
	snaps, cancelSnaps := client.Subscribe()
	defer cancelSnaps()
	scenes, cancelScenes := client.Scenes()
	defer cancelScenes()
	notices, cancelNotices := client.Notices()
	defer cancelNotices()

	if err := client.Connect(); err != nil {
		return err
	}

	var lastStatus string
	var lastApproval string
	saved := false
	for {
		select {
		case <-ctx.Done():
			fmt.Println("disconnecting")
			return nil

		case s, ok := <-snaps:
			if !ok {
				return nil
			}
			if str := s.Status.String(); str != lastStatus {
				lastStatus = str
				fmt.Printf("── %s\n", str)
			}
			if s.Status.Kind == session.StatusFailed {
				return fmt.Errorf("connection failed: %s", s.Status.Reason)
			}
			if s.Status.Kind == session.StatusConnected && !saved {
				saved = true
				fmt.Printf("── joined session %s as %s\n", s.Identity.SessionID, s.Identity.Role)
				savePrefs(store, endpoint, role, worldID)
			}
			if s.Approval != nil && s.Approval.RequestID != lastApproval {
				lastApproval = s.Approval.RequestID
				fmt.Printf("[approval %s] %s proposes: %q\n",
					s.Approval.RequestID, s.Approval.NPCName, s.Approval.ProposedDialogue)
			}
			for _, b := range s.Batches {
				fmt.Printf("[assets %s] %s %.0f%%\n", b.ID, b.Status, b.Progress*100)
			}

		case env, ok := <-scenes:
			if !ok {
				return nil
			}
			printScene(env)

		case n, ok := <-notices:
			if !ok {
				return nil
			}
			if n.Code != "" {
				fmt.Printf("!! %s (%s)\n", n.Message, n.Code)
			} else {
				fmt.Printf("!! %s\n", n.Message)
			}
		}
	}
}

func printScene(env wire.Server) {
	switch m := env.(type) {
	case wire.SceneUpdate:
		fmt.Printf("\n=== %s — %s ===\n", m.Scene.Name, m.Scene.LocationName)
		for _, ch := range m.Characters {
			marker := " "
			if ch.Speaking {
				marker = "*"
			}
			fmt.Printf("  %s %s\n", marker, ch.Name)
		}
	case wire.DialogueResponse:
		fmt.Printf("%s: %s\n", m.SpeakerName, m.Text)
		for i, choice := range m.Choices {
			fmt.Printf("  %d) %s\n", i+1, choice.Text)
		}
	case wire.LLMProcessing:
		fmt.Println("  …")
	case wire.ResponseApproved:
		fmt.Printf("(approved) %s\n", m.Dialogue)
	case wire.ChallengePrompt:
		fmt.Printf("[challenge] %s: roll %s (%s, %+d)\n",
			m.ChallengeName, m.SkillName, m.Difficulty, m.Modifier)
	case wire.ChallengeResolved:
		fmt.Printf("[challenge] %s rolled %d%+d = %d: %s\n",
			m.CharacterName, m.Roll, m.Modifier, m.Total, m.Outcome)
	}
}

func savePrefs(store *prefs.Store, endpoint string, role wire.Role, worldID string) {
	if store == nil {
		return
	}
	for _, kv := range [][2]string{
		{prefs.KeyServerURL, endpoint},
		{prefs.KeyRole, string(role)},
		{prefs.KeyWorld, worldID},
	} {
		if kv[1] == "" {
			continue
		}
		if err := store.Set(kv[0], kv[1]); err != nil {
			fmt.Fprintf(os.Stderr, "warning: saving preferences: %v\n", err)
			return
		}
	}
}
