package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"finintel/internal/auth"
	"finintel/internal/config"
	"finintel/internal/intel"
	"finintel/internal/logging"
	"finintel/internal/mode"
	"finintel/internal/session"
	"finintel/internal/store"
	"finintel/internal/usage"
)

// generatorOverride replaces the Gemini transport in tests.
var generatorOverride intel.Generator

// app is the wired component graph shared by every command.
type app struct {
	cfg      *config.Config
	kv       *store.SQLiteKV
	conv     *store.Conversations
	searches *store.RecentSearches
	auth     *auth.Service
	client   *intel.Client
	tracker  *usage.Tracker
	metrics  *usage.Metrics
	ctrl     *session.Controller

	metricsSrv *http.Server
}

func openApp(ctx context.Context, c *config.Config) (*app, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "openApp")
	defer timer.Stop()

	kv, err := store.NewSQLiteKV(c.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: c, kv: kv}

	if a.conv, err = store.OpenConversations(kv); err != nil {
		a.Close()
		return nil, err
	}
	if a.searches, err = store.OpenRecentSearches(kv); err != nil {
		a.Close()
		return nil, err
	}
	a.auth = auth.NewService(auth.NewRegistry(kv), auth.NewSessions(c.GetSessionTTL()))

	if a.tracker, err = usage.NewTracker(c.UsagePath(), 2*time.Second); err != nil {
		a.Close()
		return nil, err
	}
	a.metrics = usage.NewMetrics()

	if generatorOverride != nil {
		a.client = intel.New(generatorOverride, c.Credential(), intel.OptionsFromConfig(c))
	} else {
		a.client, err = intel.NewClient(ctx, c, c.Credential())
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.client.WithRecorder(usage.Multi{a.tracker, a.metrics})

	opts, err := sessionOptions(c)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.ctrl = session.New(a.client, a.conv, a.searches, opts)

	if c.Metrics.Addr != "" {
		if err := a.serveMetrics(c.Metrics.Addr); err != nil {
			a.Close()
			return nil, err
		}
	}
	logging.Boot("app ready: db=%s mode=%s turns=%d", c.Storage.DatabasePath, opts.Mode, a.conv.Len())
	return a, nil
}

func sessionOptions(c *config.Config) (session.Options, error) {
	m, err := mode.Parse(c.Conversation.DefaultMode)
	if err != nil {
		return session.Options{}, err
	}
	level, err := mode.ParseExpertise(c.Conversation.DefaultExpertise)
	if err != nil {
		return session.Options{}, err
	}
	g, err := mode.ParseGoal(c.Conversation.DefaultGoal)
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{Mode: m, Expertise: level, Goal: g}, nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metricsSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return nil
}

// Close flushes usage and releases the database.
func (a *app) Close() {
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.metricsSrv.Shutdown(ctx)
		cancel()
	}
	if a.tracker != nil {
		if err := a.tracker.Close(); err != nil {
			logger.Warn("failed to flush usage", zap.Error(err))
		}
	}
	if a.kv != nil {
		_ = a.kv.Close()
	}
}

// requireLogin enforces auth.required. It reuses the remembered operator
// name and prompts for the password.
func (a *app) requireLogin() error {
	if !a.cfg.Auth.Required {
		return nil
	}
	has, err := a.auth.Registry.HasUsers()
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("no operator registered; run 'finintel register' first")
	}
	username := a.auth.Registry.LastUsername()
	if username == "" {
		if username, err = promptLine("Username: "); err != nil {
			return err
		}
	}
	password, err := promptPassword(fmt.Sprintf("Password for %s: ", username))
	if err != nil {
		return err
	}
	sess, err := a.auth.Login(username, password)
	if err != nil {
		return err
	}
	logger.Info("operator authenticated", zap.String("user", sess.Username))
	return nil
}
