package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/tablebook/internal/notify"
	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
)

func TestLoadServeConfigReadsEnvironment(test *testing.T) {
	test.Setenv("TABLEBOOK_SESSION_SIGNING_KEY", "env-key")
	test.Setenv("TABLEBOOK_TIMEZONE", "America/New_York")
	test.Setenv("TABLEBOOK_KAFKA_BROKERS", "k1:9092, k2:9092")
	test.Setenv("TABLEBOOK_GRPC_LISTEN_ADDR", ":7000")

	cmd := newServeCommand()
	if err := cmd.ParseFlags([]string{"--notify", "kafka", "--listen-addr", ":9999"}); err != nil {
		test.Fatalf("parse flags: %v", err)
	}
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		test.Fatalf("load: %v", err)
	}
	if cfg.HTTP.SessionSigningKey != "env-key" || cfg.HTTP.ListenAddr != ":9999" {
		test.Fatalf("unexpected http config %+v", cfg.HTTP)
	}
	if cfg.GRPCListenAddr != ":7000" {
		test.Fatalf("expected grpc listen addr from env, got %q", cfg.GRPCListenAddr)
	}
	if cfg.Storage.Location.String() != "America/New_York" || cfg.Storage.Store != storeGorm {
		test.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Notify.Backend != notify.BackendKafka || len(cfg.Notify.KafkaBrokers) != 2 || cfg.Notify.Topic != notify.DefaultTopic {
		test.Fatalf("unexpected notify config %+v", cfg.Notify)
	}
	if !cfg.MetricsEnabled || cfg.HTTP.SessionTTL != 8*time.Hour {
		test.Fatalf("defaults not applied %+v", cfg)
	}
}

func TestLoadServeConfigRequiresSigningKey(test *testing.T) {
	test.Setenv("TABLEBOOK_SESSION_SIGNING_KEY", "")
	cmd := newServeCommand()
	if err := cmd.ParseFlags(nil); err != nil {
		test.Fatalf("parse flags: %v", err)
	}
	if _, err := loadServeConfig(cmd); err == nil {
		test.Fatalf("expected missing signing key error")
	}
}

func TestLoadStorageConfigRejectsUnknownValues(test *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "store", args: []string{"--store", "mongo"}},
		{name: "timezone", args: []string{"--timezone", "Mars/Olympus"}},
	}
	for _, testCase := range testCases {
		cmd := newMigrateCommand()
		if err := cmd.ParseFlags(testCase.args); err != nil {
			test.Fatalf("%s: parse flags: %v", testCase.name, err)
		}
		if _, err := loadCommandStorageConfig(cmd); err == nil {
			test.Fatalf("%s: expected error", testCase.name)
		}
	}
}

func TestManagerAddCreatesLogin(test *testing.T) {
	databasePath := filepath.Join(test.TempDir(), "tablebook.db")

	var output bytes.Buffer
	root := newRootCommand()
	root.SetOut(&output)
	root.SetIn(strings.NewReader("s3cret\n"))
	root.SetArgs([]string{"manager", "add", "--database-url", databasePath, "--login", "host"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		test.Fatalf("manager add: %v", err)
	}
	if !strings.Contains(output.String(), "manager host created") {
		test.Fatalf("unexpected output %q", output.String())
	}

	cfg := storageConfig{DatabaseURL: databasePath, Store: storeGorm, Location: time.UTC}
	storage, err := openBackend(context.Background(), cfg, false)
	if err != nil {
		test.Fatalf("open: %v", err)
	}
	defer func() { _ = storage.close() }()
	auth, err := reservation.NewManagerAuth(storage.managers)
	if err != nil {
		test.Fatalf("auth: %v", err)
	}
	authenticated, err := auth.Authenticate(context.Background(), "host", "s3cret")
	if err != nil || !authenticated {
		test.Fatalf("expected authentication, got %v %v", authenticated, err)
	}

	if _, err := runManagerAdd(context.Background(), cfg, "host", "other", nil); !errors.Is(err, reservation.ErrManagerExists) {
		test.Fatalf("expected ErrManagerExists, got %v", err)
	}
	if _, err := runManagerAdd(context.Background(), cfg, "second", "", strings.NewReader("")); !errors.Is(err, errPasswordRequired) {
		test.Fatalf("expected errPasswordRequired, got %v", err)
	}
}

func TestMigrateCreatesSQLiteSchema(test *testing.T) {
	databasePath := filepath.Join(test.TempDir(), "migrate.db")

	var output bytes.Buffer
	root := newRootCommand()
	root.SetOut(&output)
	root.SetArgs([]string{"migrate", "--database-url", "sqlite://" + databasePath})
	if err := root.ExecuteContext(context.Background()); err != nil {
		test.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(output.String(), "schema up to date") {
		test.Fatalf("unexpected output %q", output.String())
	}
}
