package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmemory/internal/config"
	"github.com/kailas-cloud/esmemory/internal/domain"
	memoryrepo "github.com/kailas-cloud/esmemory/internal/repository/memory"
	healthuc "github.com/kailas-cloud/esmemory/internal/usecase/health"
)

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
http:
  port: 8080
embedding:
  api_key: sk-test
  base_url: http://127.0.0.1:1/v1
database:
  driver: memory
elasticsearch:
  index_prefix: km-
  vector_size: 4
  shards: 2
  replicas: 0
  tag_value_type: text
  write_mode: index
search:
  candidate_pool_extra: 30
`))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestRepoOptions(t *testing.T) {
	cfg := memoryConfig(t)
	opts := repoOptions(&cfg)
	if opts.Shards != 2 || opts.Replicas != 0 || opts.CandidatePoolExtra != 30 {
		t.Errorf("opts = %+v", opts)
	}
	if opts.TagValue != memoryrepo.TagValueText || opts.WriteMode != memoryrepo.WriteIndex {
		t.Errorf("opts = %+v", opts)
	}
}

func TestRepoOptions_ReplicasDefault(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Elasticsearch.Replicas = nil
	if got := repoOptions(&cfg).Replicas; got != -1 {
		t.Errorf("replicas = %d, want engine default", got)
	}
}

func TestNewStore_UnknownDriver(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Database.Driver = "cassandra"
	if _, err := newStore(&cfg); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestWire_MemoryDriver(t *testing.T) {
	a := &app{cfg: memoryConfig(t), logger: zap.NewNop()}
	defer a.Close()
	ctx := context.Background()
	if err := a.wire(ctx); err != nil {
		t.Fatalf("wire: %v", err)
	}

	res, err := a.memory.CreateIndex(ctx, "Notes", 0)
	if err != nil || res != domain.IndexCreated {
		t.Fatalf("create: res=%v err=%v", res, err)
	}
	names, err := a.memory.GetIndexes(ctx)
	if err != nil || len(names) != 1 || names[0] != "km-notes" {
		t.Fatalf("indexes = %v, err = %v", names, err)
	}

	report := a.health.Check(ctx)
	if report.Checks[healthuc.ComponentDatabase] != healthuc.CheckOK {
		t.Errorf("report = %+v", report)
	}
	if _, ok := report.Checks[healthuc.ComponentCache]; ok {
		t.Error("cache must not be checked when disabled")
	}
}

func TestNormalizeCmd(t *testing.T) {
	env := "test"
	cmd := normalizeCmd(&env)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--prefix", "km-", "Notes"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	cmd = normalizeCmd(&env)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--prefix", "km-", "bad*name"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for invalid name")
	}
}
