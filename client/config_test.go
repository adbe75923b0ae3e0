package client_test

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-net/vault-escrow-contract/client"
	"github.com/custodia-net/vault-escrow-contract/common"
	"github.com/custodia-net/vault-escrow-contract/executor"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
state_path: /var/lib/escrow/runs.db
log_level: debug
signer_seed: `+hex.EncodeToString(make([]byte, 32))+"\n")

	cfg, err := client.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/escrow/runs.db", cfg.StatePath)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Len(t, cfg.SignerSeed, 64)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := client.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, "state_path: [not\n")
	_, err := client.LoadConfig(path)
	require.Error(t, err)
}

func TestConfigNewContextFromSeed(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	cfg := &client.Config{
		StatePath:  filepath.Join(t.TempDir(), "runs.db"),
		LogLevel:   "warn",
		SignerSeed: hex.EncodeToString(seed),
	}

	ctx, closer, err := cfg.NewContext(nil, executor.New())
	require.NoError(t, err)
	defer closer()

	want, err := common.KeypairFromSeed(seed)
	require.NoError(t, err)
	require.Equal(t, want.Address(), ctx.Signer().Address())
}

func TestConfigNewContextRequiresSigner(t *testing.T) {
	cfg := &client.Config{}
	_, _, err := cfg.NewContext(nil, executor.New())
	require.Error(t, err)
}

func TestConfigNewContextBadLevel(t *testing.T) {
	cfg := &client.Config{LogLevel: "chatty", SignerSeed: hex.EncodeToString(make([]byte, 32))}
	_, _, err := cfg.NewContext(nil, executor.New())
	require.Error(t, err)
}