package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/poolgovd/internal/core/fees"
)

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func runJSON(t *testing.T, out interface{}, args ...string) {
	t.Helper()
	stdout, err := run(t, args...)
	require.NoError(t, err, stdout)
	require.NoError(t, json.Unmarshal([]byte(stdout), out), stdout)
}

type workspace struct {
	dir  string
	conf string
	keys map[string]string
	addr map[string]string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	w := &workspace{
		dir:  dir,
		conf: filepath.Join(dir, "poolgovd.toml"),
		keys: map[string]string{},
		addr: map[string]string{},
	}

	conf := fmt.Sprintf(`
[storage]
backend = "bbolt"
path = %q
compression = "lz4"

[journal]
driver = "sqlite"
path = %q

[log]
level = "error"
output_paths = [%q]
`, filepath.Join(dir, "accounts"), filepath.Join(dir, "journal.db"), filepath.Join(dir, "poolgovd.log"))
	require.NoError(t, os.WriteFile(w.conf, []byte(conf), 0o644))

	for name, kt := range map[string]string{"upgrade": "ed25519", "admin": "ed25519", "payer": "secp256k1"} {
		path := filepath.Join(dir, name+".json")
		var key map[string]string
		runJSON(t, &key, "keys", "generate", path, "--type", kt)
		assert.Equal(t, kt, key["key_type"])
		w.keys[name] = path
		w.addr[name] = key["address"]
	}

	genesisFile := filepath.Join(dir, "genesis.json")
	g := map[string]interface{}{
		"upgrade_authority": w.addr["upgrade"],
		"accounts": []map[string]string{
			{"address": w.addr["upgrade"], "balance": "100000000000"},
			{"address": w.addr["admin"], "balance": "100000000000"},
			{"address": w.addr["payer"], "balance": "100000000000"},
		},
	}
	data, err := json.Marshal(g)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(genesisFile, data, 0o644))

	var res map[string]interface{}
	runJSON(t, &res, "genesis", "--conf", w.conf, "--file", genesisFile)
	assert.Equal(t, float64(3), res["accounts"])
	assert.Equal(t, float64(300_000_000_000), res["total_supply"])
	return w
}

func TestGovernanceWorkflow(t *testing.T) {
	w := newWorkspace(t)

	var apply applyOutput
	runJSON(t, &apply, "init", w.addr["admin"], "--conf", w.conf, "--key", w.keys["upgrade"])
	assert.True(t, apply.Applied)
	assert.Equal(t, 0, apply.Code)

	var status map[string]interface{}
	runJSON(t, &status, "system", "status", "--conf", w.conf)
	assert.Equal(t, w.addr["admin"], status["admin_authority"])
	assert.Equal(t, false, status["is_paused"])

	var reg map[string]interface{}
	runJSON(t, &reg, "pool", "register", "--conf", w.conf, "--key", w.keys["payer"])
	poolID := reg["pool_id"].(string)
	require.NotEmpty(t, poolID)

	runJSON(t, &apply, "pool", "charge", poolID, "swap", "--conf", w.conf, "--key", w.keys["payer"])
	assert.True(t, apply.Applied)

	var info map[string]interface{}
	runJSON(t, &info, "pool", "info", poolID, "--conf", w.conf)
	assert.Equal(t, float64(fees.DefaultSwapFee), info["collected_swap_fees"])
	assert.Equal(t, float64(1), info["pending_swap_ops"])

	var changed map[string][]string
	runJSON(t, &changed, "pool", "pause", poolID, "--conf", w.conf, "--key", w.keys["upgrade"])
	assert.ElementsMatch(t, []string{"liquidity", "swaps"}, changed["changed"])

	var summary map[string]interface{}
	runJSON(t, &summary, "treasury", "consolidate", poolID, "--conf", w.conf, "--key", w.keys["admin"])
	assert.Equal(t, "individual_pool_pause", summary["mode"])
	assert.Equal(t, float64(fees.DefaultSwapFee), summary["total_consolidated"])

	var treasury map[string]interface{}
	runJSON(t, &treasury, "treasury", "info", "--conf", w.conf)
	assert.Equal(t, float64(1), treasury["pool_creation_count"])
	assert.Equal(t, float64(fees.DefaultPoolCreationFee+fees.DefaultSwapFee), treasury["available_for_withdrawal"])

	runJSON(t, &apply, "system", "pause", "2", "--conf", w.conf, "--key", w.keys["admin"])
	assert.True(t, apply.Applied)

	out, err := run(t, "pool", "unpause", poolID, "--conf", w.conf, "--key", w.keys["payer"])
	require.Error(t, err, out)
	assert.Contains(t, err.Error(), "UnauthorizedAccess")

	var verify map[string]interface{}
	runJSON(t, &verify, "journal", "verify", "--conf", w.conf)
	assert.Equal(t, true, verify["valid"])

	var events []map[string]interface{}
	runJSON(t, &events, "journal", "tail", "--limit", "0", "--conf", w.conf)
	ops := make([]string, 0, len(events))
	for _, e := range events {
		ops = append(ops, e["op"].(string))
	}
	assert.Equal(t, []string{
		"initialize", "register_pool", "charge_operation_fee", "pause_pool",
		"consolidate_pool_fees", "pause_system", "unpause_pool",
	}, ops)
	assert.NotEqual(t, float64(0), events[len(events)-1]["code"])
}

func TestInitRequiresUpgradeAuthority(t *testing.T) {
	w := newWorkspace(t)

	out, err := run(t, "init", w.addr["admin"], "--conf", w.conf, "--key", w.keys["admin"])
	require.Error(t, err, out)

	_, err = run(t, "system", "status", "--conf", w.conf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NotInitialized")
}

func TestKeysShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k.json")

	var generated, shown map[string]string
	runJSON(t, &generated, "keys", "generate", path, "--type", "ed25519")
	runJSON(t, &shown, "keys", "show", path)
	assert.Equal(t, generated, shown)

	_, err := run(t, "keys", "generate", path, "--type", "ed25519")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "poolgovd version")
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "0", want: 0},
		{in: "1150000000", want: 1_150_000_000},
		{in: "0xff", want: 255},
		{in: "18446744073709551615", want: ^uint64(0)},
		{in: "18446744073709551616", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "ten", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
