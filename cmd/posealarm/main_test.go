package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/pose-alarm/internal/pose"
)

type cliTestEnv struct {
	base       string
	configPath string
	dbPath     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("POSEALARM_DB", "")
	t.Setenv("CLASSIFIER_ADDR", "")

	env := &cliTestEnv{
		base:       base,
		configPath: filepath.Join(base, "config.toml"),
		dbPath:     filepath.Join(base, "data", "posealarm.db"),
	}
	writeTestConfig(t, env.configPath, env.dbPath)
	return env
}

// writeTestConfig uses the in-process classifier on raw x/y so that a single
// keypoint is enough to separate the labels.
func writeTestConfig(t *testing.T, path, dbPath string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
db_path = %q

[classifier]
mode = "local"
k = 3
feature_mode = "xy"

[session]
target = "squats"
required_reps = 2
threshold = 0.95

[logging]
level = "error"
`, dbPath)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}

// labelY places each label's single keypoint at its own height.
var labelY = map[string]float64{
	"standing":  0,
	"squatting": 10,
	"onGround":  20,
	"jumping":   30,
}

func writeFrames(t *testing.T, dir, name string, labels ...string) string {
	t.Helper()
	var buf bytes.Buffer
	for _, l := range labels {
		f := pose.Frame{Poses: []pose.Pose{{
			Score:     0.9,
			Keypoints: []pose.Keypoint{{Part: "nose", Score: 0.9, Position: pose.Position{X: 1, Y: labelY[l]}}},
		}}}
		b, err := json.Marshal(f)
		if err != nil {
			t.Fatalf("marshal frame: %v", err)
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write frames: %v", err)
	}
	return path
}

func trainAll(t *testing.T, env *cliTestEnv) {
	t.Helper()
	for label := range labelY {
		input := writeFrames(t, env.base, label+".jsonl", label, label, label)
		out, _, err := runCLI(t, []string{"train", "--label", label, "--input", input}, env.configPath)
		if err != nil {
			t.Fatalf("train %s: %v", label, err)
		}
		requireContains(t, out, "Added 3 examples for "+label)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "squats x2")

	target := filepath.Join(env.base, "init", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestTrainRejectsUnknownLabel(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeFrames(t, env.base, "x.jsonl", "standing")

	_, _, err := runCLI(t, []string{"train", "--label", "sitting", "--input", input}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid label") {
		t.Fatalf("expected invalid label error, got %v", err)
	}
}

func TestTrainLimitAndCounts(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeFrames(t, env.base, "s.jsonl", "standing", "standing", "standing", "standing")

	out, _, err := runCLI(t, []string{"train", "--label", "standing", "--input", input, "--limit", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	requireContains(t, out, "Added 2 examples for standing")

	out, _, err = runCLI(t, []string{"counts"}, env.configPath)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	requireContains(t, out, "standing")
	requireContains(t, out, "missing squatting")

	out, _, err = runCLI(t, []string{"clear", "standing"}, env.configPath)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	requireContains(t, out, "Removed 2 examples for standing")
}

func TestRunCompletesTargetAndStopsAlarm(t *testing.T) {
	env := setupCLITestEnv(t)
	trainAll(t, env)

	input := writeFrames(t, env.base, "session.jsonl",
		"standing", "squatting", "standing", "squatting", "standing")
	out, _, err := runCLI(t, []string{"run", "--input", input, "--ring-now"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "ALARM")
	requireContains(t, out, "[2] squats 0/2 squatting")
	requireContains(t, out, "alarm ringing")
	requireContains(t, out, "[3] squats 1/2 standing")
	requireContains(t, out, "[5] squats 0/2 standing")
	requireContains(t, out, "target reached | alarm off")

	out, _, err = runCLI(t, []string{"inspect"}, env.configPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, "squats")

	out, _, err = runCLI(t, []string{"inspect", "--session", "active", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("inspect --session: %v", err)
	}
	var detail sessionDetail
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("decode inspect json: %v\n%s", err, out)
	}
	if detail.Session.Completions != 1 {
		t.Fatalf("completions = %d, want 1", detail.Session.Completions)
	}
	if detail.Session.EndedAt == "" {
		t.Fatal("expected session to be ended")
	}
	var decisions []string
	for _, e := range detail.Events {
		decisions = append(decisions, e.Trigger+":"+e.Decision)
	}
	want := []string{
		"alarm:ring",
		"gate:ready",
		"classification:no_op",
		"classification:transition",
		"classification:increment",
		"classification:transition",
		"classification:complete",
	}
	if strings.Join(decisions, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", decisions, want)
	}

	out, _, err = runCLI(t, []string{"replay", "--verbose"}, env.configPath)
	if err != nil {
		t.Fatalf("replay session: %v\n%s", err, out)
	}
	requireContains(t, out, "All 5 cycles match")

	fixture := filepath.Join(env.base, "fixture.json")
	out, _, err = runCLI(t, []string{"export-fixture", "--out", fixture}, env.configPath)
	if err != nil {
		t.Fatalf("export-fixture: %v", err)
	}
	requireContains(t, out, "Wrote 5 cycles")

	out, _, err = runCLI(t, []string{"replay", "--fixture", fixture}, env.configPath)
	if err != nil {
		t.Fatalf("replay fixture: %v\n%s", err, out)
	}
	requireContains(t, out, "All 5 cycles match")
}

func TestRunRefusesUntilTrained(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeFrames(t, env.base, "session.jsonl", "standing", "squatting", "standing")

	out, _, err := runCLI(t, []string{"run", "--input", input}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(out, "[1]") {
		t.Fatalf("expected no cycles before training, got:\n%s", out)
	}
	requireContains(t, out, "squats")
}
