package steamcfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const condebugConfig = `"UserLocalConfigStore"
{
	"friends"
	{
		"PersonaName"		"WatchedUser"
	}
	"Software"
	{
		"Valve"
		{
			"Steam"
			{
				"apps"
				{
					"440"
					{
						"LaunchOptions"		"-novid -condebug"
					}
				}
			}
		}
	}
}
`

const plainConfig = `"UserLocalConfigStore"
{
	"friends"
	{
		"PersonaName"		"CasualPlayer"
	}
	"Software"
	{
		"Valve"
		{
			"Steam"
			{
				"apps"
				{
					"440"
					{
						"LaunchOptions"		"-novid"
					}
				}
			}
		}
	}
}
`

// writeLocalConfig plants a localconfig.vdf for accountID under steamDir.
func writeLocalConfig(t *testing.T, steamDir, accountID, content string) string {
	t.Helper()
	dir := filepath.Join(steamDir, "userdata", accountID, "config")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "localconfig.vdf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanFindsCondebugAccount(t *testing.T) {
	steamDir := t.TempDir()
	writeLocalConfig(t, steamDir, "100200300", condebugConfig)
	writeLocalConfig(t, steamDir, "400500600", plainConfig)

	s := NewScanner(steamDir)
	if !s.Scan() {
		t.Fatal("first Scan reported no change")
	}
	if !s.CondebugEnabled() {
		t.Error("-condebug account not detected")
	}
	if _, ok := s.Personas()["WatchedUser"]; !ok {
		t.Errorf("Personas() = %v, want WatchedUser", s.Personas())
	}
	if _, ok := s.Personas()["CasualPlayer"]; !ok {
		t.Error("persona without -condebug missing; every account can appear in the log")
	}
}

func TestScanSkipsUnchangedFiles(t *testing.T) {
	steamDir := t.TempDir()
	path := writeLocalConfig(t, steamDir, "100200300", plainConfig)

	s := NewScanner(steamDir)
	if !s.Scan() {
		t.Fatal("first Scan reported no change")
	}
	if s.Scan() {
		t.Error("second Scan re-parsed unchanged files")
	}

	// Advance the mtime; the file must be picked up again.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	if !s.Scan() {
		t.Error("Scan missed an mtime advance")
	}
}

func TestScanNoSteamData(t *testing.T) {
	s := NewScanner(t.TempDir())
	if s.Scan() {
		t.Error("Scan reported change with no userdata present")
	}
	if s.CondebugEnabled() {
		t.Error("CondebugEnabled with nothing scanned")
	}
}

func TestFindSteamDir(t *testing.T) {
	steamDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(steamDir, "userdata"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := FindSteamDir(filepath.Join(steamDir, "steam_binary"))
	if got != steamDir {
		t.Errorf("FindSteamDir = %q, want %q", got, steamDir)
	}
}

// ///////////////////////////////////////////////
// VDF Parser
// ///////////////////////////////////////////////

func TestParseVDF(t *testing.T) {
	root, err := ParseVDF([]byte(condebugConfig))
	if err != nil {
		t.Fatalf("ParseVDF: %v", err)
	}
	store := root.Child("userlocalconfigstore")
	if store == nil {
		t.Fatal("root block missing")
	}
	if got := store.Child("friends").Value("personaname"); got != "WatchedUser" {
		t.Errorf("PersonaName = %q", got)
	}
	if got := store.Child("software", "valve", "steam", "apps", "440").Value("launchoptions"); got != "-novid -condebug" {
		t.Errorf("LaunchOptions = %q", got)
	}
}

func TestParseVDFCaseInsensitiveKeys(t *testing.T) {
	root, err := ParseVDF([]byte(`"ROOT" { "Key" "value" }`))
	if err != nil {
		t.Fatalf("ParseVDF: %v", err)
	}
	if got := root.Child("root").Value("KEY"); got != "value" {
		t.Errorf("Value = %q", got)
	}
}

func TestParseVDFEscapesAndComments(t *testing.T) {
	doc := `// game settings
"root"
{
	"name"	"quoted \"text\" here"	// trailing comment
}
`
	root, err := ParseVDF([]byte(doc))
	if err != nil {
		t.Fatalf("ParseVDF: %v", err)
	}
	if got := root.Child("root").Value("name"); got != `quoted "text" here` {
		t.Errorf("name = %q", got)
	}
}

func TestParseVDFErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unclosed block", `"root" {`},
		{"unterminated string", `"root`},
		{"stray close", `}`},
		{"key without value", `"root" { "key" }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseVDF([]byte(tt.doc)); err == nil {
				t.Error("ParseVDF accepted malformed input")
			}
		})
	}
}
