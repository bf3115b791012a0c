package launchd

import (
	"os"
	"path/filepath"
	"testing"

	"howett.net/plist"
)

func TestJob_Marshal(t *testing.T) {
	b, err := NewJob("/usr/local/bin/batterytool", []string{"run", "--config", "/etc/batterytool.json"}).Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]any
	if _, err := plist.Unmarshal(b, &got); err != nil {
		t.Fatalf("plist.Unmarshal() error = %v", err)
	}

	if got["Label"] != Label {
		t.Errorf("Label = %v, want %s", got["Label"], Label)
	}
	args, _ := got["ProgramArguments"].([]any)
	if len(args) != 4 || args[0] != "/usr/local/bin/batterytool" || args[1] != "run" {
		t.Errorf("ProgramArguments = %v", got["ProgramArguments"])
	}
	if got["RunAtLoad"] != true {
		t.Errorf("RunAtLoad = %v", got["RunAtLoad"])
	}
	keepAlive, _ := got["KeepAlive"].(map[string]any)
	if keepAlive["SuccessfulExit"] != false {
		t.Errorf("KeepAlive = %v", got["KeepAlive"])
	}
}

func withFakeLaunchd(t *testing.T) *[][]string {
	t.Helper()

	origDir, origPath, origCtl := launchDaemonsDir, plistPath, launchctl
	t.Cleanup(func() {
		launchDaemonsDir, plistPath, launchctl = origDir, origPath, origCtl
	})

	launchDaemonsDir = filepath.Join(t.TempDir(), "LaunchDaemons")
	plistPath = filepath.Join(launchDaemonsDir, Label+".plist")

	calls := &[][]string{}
	launchctl = func(args ...string) error {
		*calls = append(*calls, args)
		return nil
	}
	return calls
}

func TestInstallUninstall(t *testing.T) {
	calls := withFakeLaunchd(t)

	if err := Install([]string{"run"}); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if _, err := os.Stat(PlistPath()); err != nil {
		t.Fatalf("plist not written: %v", err)
	}

	if err := Uninstall(); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	if _, err := os.Stat(PlistPath()); !os.IsNotExist(err) {
		t.Errorf("plist still exists: %v", err)
	}

	if len(*calls) != 2 || (*calls)[0][0] != "load" || (*calls)[1][0] != "unload" {
		t.Errorf("launchctl calls = %v", *calls)
	}
}

func TestUninstall_NotInstalled(t *testing.T) {
	calls := withFakeLaunchd(t)

	if err := Uninstall(); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	if len(*calls) != 0 {
		t.Errorf("launchctl calls = %v, want none", *calls)
	}
}
