package chromehost

import (
	"os"
	"os/exec"
	"runtime"
)

// PathEnv names the environment variables consulted for the Chrome
// executable, in order.
var PathEnv = []string{"WIKIPREVIEW_CHROME_PATH", "CHROME_PATH"}

// ResolveChromePath resolves the Chrome executable path: explicitPath when
// set, then the PathEnv variables, then the platform's usual locations.
// It returns "" when nothing is found.
func ResolveChromePath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	for _, name := range PathEnv {
		if p := os.Getenv(name); p != "" {
			return p
		}
	}
	return findSystemChrome()
}

// findSystemChrome tries Chromium before Chrome.
func findSystemChrome() string {
	var candidates []string

	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		}
	case "linux":
		candidates = []string{
			"chromium",
			"chromium-browser",
			"google-chrome-stable",
			"google-chrome",
			"headless-shell",
		}
	case "windows":
		for _, env := range []string{"PROGRAMFILES", "PROGRAMFILES(X86)", "LOCALAPPDATA"} {
			dir := os.Getenv(env)
			if dir == "" {
				continue
			}
			candidates = append(candidates,
				dir+"\\Chromium\\Application\\chrome.exe",
				dir+"\\Google\\Chrome\\Application\\chrome.exe",
			)
		}
	}

	for _, candidate := range candidates {
		if path := resolveExecutable(candidate); path != "" {
			return path
		}
	}
	return ""
}

// resolveExecutable checks full paths with os.Stat and bare names with
// exec.LookPath.
func resolveExecutable(nameOrPath string) string {
	if len(nameOrPath) > 0 && (nameOrPath[0] == '/' || (len(nameOrPath) > 1 && nameOrPath[1] == ':')) {
		if _, err := os.Stat(nameOrPath); err == nil {
			return nameOrPath
		}
		return ""
	}
	if path, err := exec.LookPath(nameOrPath); err == nil {
		return path
	}
	return ""
}
