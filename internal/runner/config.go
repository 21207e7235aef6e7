package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/projectdiscovery/gologger"
	fileutil "github.com/projectdiscovery/utils/file"
)

// Config holds the tunables that would otherwise need to be repeated
// on every invocation: the default K/T/Parallel for RunFull. It is the
// mdr equivalent of the teacher's permutation config, loaded the same
// way: a YAML file under the user's config dir, regenerated if absent.
type Config struct {
	K        int     `yaml:"k"`
	T        float64 `yaml:"t"`
	Parallel bool    `yaml:"parallel"`
}

// DefaultConfig is used when no on-disk config exists yet.
var DefaultConfig = Config{K: 10, T: 0.3, Parallel: false}

func getUserHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return homeDir
}

func defaultConfigPath() string {
	return filepath.Join(getUserHomeDir(), fmt.Sprintf(".config/mdr/config_%v.yaml", version))
}

func init() {
	cfgPath := defaultConfigPath()
	if fileutil.FileExists(cfgPath) {
		if bin, err := os.ReadFile(cfgPath); err == nil {
			var cfg Config
			if errx := yaml.Unmarshal(bin, &cfg); errx == nil {
				DefaultConfig = cfg
				return
			} else {
				gologger.Error().Msgf("mdr yaml configuration syntax error.\n %v\n.", yaml.FormatError(errx, true, true))
				return
			}
		}
	}
	if err := validateDir(filepath.Join(getUserHomeDir(), ".config/mdr")); err != nil {
		gologger.Error().Msgf("mdr config dir not found and failed to create got: %v", err)
		return
	}
	if err := writeDefaultConfig(cfgPath); err != nil {
		gologger.Error().Msgf("failed to save default config to %v got: %v", cfgPath, err)
	}
}

func writeDefaultConfig(path string) error {
	bin, err := yaml.Marshal(DefaultConfig)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bin, 0600)
}

// validateDir checks if dir exists if not creates it
func validateDir(dirPath string) error {
	if fileutil.FolderExists(dirPath) {
		return nil
	}
	return fileutil.CreateFolder(dirPath)
}
