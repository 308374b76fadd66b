package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "motdump", "dump":
		return dumpTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const dumpTemplate = `# segment kind: h (header), d (directory) or b (body)
mode = "h"
# text or yaml
format = "text"
log_level = "warn"
hex_width = 16
# print decoder metrics after "motdump decode"
metrics = false
# parameter extensions to register: epg
extensions = []
`
