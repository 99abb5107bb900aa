package pipeline

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FocusLibrary resolves a strategy focus tag to the guidance text fed
// into draft and revise prompts. Definitions load from a YAML file when
// present and fall back to built-in defaults.
type FocusLibrary struct {
	mu      sync.RWMutex
	entries map[string]string
}

type focusFile struct {
	Focus map[string]string `yaml:"strategy_focus"`
}

var defaultFocus = map[string]string{
	"cost_leadership":      "Focus on pricing efficiency and supply chain optimization.",
	"differentiation":      "Focus on unique product capabilities, brand strength, and premium positioning.",
	"competitive_position": "Focus on market share, competitive moats, and positioning against rivals.",
	"innovation":           "Focus on R&D pipeline, technology leadership, and speed to market.",
	"growth":               "Focus on revenue expansion, new markets, and scalability of the business model.",
}

// LoadFocusLibrary reads definitions from path, merging over the
// defaults. An empty path or a missing file keeps the defaults only.
func LoadFocusLibrary(path string, logger *zap.Logger) *FocusLibrary {
	entries := make(map[string]string, len(defaultFocus))
	for k, v := range defaultFocus {
		entries[k] = v
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Strategy focus definitions not readable, using defaults",
				zap.String("path", path),
				zap.Error(err),
			)
		} else {
			var f focusFile
			if err := yaml.Unmarshal(data, &f); err != nil {
				logger.Warn("Strategy focus definitions not parseable, using defaults",
					zap.String("path", path),
					zap.Error(err),
				)
			} else {
				for k, v := range f.Focus {
					entries[normalizeFocus(k)] = v
				}
			}
		}
	}

	return &FocusLibrary{entries: entries}
}

// Describe returns the guidance text for a focus tag. Unknown tags get
// a generic description built from the tag itself rather than an error;
// focus selection never blocks an analysis.
func (l *FocusLibrary) Describe(tag string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if desc, ok := l.entries[normalizeFocus(tag)]; ok {
		return desc
	}
	readable := strings.ReplaceAll(normalizeFocus(tag), "_", " ")
	if readable == "" {
		readable = "overall competitive position"
	}
	return "Focus on " + readable + "."
}

func normalizeFocus(tag string) string {
	return strings.ReplaceAll(strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(tag))), " "), " ", "_")
}
