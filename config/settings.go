package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/spf13/afero"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server     ServerSettings     `json:"server"`
	Scrape     ScrapeSettings     `json:"scrape"`
	Probe      ProbeSettings      `json:"probe"`
	TitleMatch TitleMatchSettings `json:"titleMatch"`
	Scoring    ScoringSettings    `json:"scoring"`
	Metadata   MetadataSettings   `json:"metadata"`
	Cache      CacheSettings      `json:"cache"`
	Streaming  StreamingSettings  `json:"streaming"`
	Plugins    []PluginSettings   `json:"plugins"`
	Log        LogSettings        `json:"log"`
	DevMode    bool               `json:"devMode"`
}

type ServerSettings struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	PublicBaseURL string `json:"publicBaseUrl"` // used to build /play/{id} URLs
}

// ScrapeSettings controls the adapter fan-out budgets.
type ScrapeSettings struct {
	CheapSlots              int `json:"cheapSlots"`
	ExpensiveSlots          int `json:"expensiveSlots"`
	PluginTimeoutSeconds    int `json:"pluginTimeoutSeconds"`
	MaxResultsPerPlugin     int `json:"maxResultsPerPlugin"`
	SearchTTLSeconds        int `json:"searchTtlSeconds"`
	CircuitFailureThreshold int `json:"circuitFailureThreshold"`
	CircuitCooldownSeconds  int `json:"circuitCooldownSeconds"`
}

type ProbeSettings struct {
	ProbeAtStreamTime   bool `json:"probeAtStreamTime"`
	MaxProbeCount       int  `json:"maxProbeCount"`
	ProbeConcurrency    int  `json:"probeConcurrency"`
	ProbeTimeoutSeconds int  `json:"probeTimeoutSeconds"`
}

type TitleMatchSettings struct {
	Threshold           float64 `json:"titleMatchThreshold"`
	YearBonus           float64 `json:"titleYearBonus"`
	YearPenalty         float64 `json:"titleYearPenalty"`
	SequelPenalty       float64 `json:"titleSequelPenalty"`
	YearToleranceMovie  int     `json:"titleYearToleranceMovie"`
	YearToleranceSeries int     `json:"titleYearToleranceSeries"`
}

// ScoringSettings are the tables behind the deterministic stream score.
type ScoringSettings struct {
	LanguageScores       map[string]int `json:"languageScores"`
	DefaultLanguageScore int            `json:"defaultLanguageScore"`
	QualityMultiplier    int            `json:"qualityMultiplier"`
	HosterScores         map[string]int `json:"hosterScores"`
	SizeBonus            int            `json:"sizeBonus"`
	SizeBonusMinMB       int            `json:"sizeBonusMinMb"`
	SizeBonusMaxMB       int            `json:"sizeBonusMaxMb"`
}

type MetadataSettings struct {
	TMDBAPIKey string `json:"tmdbApiKey"`
	Language   string `json:"language"` // e.g. "de-DE"
	TTLHours   int    `json:"ttlHours"`
}

type CacheSettings struct {
	Backend       string `json:"backend"` // "memory" or "redis"
	RedisAddr     string `json:"redisAddr"`
	RedisPassword string `json:"redisPassword"`
	RedisDB       int    `json:"redisDb"`
}

// StreamingSettings selects between resolving embeds up front and routing
// clients through the /play proxy endpoint.
type StreamingSettings struct {
	ResolveAtStreamTime bool `json:"resolveAtStreamTime"`
	LinkTTLSeconds      int  `json:"linkTtlSeconds"`
}

// PluginSettings configures one site adapter.
type PluginSettings struct {
	Name            string `json:"name"`
	Enabled         bool   `json:"enabled"`
	Kind            string `json:"kind"`     // "cheap" or "expensive"
	Provides        string `json:"provides"` // "stream", "download" or "both"
	BaseURL         string `json:"baseUrl"`
	DefaultLanguage string `json:"defaultLanguage"`
	CacheTTLSeconds int    `json:"cacheTtlSeconds"` // 0 = global searchTtlSeconds
}

type LogSettings struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration written on first start.
func DefaultSettings() Settings {
	s := Settings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Scrape: ScrapeSettings{
			CheapSlots:              10,
			ExpensiveSlots:          2,
			PluginTimeoutSeconds:    20,
			MaxResultsPerPlugin:     50,
			SearchTTLSeconds:        900,
			CircuitFailureThreshold: 5,
			CircuitCooldownSeconds:  300,
		},
		Probe: ProbeSettings{
			ProbeAtStreamTime:   false,
			MaxProbeCount:       10,
			ProbeConcurrency:    4,
			ProbeTimeoutSeconds: 5,
		},
		TitleMatch: TitleMatchSettings{
			Threshold:           0.75,
			YearBonus:           0.1,
			YearPenalty:         0.2,
			SequelPenalty:       0.25,
			YearToleranceMovie:  1,
			YearToleranceSeries: 0,
		},
		Scoring: ScoringSettings{
			LanguageScores: map[string]int{
				"de": 100,
				"en": 50,
			},
			DefaultLanguageScore: 10,
			QualityMultiplier:    10,
			HosterScores: map[string]int{
				"voe":        8,
				"streamtape": 6,
				"doodstream": 4,
				"vidoza":     3,
			},
			SizeBonus:      5,
			SizeBonusMinMB: 700,
			SizeBonusMaxMB: 12 * 1024,
		},
		Metadata: MetadataSettings{
			Language: "de-DE",
			TTLHours: 24,
		},
		Cache: CacheSettings{
			Backend: "memory",
		},
		Streaming: StreamingSettings{
			ResolveAtStreamTime: true,
			LinkTTLSeconds:      6 * 3600,
		},
		Log: LogSettings{
			MaxSize:    20,
			MaxAge:     14,
			MaxBackups: 3,
		},
	}
	return AutoTune(s)
}

// Slot bounds enforced by AutoTune.
const (
	minCheapSlots      = 2
	maxCheapSlots      = 30
	minExpensiveSlots  = 1
	maxExpensiveSlots  = 10
	minProbeConcurrent = 4
)

// AutoTune derives slot sizes from the detected CPU count with a monotonic
// formula: values never shrink as resources grow, and always land inside the
// documented bounds.
func AutoTune(s Settings) Settings {
	cpus := runtime.NumCPU()

	cheap := cpus * 3
	if cheap < minCheapSlots {
		cheap = minCheapSlots
	}
	if cheap > maxCheapSlots {
		cheap = maxCheapSlots
	}
	if s.Scrape.CheapSlots < cheap {
		s.Scrape.CheapSlots = cheap
	}
	if s.Scrape.CheapSlots > maxCheapSlots {
		s.Scrape.CheapSlots = maxCheapSlots
	}

	expensive := cpus / 2
	if expensive < minExpensiveSlots {
		expensive = minExpensiveSlots
	}
	if expensive > maxExpensiveSlots {
		expensive = maxExpensiveSlots
	}
	if s.Scrape.ExpensiveSlots < expensive {
		s.Scrape.ExpensiveSlots = expensive
	}
	if s.Scrape.ExpensiveSlots > maxExpensiveSlots {
		s.Scrape.ExpensiveSlots = maxExpensiveSlots
	}

	if s.Probe.ProbeConcurrency < minProbeConcurrent {
		s.Probe.ProbeConcurrency = minProbeConcurrent
	}
	return s
}

// Manager loads and saves the settings file. The filesystem is injected so
// tests run against an in-memory fs.
type Manager struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewManager creates a manager for the settings file at configPath.
func NewManager(configPath string) *Manager {
	return &Manager{fs: afero.NewOsFs(), path: configPath}
}

// NewManagerWithFs creates a manager on an explicit filesystem, used by tests.
func NewManagerWithFs(fsys afero.Fs, configPath string) *Manager {
	return &Manager{fs: fsys, path: configPath}
}

// Load reads the settings file, creating it with defaults when missing.
// Loaded settings pass through AutoTune so hand-edited values stay bounded.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}

	exists, err := afero.Exists(m.fs, m.path)
	if err != nil {
		return Settings{}, err
	}
	if !exists {
		defaults := DefaultSettings()
		if err := m.save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, err
	}
	return AutoTune(settings), nil
}

// Save persists the settings file, creating the directory if needed.
func (m *Manager) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(s)
}

func (m *Manager) save(s Settings) error {
	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(m.fs, m.path, data, 0o644)
}
