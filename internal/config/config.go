package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Rule is a weighted keyword rule: it fires when any keyword in Any appears
// in the listing corpus, and then contributes Weight points.
type Rule struct {
	Name   string   `yaml:"name"`
	Weight int      `yaml:"weight"`
	Any    []string `yaml:"any"`
}

// KeywordRule is an unweighted keyword rule, used for deal-breakers and
// room-type recognition.
type KeywordRule struct {
	Name string   `yaml:"name"`
	Any  []string `yaml:"any"`
}

// Scoring is the rule catalog. It is loaded once, validated at startup and
// passed around by value; the engine never mutates it.
type Scoring struct {
	MaxTotal int `yaml:"max_total"`

	Budget          map[string]int `yaml:"budget"`
	DefaultRoomType string         `yaml:"default_room_type"`
	RoomTypes       []KeywordRule  `yaml:"room_types"`

	Required     []Rule `yaml:"required"`
	Preferred    []Rule `yaml:"preferred"`
	PreferredCap int    `yaml:"preferred_cap"`

	DealBreakers      []KeywordRule `yaml:"deal_breakers"`
	PriceRejectFactor float64       `yaml:"price_reject_factor"`
	StructureReject   []string      `yaml:"structure_reject"`

	Location Location `yaml:"location"`
	Pets     Pets     `yaml:"pets"`
}

// Location lists the preferred cities and, within them, the priority
// districts. A district match only counts inside a preferred city.
type Location struct {
	Cities    []string `yaml:"cities"`
	Districts []string `yaml:"districts"`
}

// Pets splits the policy in two: Prohibited keywords cost points, Reject
// keywords throw the listing out entirely.
type Pets struct {
	Friendly   []string `yaml:"friendly"`
	Prohibited []string `yaml:"prohibited"`
	Reject     []string `yaml:"reject"`
}

// Selectors are the CSS selectors used against 591 detail pages. They live in
// config so a markup change doesn't need a rebuild.
type Selectors struct {
	Title       string `yaml:"title"`
	Price       string `yaml:"price"`
	Address     string `yaml:"address"`
	Description string `yaml:"description"`
	DetailItem  string `yaml:"detail_item"`
	DetailLabel string `yaml:"detail_label"`
	DetailValue string `yaml:"detail_value"`
	Facilities  string `yaml:"facilities"`
	Images      string `yaml:"images"`
	Contact     string `yaml:"contact"`
}

// Scraper controls how 591 detail pages are fetched.
type Scraper struct {
	BaseURL        string    `yaml:"base_url"`
	UserAgent      string    `yaml:"user_agent"`
	TimeoutSeconds int       `yaml:"timeout_seconds"`
	RequestsPerSec float64   `yaml:"requests_per_sec"`
	Burst          int       `yaml:"burst"`
	Selectors      Selectors `yaml:"selectors"`
}

// Mail configures the IMAP link source. The password is never stored here;
// it comes from the keychain or env.
type Mail struct {
	Enabled         bool     `yaml:"enabled"`
	IMAPHost        string   `yaml:"imap_host"`
	IMAPPort        int      `yaml:"imap_port"`
	Username        string   `yaml:"username"`
	Mailbox         string   `yaml:"mailbox"`
	SubjectAny      []string `yaml:"subject_any"`
	MaxMessages     int      `yaml:"max_messages"`
	IntervalSeconds int      `yaml:"interval_seconds"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Pipeline struct {
		MinScore       int `yaml:"min_score"`
		RequestDelayMS int `yaml:"request_delay_ms"`
	} `yaml:"pipeline"`

	Scraper Scraper `yaml:"scraper"`

	Notion struct {
		DatabaseID     string  `yaml:"database_id"`
		APIVersion     string  `yaml:"api_version"`
		RequestsPerSec float64 `yaml:"requests_per_sec"`
	} `yaml:"notion"`

	Monitor struct {
		Enabled          bool   `yaml:"enabled"`
		PageID           string `yaml:"page_id"`
		IntervalSeconds  int    `yaml:"interval_seconds"`
		MaxLinksPerCheck int    `yaml:"max_links_per_check"`
	} `yaml:"monitor"`

	Mail Mail `yaml:"mail"`

	Scoring Scoring `yaml:"scoring"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// MaxBudget returns the highest budget tier, used by the over-price
// deal-breaker check.
func (s Scoring) MaxBudget() int {
	max := 0
	for _, b := range s.Budget {
		if b > max {
			max = b
		}
	}
	return max
}

// BudgetFor resolves the budget for a room type, falling back to the default
// room type's budget when the type has no tier of its own.
func (s Scoring) BudgetFor(roomType string) int {
	if b, ok := s.Budget[roomType]; ok {
		return b
	}
	return s.Budget[s.DefaultRoomType]
}
