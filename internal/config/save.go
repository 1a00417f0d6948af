package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Validate is the fail-fast startup check. A config that fails here must
// never reach the scorer; per-listing scoring does not re-validate.
func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	if cfg.Pipeline.MinScore < 0 {
		errs = append(errs, "pipeline.min_score must be >= 0")
	}

	s := cfg.Scoring
	if s.MaxTotal <= 0 {
		errs = append(errs, "scoring.max_total must be > 0")
	}
	if s.PriceRejectFactor <= 1 {
		errs = append(errs, "scoring.price_reject_factor must be > 1")
	}
	if s.PreferredCap < 0 {
		errs = append(errs, "scoring.preferred_cap must be >= 0")
	}

	if len(s.Budget) == 0 {
		errs = append(errs, "scoring.budget must have at least 1 room type")
	}
	for rt, b := range s.Budget {
		if b <= 0 {
			errs = append(errs, fmt.Sprintf("scoring.budget[%s] must be > 0", rt))
		}
	}
	if s.DefaultRoomType == "" {
		errs = append(errs, "scoring.default_room_type is required")
	} else if _, ok := s.Budget[s.DefaultRoomType]; !ok {
		errs = append(errs, fmt.Sprintf("scoring.budget must cover default room type %q", s.DefaultRoomType))
	}

	checkKeywordRules := func(name string, rules []KeywordRule) {
		for i, r := range rules {
			if r.Name == "" {
				errs = append(errs, fmt.Sprintf("%s[%d].name is required", name, i))
			}
			if len(r.Any) == 0 {
				errs = append(errs, fmt.Sprintf("%s[%d].any must have at least 1 term", name, i))
			}
			for j, term := range r.Any {
				if term == "" {
					errs = append(errs, fmt.Sprintf("%s[%d].any[%d] cannot be empty", name, i, j))
				}
			}
		}
	}
	checkWeightedRules := func(name string, rules []Rule) {
		for i, r := range rules {
			if r.Name == "" {
				errs = append(errs, fmt.Sprintf("%s[%d].name is required", name, i))
			}
			if r.Weight < 0 {
				errs = append(errs, fmt.Sprintf("%s[%d].weight must be >= 0", name, i))
			}
			if len(r.Any) == 0 {
				errs = append(errs, fmt.Sprintf("%s[%d].any must have at least 1 term", name, i))
			}
			for j, term := range r.Any {
				if term == "" {
					errs = append(errs, fmt.Sprintf("%s[%d].any[%d] cannot be empty", name, i, j))
				}
			}
		}
	}

	checkKeywordRules("scoring.room_types", s.RoomTypes)
	checkKeywordRules("scoring.deal_breakers", s.DealBreakers)
	checkWeightedRules("scoring.required", s.Required)
	checkWeightedRules("scoring.preferred", s.Preferred)

	if len(s.Pets.Friendly) == 0 {
		errs = append(errs, "scoring.pets.friendly must have at least 1 term")
	}
	if len(s.Pets.Prohibited) == 0 {
		errs = append(errs, "scoring.pets.prohibited must have at least 1 term")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + joinLines(errs))
	}
	return nil
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}

func joinLines(lines []string) string {
	out := ""
	for i, s := range lines {
		if i > 0 {
			out += "\n- "
		}
		out += s
	}
	return out
}
