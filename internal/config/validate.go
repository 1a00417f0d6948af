package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate cleans up list fields and returns errors plus
// soft warnings. Used by the config PUT handler; startup uses Validate.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Scoring.Location.Cities = trimList(out.Scoring.Location.Cities)
	out.Scoring.Location.Districts = trimList(out.Scoring.Location.Districts)
	out.Mail.SubjectAny = trimList(out.Mail.SubjectAny)

	if err := Validate(out); err != nil {
		res.addErr("%v", err)
	}

	// polling sanity
	if out.Monitor.Enabled {
		if out.Monitor.PageID == "" {
			res.addErr("monitor.page_id is required when monitor.enabled=true")
		}
		if out.Monitor.IntervalSeconds <= 0 {
			res.addErr("monitor.interval_seconds must be > 0")
		} else if out.Monitor.IntervalSeconds < 60 {
			res.addWarn("monitor.interval_seconds is very low (%d) and may hit Notion rate limits.", out.Monitor.IntervalSeconds)
		}
	}
	if out.Mail.Enabled {
		if strings.TrimSpace(out.Mail.IMAPHost) == "" {
			res.addErr("mail.imap_host is required when mail.enabled=true")
		}
		if out.Mail.IMAPPort == 0 {
			res.addErr("mail.imap_port is required when mail.enabled=true")
		}
		if strings.TrimSpace(out.Mail.Username) == "" {
			res.addErr("mail.username is required when mail.enabled=true")
		}
		if strings.TrimSpace(out.Mail.Mailbox) == "" {
			res.addErr("mail.mailbox is required when mail.enabled=true")
		}
	}

	// catalog sanity: soft checks only, hard invariants are in Validate
	reqSum := 0
	for _, r := range out.Scoring.Required {
		reqSum += r.Weight
	}
	if reqSum != 40 && reqSum != 0 {
		res.addWarn("scoring.required weights sum to %d, not the nominal 40; category max follows the sum.", reqSum)
	}
	prefSum := 0
	for _, r := range out.Scoring.Preferred {
		prefSum += r.Weight
	}
	if prefSum < out.Scoring.PreferredCap {
		res.addWarn("scoring.preferred weights sum to %d, below the cap %d; the cap is unreachable.", prefSum, out.Scoring.PreferredCap)
	}
	if len(out.Scoring.Location.Cities) == 0 {
		res.addWarn("scoring.location.cities is empty; every listing scores 0 on location.")
	}
	if out.Pipeline.MinScore > out.Scoring.MaxTotal {
		res.addWarn("pipeline.min_score %d exceeds scoring.max_total %d; nothing will pass the gate.", out.Pipeline.MinScore, out.Scoring.MaxTotal)
	}

	// district appearing in the city list is almost certainly a paste error
	citySet := map[string]bool{}
	for _, c := range out.Scoring.Location.Cities {
		citySet[c] = true
	}
	for _, d := range out.Scoring.Location.Districts {
		if citySet[d] {
			res.addWarn("location entry appears in both cities and districts: %q", d)
		}
	}

	return out, res
}
