// Package mailwatch pulls 591 alert mails over IMAP and turns them into
// listing links for the pipeline.
package mailwatch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"rentscout-engine/internal/config"
	"rentscout-engine/internal/extract"
)

// Message is one fetched mail, enough to scan for links.
type Message struct {
	UID     imap.UID
	Subject string
	Date    time.Time

	// Body is the full RFC822 bytes, fetched with BODY.PEEK[] so the mail
	// stays unread until we mark it ourselves.
	Body []byte
}

// Source implements pipeline.LinkSource over one IMAP account.
type Source struct {
	Cfg      config.Mail
	Password string
}

func (s *Source) Name() string { return "mail" }

// FetchLinks logs in, scans unseen alert mails for listing links and marks
// the mails that contained any as seen.
func (s *Source) FetchLinks(ctx context.Context) ([]string, error) {
	addr := fmt.Sprintf("%s:%d", s.Cfg.IMAPHost, s.Cfg.IMAPPort)
	c, err := DialAndLogin(ctx, addr, s.Cfg.Username, s.Password, &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: s.Cfg.IMAPHost,
	})
	if err != nil {
		return nil, err
	}
	defer LogoutAndClose(c)

	if err := SelectMailbox(c, s.Cfg.Mailbox); err != nil {
		return nil, err
	}

	msgs, err := FetchUnseen(ctx, c, s.Cfg.MaxMessages)
	if err != nil {
		return nil, err
	}

	var links []string
	var consumed []imap.UID
	for _, m := range msgs {
		if !SubjectMatches(m.Subject, s.Cfg.SubjectAny) {
			continue
		}
		found := extract.FindLinks(string(m.Body))
		if len(found) == 0 {
			continue
		}
		links = append(links, found...)
		consumed = append(consumed, m.UID)
	}

	if err := MarkSeen(c, consumed); err != nil {
		log.Printf("[mail] mark seen: %v", err)
	}

	return links, nil
}

// SubjectMatches reports whether the subject carries any of the configured
// markers. An empty marker list accepts everything.
func SubjectMatches(subject string, any []string) bool {
	if len(any) == 0 {
		return true
	}
	low := strings.ToLower(subject)
	for _, marker := range any {
		if marker = strings.ToLower(strings.TrimSpace(marker)); marker != "" && strings.Contains(low, marker) {
			return true
		}
	}
	return false
}

// DialAndLogin connects over TLS and logs in.
func DialAndLogin(ctx context.Context, addr, username, password string, tlsCfg *tls.Config) (*imapclient.Client, error) {
	if addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: tlsCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	// best-effort close on context cancel
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(username, password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}

	return c, nil
}

func SelectMailbox(c *imapclient.Client, mailbox string) error {
	if c == nil {
		return errors.New("imap client is nil")
	}
	if mailbox == "" {
		mailbox = "INBOX"
	}
	_, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: false}).Wait()
	if err != nil {
		return fmt.Errorf("imap select %s: %w", mailbox, err)
	}
	return nil
}

// FetchUnseen pulls up to max unseen messages by UID, newest first, with
// BODY.PEEK[] so nothing gets flagged \Seen as a side effect.
func FetchUnseen(ctx context.Context, c *imapclient.Client, max int) ([]Message, error) {
	if c == nil {
		return nil, errors.New("imap client is nil")
	}
	if max <= 0 {
		max = 20
	}

	// alert mails older than a week point at listings that are long gone
	cutoff := time.Now().AddDate(0, 0, -7)

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   cutoff,
	}

	searchData, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return []Message{}, nil
	}

	// newest first
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	uidSet := imap.UIDSetNum(uids...)

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}

	fetchCmd := c.Fetch(uidSet, &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}

		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		var m Message
		m.UID = buf.UID
		if buf.Envelope != nil {
			m.Subject = buf.Envelope.Subject
			m.Date = buf.Envelope.Date
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.Body = append([]byte(nil), b...)
		}
		out = append(out, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}

	return out, nil
}

// MarkSeen sets \Seen on a UID set. Store has no Wait(); Close() delivers
// the final status.
func MarkSeen(c *imapclient.Client, uids []imap.UID) error {
	if c == nil {
		return errors.New("imap client is nil")
	}
	if len(uids) == 0 {
		return nil
	}

	set := imap.UIDSetNum(uids...)

	storeFlags := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}

	cmd := c.Store(set, storeFlags, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap store add seen: %w", err)
	}
	return nil
}

func LogoutAndClose(c *imapclient.Client) {
	if c == nil {
		return
	}
	if err := c.Logout().Wait(); err != nil {
		log.Printf("imap logout: %v", err)
	}
	_ = c.Close()
}
