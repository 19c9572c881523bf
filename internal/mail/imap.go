package mail

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// IMAPClient wraps go-imap v2 for the few commands the pipeline needs.
// Every method opens its own connection and logs out when done.
type IMAPClient struct {
	host     string
	port     string
	username string
	password string
	tls      bool
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(
	host, port, username, password string, tls bool,
) *IMAPClient {
	return &IMAPClient{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      tls,
	}
}

// Connect establishes a connection to the IMAP server and authenticates.
// The caller is responsible for calling Logout on the returned client.
func (c *IMAPClient) Connect(
	_ context.Context,
) (*imapclient.Client, error) {
	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error

	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	return client, nil
}

// LatestUID returns the UID of the newest message in mailbox, or 0 when
// the mailbox is empty.
func (c *IMAPClient) LatestUID(
	ctx context.Context, mailbox string,
) (uint32, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		return 0, fmt.Errorf("selecting %s: %w", mailbox, err)
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return 0, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return 0, nil
	}

	latest := uids[0]
	for _, uid := range uids[1:] {
		if uid > latest {
			latest = uid
		}
	}
	return uint32(latest), nil
}

// FetchMessage fetches the full message for uid without setting \Seen
// and parses it.
func (c *IMAPClient) FetchMessage(
	ctx context.Context, mailbox string, uid uint32,
) (*ParsedMessage, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", mailbox, err)
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message UID %d: %w", uid, errMessageNotFound)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message data: %w", err)
	}

	parsed, err := ParseMessage(buf.FindBodySection(bodySection))
	if err != nil {
		return nil, fmt.Errorf("parsing message UID %d: %w", uid, err)
	}

	parsed.Envelope.UID = uint32(buf.UID)
	for _, flag := range buf.Flags {
		parsed.Envelope.Flags = append(parsed.Envelope.Flags, string(flag))
	}

	if err := fetchCmd.Close(); err != nil {
		return parsed, fmt.Errorf("closing fetch: %w", err)
	}

	return parsed, nil
}

// AppendDraft stores raw in mailbox with the \Draft flag set.
func (c *IMAPClient) AppendDraft(
	ctx context.Context, mailbox string, raw []byte,
) error {
	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	appendCmd := client.Append(mailbox, int64(len(raw)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagDraft, imap.FlagSeen},
		Time:  time.Now(),
	})
	if _, err := bytes.NewReader(raw).WriteTo(appendCmd); err != nil {
		_ = appendCmd.Close()
		return fmt.Errorf("writing draft: %w", err)
	}
	if err := appendCmd.Close(); err != nil {
		return fmt.Errorf("closing append: %w", err)
	}
	if _, err := appendCmd.Wait(); err != nil {
		return fmt.Errorf("appending draft to %s: %w", mailbox, err)
	}

	return nil
}
