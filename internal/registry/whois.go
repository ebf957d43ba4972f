package registry

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// Reply codes of the registry's domain check service.
	codeAvailable   = 1
	codeTaken       = 0
	codeRateLimited = -95
	codeUnparsable  = -99

	maxReplySize = 64 << 10
)

// WhoisConfig configures a WhoisClient.
type WhoisConfig struct {
	Host    string
	Port    int
	TLD     string
	Timeout time.Duration
}

// WhoisClient checks labels against the line-based availability service:
// one "label.tld\n" query per connection, answered with "code: message".
type WhoisClient struct {
	cfg    WhoisConfig
	addr   string
	dialer net.Dialer
}

var _ Checker = (*WhoisClient)(nil)

// NewWhoisClient returns a client for cfg. A zero Timeout means 10s.
func NewWhoisClient(cfg WhoisConfig) *WhoisClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &WhoisClient{
		cfg:  cfg,
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
	}
}

// Check sends one query for label and classifies the reply.
func (c *WhoisClient) Check(ctx context.Context, label string) (*Answer, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, Permanent(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", c.addr, err)
	}
	defer conn.Close()

	// Closing the connection unblocks the write and read below once ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	query := label + "." + c.cfg.TLD + "\n"
	if _, err := io.WriteString(conn, query); err != nil {
		return nil, c.ioError(ctx, "sending query", err)
	}

	reply, err := io.ReadAll(io.LimitReader(conn, maxReplySize))
	if err != nil {
		return nil, c.ioError(ctx, "reading reply", err)
	}

	return ParseReply(string(reply))
}

func (c *WhoisClient) ioError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s to %s: %w", op, c.addr, ctxErr)
	}
	return fmt.Errorf("%s to %s: %w", op, c.addr, err)
}

// ParseReply classifies a "code: message" reply.
func ParseReply(reply string) (*Answer, error) {
	reply = strings.TrimSpace(reply)

	codeText, message, found := strings.Cut(reply, ":")
	code, err := strconv.Atoi(strings.TrimSpace(codeText))
	if !found || err != nil {
		return nil, Permanent(&ReplyError{Code: codeUnparsable, Message: reply})
	}
	message = strings.TrimSpace(message)

	switch code {
	case codeAvailable:
		return &Answer{Status: StatusAvailable, Code: code, Message: message}, nil
	case codeTaken:
		return &Answer{Status: StatusTaken, Code: code, Message: message}, nil
	case codeRateLimited:
		return nil, &ReplyError{Code: code, Message: message, Err: ErrRateLimited}
	default:
		return nil, Permanent(&ReplyError{Code: code, Message: message})
	}
}

// ValidateLabel checks the registry's label syntax: 1-63 characters of a-z,
// 0-9 and '-', not starting or ending with '-'.
func ValidateLabel(label string) error {
	if len(label) == 0 || len(label) > 63 {
		return fmt.Errorf("invalid label %q: length must be 1-63", label)
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Errorf("invalid label %q: leading or trailing hyphen", label)
	}
	for _, r := range label {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return fmt.Errorf("invalid label %q: character %q not allowed", label, r)
		}
	}
	return nil
}
