package registry

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry answers each connection with replies[query] and records the
// queries it saw.
func fakeRegistry(t *testing.T, replies map[string]string, delay time.Duration) (*WhoisClient, <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	queries := make(chan string, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				line, err := bufio.NewReader(conn).ReadString('\n')
				if err != nil {
					return
				}
				q := strings.TrimSpace(line)
				queries <- q
				time.Sleep(delay)
				conn.Write([]byte(replies[q]))
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	client := NewWhoisClient(WhoisConfig{
		Host:    "127.0.0.1",
		Port:    addr.Port,
		TLD:     "li",
		Timeout: 2 * time.Second,
	})
	return client, queries
}

func TestWhoisClient_Check(t *testing.T) {
	client, queries := fakeRegistry(t, map[string]string{
		"free.li":  "1: free.li is available\n",
		"nic.li":   "0: nic.li is not available\n",
		"slow.li":  "-95: rate limit exceeded\n",
		"weird.li": "-1: unknown error\n",
		"junk.li":  "garbage",
	}, 0)
	ctx := context.Background()

	answer, err := client.Check(ctx, "free")
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, answer.Status)
	assert.Equal(t, 1, answer.Code)
	assert.Equal(t, "free.li is available", answer.Message)
	assert.Equal(t, "free.li", <-queries)

	answer, err = client.Check(ctx, "nic")
	require.NoError(t, err)
	assert.Equal(t, StatusTaken, answer.Status)
	<-queries

	_, err = client.Check(ctx, "slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.False(t, IsPermanent(err))
	<-queries

	_, err = client.Check(ctx, "weird")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	var reply *ReplyError
	require.True(t, errors.As(err, &reply))
	assert.Equal(t, -1, reply.Code)
	<-queries

	_, err = client.Check(ctx, "junk")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestWhoisClient_InvalidLabelIsPermanent(t *testing.T) {
	client := NewWhoisClient(WhoisConfig{Host: "127.0.0.1", Port: 1, TLD: "li"})
	_, err := client.Check(context.Background(), "-ab")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestWhoisClient_ConnectionFailureIsTransient(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	client := NewWhoisClient(WhoisConfig{Host: "127.0.0.1", Port: port, TLD: "li", Timeout: time.Second})
	_, err = client.Check(context.Background(), "abc")
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestWhoisClient_ContextCancel(t *testing.T) {
	client, _ := fakeRegistry(t, map[string]string{"abc.li": "1: ok\n"}, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Check(ctx, "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestValidateLabel(t *testing.T) {
	for _, ok := range []string{"a", "a-b", "0", "abcd", strings.Repeat("a", 63)} {
		assert.NoError(t, ValidateLabel(ok), ok)
	}
	for _, bad := range []string{"", "-a", "a-", "A", "a.b", strings.Repeat("a", 64)} {
		assert.Error(t, ValidateLabel(bad), bad)
	}
}
