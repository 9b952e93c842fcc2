package socket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client connects to the krunner-nix daemon over a Unix socket.
type Client struct {
	sockPath string
}

// NewClient creates a client that will connect to the given socket path.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath}
}

// Match sends a match request and returns the result.
func (c *Client) Match(query string) (*MatchResult, error) {
	var result MatchResult
	if err := c.do(Request{
		ID:     "1",
		Method: MethodMatch,
		Params: MatchParams{Query: query},
	}, 5*time.Second, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Actions lists the actions every match offers.
func (c *Client) Actions() (*ActionsResult, error) {
	var result ActionsResult
	if err := c.do(Request{ID: "1", Method: MethodActions}, 5*time.Second, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Run asks the daemon to launch a match. An empty action means run.
func (c *Client) Run(id, action string) (*RunResult, error) {
	var result RunResult
	if err := c.do(Request{
		ID:     "1",
		Method: MethodRun,
		Params: RunParams{ID: id, Action: action},
	}, 5*time.Second, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health sends a health check request.
func (c *Client) Health() (*HealthResult, error) {
	var result HealthResult
	if err := c.do(Request{ID: "1", Method: MethodHealth}, 5*time.Second, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Reload asks the daemon to rebuild its catalog with an extended timeout,
// since `nix search` over all of nixpkgs is slow.
func (c *Client) Reload() (*ReloadResult, error) {
	var result ReloadResult
	if err := c.do(Request{ID: "1", Method: MethodReload}, 5*time.Minute, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Shutdown sends a shutdown request to the daemon.
func (c *Client) Shutdown() error {
	_, err := c.call(Request{
		ID:     "1",
		Method: MethodShutdown,
	})
	return err
}

// Ping checks if the daemon is reachable.
func (c *Client) Ping() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// do performs a call and decodes the result into out.
func (c *Client) do(req Request, timeout time.Duration, out interface{}) error {
	resp, err := c.callWithTimeout(req, timeout)
	if err != nil {
		return err
	}
	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(resultJSON, out); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}

func (c *Client) call(req Request) (*Response, error) {
	return c.callWithTimeout(req, 5*time.Second)
}

func (c *Client) callWithTimeout(req Request, timeout time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	// Set deadline for the whole request/response
	conn.SetDeadline(time.Now().Add(timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		return nil, fmt.Errorf("empty response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("server error: %s", resp.Error)
	}
	return &resp, nil
}
