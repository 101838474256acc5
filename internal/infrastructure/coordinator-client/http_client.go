package coordinatorclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

type httpClient struct {
	*http.Client
}

// newHTTPClient returns a client reaching onion hosts through the given SOCKS5
// proxy, if defined, and any other host directly.
func newHTTPClient(requestTimeout time.Duration, torProxy string) (*httpClient, error) {
	direct := &net.Dialer{Timeout: requestTimeout}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = direct.DialContext

	if torProxy != "" {
		socks, err := proxy.SOCKS5("tcp", torProxy, nil, direct)
		if err != nil {
			return nil, fmt.Errorf("invalid tor proxy: %s", err)
		}
		socksDialer, ok := socks.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("tor proxy dialer does not support contexts")
		}
		transport.DialContext = func(
			ctx context.Context, network, addr string,
		) (net.Conn, error) {
			host, _, _ := net.SplitHostPort(addr)
			if strings.HasSuffix(host, ".onion") {
				return socksDialer.DialContext(ctx, network, addr)
			}
			return direct.DialContext(ctx, network, addr)
		}
	}

	return &httpClient{&http.Client{
		Timeout:   requestTimeout,
		Transport: transport,
	}}, nil
}

func (c *httpClient) get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")

	return c.doRequest(req)
}

func (c *httpClient) doRequest(req *http.Request) (int, []byte, error) {
	rs, err := c.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	if err != nil {
		return -1, nil, err
	}
	return rs.StatusCode, body, nil
}
