package persist

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

// HTTP is a Store talking to an endpoint accepting the text as a POST body and
// returning it on GET.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP creates a Store for url. A nil client uses http.DefaultClient.
func NewHTTP(url string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTP{url: url, client: client}
}

func (h *HTTP) Save(ctx context.Context, text string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, strings.NewReader(text))
	if err != nil {
		return errors.Wrap(err, "unable to create request")
	}

	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "unable to send request")
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrapf(ErrUnexpectedStatus, "%s", resp.Status)
	}

	return nil
}

func (h *HTTP) Load(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, http.NoBody)
	if err != nil {
		return "", errors.Wrap(err, "unable to create request")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "unable to send request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", errors.Wrapf(ErrUnexpectedStatus, "%s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "unable to read body")
	}

	return string(body), nil
}

var _ Store = (*HTTP)(nil)
