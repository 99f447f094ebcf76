package feed

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

// NewHTTP reads the body of a long lived GET request. Stop aborts the request.
// A nil client uses http.DefaultClient.
func NewHTTP(url string, client *http.Client) *Stream {
	if client == nil {
		client = http.DefaultClient
	}

	return newStream("http "+url, func(ctx context.Context) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, errors.Wrap(err, "unable to create request")
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "unable to send request")
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()

			return nil, errors.Wrapf(ErrUnexpectedStatus, "%s", resp.Status)
		}

		return resp.Body, nil
	})
}
