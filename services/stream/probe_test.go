package stream

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"scavengarr/config"
	"scavengarr/models"
)

type fakeHeadClient struct {
	mu       sync.Mutex
	statuses map[string]int
	errs     map[string]error
	calls    []string
}

func (f *fakeHeadClient) Head(_ context.Context, url string) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if err, ok := f.errs[url]; ok {
		return 0, err
	}
	if status, ok := f.statuses[url]; ok {
		return status, nil
	}
	return http.StatusOK, nil
}

func testProber(client HeadClient, maxN int) *Prober {
	return NewProber(client, config.ProbeSettings{
		MaxProbeCount:       maxN,
		ProbeConcurrency:    4,
		ProbeTimeoutSeconds: 2,
	})
}

func urls(streams []models.RankedStream) []string {
	out := make([]string, len(streams))
	for i, s := range streams {
		out[i] = s.URL
	}
	return out
}

func TestProbeDropsDeadStreams(t *testing.T) {
	client := &fakeHeadClient{
		statuses: map[string]int{"https://b.example/v": http.StatusNotFound},
		errs:     map[string]error{"https://c.example/v": errors.New("connection refused")},
	}
	streams := []models.RankedStream{
		{URL: "https://a.example/v"},
		{URL: "https://b.example/v"},
		{URL: "https://c.example/v"},
		{URL: "https://d.example/v"},
	}

	got := testProber(client, 10).Probe(context.Background(), streams)
	require.Equal(t, []string{"https://a.example/v", "https://d.example/v"}, urls(got))
}

func TestProbeOnlyTouchesTopN(t *testing.T) {
	client := &fakeHeadClient{
		statuses: map[string]int{
			"https://a.example/v": http.StatusGone,
			"https://c.example/v": http.StatusGone,
		},
	}
	streams := []models.RankedStream{
		{URL: "https://a.example/v"},
		{URL: "https://b.example/v"},
		{URL: "https://c.example/v"}, // beyond maxN, passes unprobed
	}

	got := testProber(client, 2).Probe(context.Background(), streams)
	require.Equal(t, []string{"https://b.example/v", "https://c.example/v"}, urls(got))
	require.Len(t, client.calls, 2)
}

func TestProbeMethodNotAllowedIsAlive(t *testing.T) {
	client := &fakeHeadClient{
		statuses: map[string]int{"https://a.example/v": http.StatusMethodNotAllowed},
	}
	streams := []models.RankedStream{{URL: "https://a.example/v"}}
	got := testProber(client, 10).Probe(context.Background(), streams)
	require.Len(t, got, 1)
}

func TestProbePreservesOrder(t *testing.T) {
	client := &fakeHeadClient{}
	streams := []models.RankedStream{
		{URL: "https://a.example/v"},
		{URL: "https://b.example/v"},
		{URL: "https://c.example/v"},
		{URL: "https://d.example/v"},
		{URL: "https://e.example/v"},
	}
	got := testProber(client, 10).Probe(context.Background(), streams)
	require.Equal(t, urls(streams), urls(got))
}

func TestProbeEmptyInput(t *testing.T) {
	got := testProber(&fakeHeadClient{}, 10).Probe(context.Background(), nil)
	require.Empty(t, got)
}
