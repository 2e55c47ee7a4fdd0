package marketpulse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotJSON = `{
  "as_of": "2026-10-19T14:30:00.123456Z",
  "overall_label": "positive",
  "average_score": 0.42,
  "breakdown": {"positive": 2, "neutral": 1, "negative": 0},
  "articles": [
    {
      "title": "Acme beats estimates",
      "description": null,
      "url": "https://example.com/acme",
      "source": "Reuters",
      "published_at": "2026-10-19T13:00:00+00:00",
      "sentiment_label": "positive",
      "sentiment_score": 0.91
    },
    {
      "title": "Markets drift",
      "url": "https://example.com/drift",
      "sentiment_label": "neutral",
      "sentiment_score": 0.55
    }
  ]
}`

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080/api/"
	c := NewClient(baseURL)

	require.NotNil(t, c)
	assert.Equal(t, "http://localhost:8080/api", c.baseURL)
	require.NotNil(t, c.httpClient)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	c := NewClient("", WithTimeout(5*time.Second))
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
}

func TestGetSentimentDecodesSnapshot(t *testing.T) {
	var gotPath, gotQuery, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotReqID = r.Header.Get(RequestIDHeader)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(snapshotJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api", WithHTTPClient(srv.Client()))
	snap, err := c.GetSentiment(context.Background(), " AAPL ")
	require.NoError(t, err)

	assert.Equal(t, "/api/sentiment", gotPath)
	assert.Equal(t, "symbol=AAPL", gotQuery)
	assert.NotEmpty(t, gotReqID)

	assert.Equal(t, "positive", snap.OverallLabel)
	assert.InDelta(t, 0.42, snap.AverageScore, 1e-9)
	assert.Equal(t, Breakdown{Positive: 2, Neutral: 1, Negative: 0}, snap.Breakdown)
	assert.Equal(t, 3, snap.Breakdown.Total())
	require.Len(t, snap.Articles, 2)

	a := snap.Articles[0]
	assert.Equal(t, "Acme beats estimates", a.Title)
	assert.Empty(t, a.Description)
	assert.Equal(t, "Reuters", a.Source)
	require.NotNil(t, a.PublishedAt)
	assert.Equal(t, 13, a.PublishedAt.UTC().Hour())
	assert.Nil(t, snap.Articles[1].PublishedAt)
	assert.Equal(t, 2026, snap.AsOf.Year())
}

func TestGetSentimentOmitsBlankSymbol(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(snapshotJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	for _, sym := range []string{"", "   "} {
		gotQuery = "unset"
		_, err := c.GetSentiment(context.Background(), sym)
		require.NoError(t, err)
		assert.Empty(t, gotQuery, "symbol %q", sym)
	}
}

func TestGetSentimentErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{"bad gateway", http.StatusBadGateway, `{"detail":"Failed to fetch sentiment data"}`, http.StatusBadGateway},
		{"not found", http.StatusNotFound, ``, http.StatusNotFound},
		{"malformed body", http.StatusOK, `{"as_of": 12`, http.StatusOK},
		{"bad timestamp", http.StatusOK, `{"as_of": "yesterday"}`, http.StatusOK},
		{"missing title", http.StatusOK, `{"as_of":"2026-10-19T00:00:00Z","articles":[{"url":"https://x"}]}`, http.StatusOK},
		{"negative count", http.StatusOK, `{"as_of":"2026-10-19T00:00:00Z","breakdown":{"positive":-1}}`, http.StatusOK},
		{"null body", http.StatusOK, `null`, http.StatusOK},
		{"empty object", http.StatusOK, `{}`, http.StatusOK},
		{"foreign object", http.StatusOK, `{"unexpected":true}`, http.StatusOK},
		{"articles only", http.StatusOK, `{"articles":[]}`, http.StatusOK},
		{"missing breakdown", http.StatusOK, `{"as_of":"2026-10-19T00:00:00Z","overall_label":"neutral","average_score":0,"articles":[]}`, http.StatusOK},
		{"null as_of", http.StatusOK, `{"as_of":null,"overall_label":"neutral","average_score":0,"breakdown":{"positive":0,"neutral":0,"negative":0},"articles":[]}`, http.StatusOK},
		{"missing articles", http.StatusOK, `{"as_of":"2026-10-19T00:00:00Z","overall_label":"neutral","average_score":0,"breakdown":{"positive":0,"neutral":0,"negative":0}}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			snap, err := NewClient(srv.URL).GetSentiment(context.Background(), "")
			require.Error(t, err)
			assert.Nil(t, snap)
			assert.True(t, errors.Is(err, ErrFetch))

			var fe *FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantStatus, fe.Status)
		})
	}
}

func TestGetSentimentAcceptsZeroValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"as_of":"2026-10-19T00:00:00Z","overall_label":"","average_score":0,` +
			`"breakdown":{"positive":0,"neutral":0,"negative":0},"articles":[]}`))
	}))
	defer srv.Close()

	snap, err := NewClient(srv.URL).GetSentiment(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, snap.AverageScore)
	assert.Zero(t, snap.Breakdown.Total())
	assert.NotNil(t, snap.Articles)
	assert.Empty(t, snap.Articles)
}

func TestWithTimeoutCopiesHTTPClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	c := NewClient("", WithHTTPClient(shared), WithTimeout(5*time.Second))

	assert.Equal(t, time.Minute, shared.Timeout, "caller's client must not be modified")
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.NotSame(t, shared, c.httpClient)
}

func TestGetSentimentTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).GetSentiment(context.Background(), "TSLA")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Zero(t, fe.Status)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-10-19T14:30:00Z", time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)},
		{"2026-10-19T14:30:00.5+00:00", time.Date(2026, 10, 19, 14, 30, 0, 5e8, time.UTC)},
		{"2026-10-19T16:30:00+02:00", time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)},
		{"2026-10-19T14:30:00.123456", time.Date(2026, 10, 19, 14, 30, 0, 123456000, time.UTC)},
		{"2026-10-19T14:30:00", time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
	}

	_, err := ParseTimestamp("19/10/2026")
	assert.Error(t, err)
}
