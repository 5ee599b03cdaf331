package cms

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchJSONPassesEndpointVerbatim(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"id":1,"attributes":{"bandName":"Tributo"}},"meta":{}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/api/")
	env, err := client.FetchJSON(context.Background(), EndpointBandInfo)
	require.NoError(t, err)
	require.Equal(t, "/api/band-info", gotPath)
	require.Equal(t, "populate=*", gotQuery)
	require.True(t, env.HasData())

	info, ok, err := client.BandInfo(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Tributo", info.BandName.String())
}

func TestFetchJSONReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchJSON(context.Background(), "/services")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusInternalServerError, httpErr.Status)
	require.Equal(t, "/services", httpErr.Endpoint)
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestFetchJSONNotFoundMatchesSentinel(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchJSON(context.Background(), "/gallery-items")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFetchJSONReturnsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewClient(base).FetchJSON(context.Background(), "/services")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, "/services", netErr.Endpoint)
}

func TestFetchJSONRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": [`)
	}))
	defer srv.Close()

	env, err := NewClient(srv.URL).FetchJSON(context.Background(), "/services")
	require.Error(t, err)
	require.False(t, env.HasData())
}

func TestSubmitContactWrapsPayload(t *testing.T) {
	var body map[string]map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/contacts", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"data":{"id":7,"attributes":{"name":"Ana"}}}`)
	}))
	defer srv.Close()

	rec, err := NewClient(srv.URL+"/api").SubmitContact(context.Background(), ContactSubmission{
		Name:    "Ana",
		Email:   "ana@example.com",
		Message: "Hola",
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, rec.ID)
	require.Equal(t, "Ana", body["data"]["name"])
	require.Equal(t, "Hola", body["data"]["message"])
	_, hasPhone := body["data"]["phone"]
	require.False(t, hasPhone)
}

func TestSubmitContactReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).SubmitContact(context.Background(), ContactSubmission{Name: "a"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadRequest, httpErr.Status)
}

func TestCollectionAccessorDecodesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[
			{"id":1,"attributes":{"title":"TRIBUTE BAND","price":1500}},
			{"id":2,"attributes":{"title":"PRIVATE EVENTS","buttonColor":"#fff"}}
		],"meta":{"pagination":{"total":2}}}`)
	}))
	defer srv.Close()

	services, ok, err := NewClient(srv.URL).Services(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, services, 2)
	require.Equal(t, "1500", services[0].Price.String())
	require.False(t, services[1].Price.Present())
}

func TestCollectionAccessorNullData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":null}`)
	}))
	defer srv.Close()

	items, ok, err := NewClient(srv.URL).GalleryItems(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, items)
}

func TestUnconfiguredClientFailsAsNetworkError(t *testing.T) {
	_, err := NewClient("").FetchJSON(context.Background(), "/services")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}
