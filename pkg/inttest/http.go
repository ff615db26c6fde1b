package inttest

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/evently-app/evently/internal/handler"
	"github.com/evently-app/evently/internal/server"
	"github.com/evently-app/evently/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// SetupHTTPServer creates an HTTP server using Gin. Given middleware runs on every route, after the
// session is loaded. An HTTP client is returned to interact with the created server.
func SetupHTTPServer(t *testing.T, f func(engine *gin.Engine), middleware ...gin.HandlerFunc) *HTTPClient {
	t.Helper()

	err := handler.RegisterValidation()
	require.NoError(t, err, "failed to register validation")
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessionConfig := config.Session{
		Secret: []byte("integration-test-secret-of-32-bytes!"),
		Name:   "evently_session",
		MaxAge: 3600,
	}
	engine, err := server.GetEngine(logger, sessionConfig, middleware...)
	require.NoError(t, err, "failed to create engine")
	f(engine)

	server := httptest.NewServer(engine.Handler())
	t.Cleanup(server.Close)

	return &HTTPClient{Client: newClient(t, server), ServerURL: server.URL}
}

// newClient returns a client with its own cookie jar so every client is a separate browser session.
// Redirects are not followed so they can be asserted on.
func newClient(t *testing.T, server *httptest.Server) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err, "failed to create cookie jar")

	client := server.Client()
	client.Jar = jar
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	t.Cleanup(client.CloseIdleConnections)
	return client
}

// HTTPClient allows making requests in a way most of our handlers would expect them. It does so by
// wrapping an http.Client. Access the actual http.Client for specific use cases where our defaults don't
// work.
type HTTPClient struct {
	Client    *http.Client
	ServerURL string
}

// NewSession returns a client talking to the same server without any of the cookies of hc.
func (hc *HTTPClient) NewSession(t *testing.T) *HTTPClient {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err, "failed to create cookie jar")
	client := *hc.Client
	client.Jar = jar
	return &HTTPClient{Client: &client, ServerURL: hc.ServerURL}
}

// WithHeader adds a header with the given key and value to HTTP request headers.
func WithHeader(key string, value string) func(http.Header) {
	return func(header http.Header) {
		header.Add(key, value)
	}
}

// Get sends an HTTP GET request to given path. Optional headers are applied to the request. The
// response body is read in full and returned as is. Failure to read or close the HTTP response body
// and HTTP status other than 200 will fail the test associated with t.
func (hc *HTTPClient) Get(t *testing.T, path string, headers ...func(http.Header)) []byte {
	t.Helper()
	return hc.Do(t, http.MethodGet, path, nil, http.StatusOK, headers...)
}

// PostForm submits form to given path as an HTML form would. The location the response redirects to
// is returned. HTTP status other than 303 will fail the test associated with t.
func (hc *HTTPClient) PostForm(t *testing.T, path string, form url.Values, headers ...func(http.Header)) string {
	t.Helper()

	headers = append(headers, WithHeader("Content-Type", "application/x-www-form-urlencoded"))
	return hc.redirect(t, http.MethodPost, path, strings.NewReader(form.Encode()), headers...)
}

// PostMultipart submits form and a file under fileField as a multipart HTML form would. The location
// the response redirects to is returned. HTTP status other than 303 will fail the test associated
// with t.
func (hc *HTTPClient) PostMultipart(t *testing.T, path string, form url.Values, fileField, fileName string, content []byte) string {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, values := range form {
		for _, value := range values {
			require.NoError(t, writer.WriteField(key, value), "failed to write form field %q", key)
		}
	}
	part, err := writer.CreateFormFile(fileField, fileName)
	require.NoError(t, err, "failed to create form file")
	_, err = part.Write(content)
	require.NoError(t, err, "failed to write form file")
	require.NoError(t, writer.Close(), "failed to close multipart writer")

	return hc.redirect(t, http.MethodPost, path, body, WithHeader("Content-Type", writer.FormDataContentType()))
}

// GetRedirect sends an HTTP GET request to given path and returns the location it redirects to.
// HTTP status other than 303 will fail the test associated with t.
func (hc *HTTPClient) GetRedirect(t *testing.T, path string, headers ...func(http.Header)) string {
	t.Helper()
	return hc.redirect(t, http.MethodGet, path, nil, headers...)
}

func (hc *HTTPClient) redirect(t *testing.T, method, path string, requestBody io.Reader, headers ...func(http.Header)) string {
	t.Helper()

	req := hc.newRequest(t, method, path, requestBody, headers...)
	res := hc.do(t, req)

	errMsg := httpClientErrMessage(method, path)
	defer func() {
		require.NoError(t, res.Body.Close(), errMsg+": failed to close HTTP response body")
	}()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err, errMsg+": failed to read HTTP response body")
	require.Equal(t, http.StatusSeeOther, res.StatusCode, errMsg+": HTTP status mismatch: %s", body)
	return res.Header.Get("Location")
}

// Do sends an HTTP request of given method to given path. Optional headers are applied to the
// request. The response body is read in full and returned as is. Failure to read or close the HTTP
// response body and HTTP status other than given expectedStatus will fail the test associated with t.
func (hc *HTTPClient) Do(t *testing.T, method, path string, requestBody io.Reader, expectedStatus int, headers ...func(http.Header)) []byte {
	t.Helper()

	req := hc.newRequest(t, method, path, requestBody, headers...)
	res := hc.do(t, req)

	errMsg := httpClientErrMessage(method, path)
	defer func() {
		require.NoError(t, res.Body.Close(), errMsg+": failed to close HTTP response body")
	}()
	require.Equal(t, expectedStatus, res.StatusCode, errMsg+": HTTP status mismatch")
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err, errMsg+": failed to read HTTP response body")
	return body
}

// do delegates the request to the underlying HTTP client.
func (hc *HTTPClient) do(t *testing.T, req *http.Request) *http.Response {
	resp, err := hc.Client.Do(req)
	require.NoError(t, err, httpClientErrMessage(req.Method, req.URL.Path)+": HTTP request failed")
	return resp
}

func httpClientErrMessage(method, path string) string {
	return fmt.Sprintf("failed %s %q", method, path)
}

// newRequest creates a new HTTP request to the server at given path after applying any optional
// headers.
func (hc *HTTPClient) newRequest(t *testing.T, method, path string, body io.Reader, headers ...func(http.Header)) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, hc.ServerURL+path, body)
	require.NoError(t, err, httpClientErrMessage(method, path)+": failed to create request")

	for _, f := range headers {
		f(req.Header)
	}

	return req
}
